// pkg/pending/intervals_test.go

package pending

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ps = 512

func fill(v byte, pages int) []byte {
	return bytes.Repeat([]byte{v}, pages*ps)
}

func concat(parts ...[]byte) []byte {
	var buf []byte
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}

func TestClassify(t *testing.T) {
	//        +
	// [0][1][2][3][4]
	// [A][H][H][H][B]
	existing := &Interval{StartPage: 2, Content: fill(0, 1)}
	expect := []position{after, here, here, here, before}
	for no, pos := range expect {
		assert.Equal(t, pos, existing.classify(&Interval{StartPage: no, Content: fill(0, 1)}, ps), "page %d", no)
	}

	existing = &Interval{StartPage: 5, Content: fill(0, 2)}
	assert.Equal(t, after, existing.classify(&Interval{StartPage: 2, Content: fill(0, 2)}, ps))
	for no := 3; no <= 7; no++ {
		assert.Equal(t, here, existing.classify(&Interval{StartPage: no, Content: fill(0, 2)}, ps), "page %d", no)
	}
	assert.Equal(t, before, existing.classify(&Interval{StartPage: 8, Content: fill(0, 5)}, ps))
}

func TestMergeSingle(t *testing.T) {
	cases := []struct {
		name     string
		existing Interval
		incoming Interval
		start    int
		content  []byte
	}{
		{"in front", Interval{1, fill(1, 1)}, Interval{0, fill(0, 1)}, 0, concat(fill(0, 1), fill(1, 1))},
		{"half from begin", Interval{1, fill(0, 2)}, Interval{1, fill(1, 1)}, 1, concat(fill(1, 1), fill(0, 1))},
		{"same size", Interval{1, fill(0, 1)}, Interval{1, fill(1, 1)}, 1, fill(1, 1)},
		{"bigger from begin", Interval{1, fill(0, 1)}, Interval{1, fill(1, 2)}, 1, fill(1, 2)},
		{"at the end", Interval{1, fill(0, 1)}, Interval{2, fill(1, 1)}, 1, concat(fill(0, 1), fill(1, 1))},
		{"in the middle", Interval{1, fill(0, 2)}, Interval{2, fill(1, 1)}, 1, concat(fill(0, 1), fill(1, 1))},
		{"in the middle and overflow", Interval{1, fill(0, 2)}, Interval{2, fill(1, 2)}, 1, concat(fill(0, 1), fill(1, 2))},
		{"inside drops the tail", Interval{1, fill(0, 4)}, Interval{2, fill(1, 1)}, 1, concat(fill(0, 1), fill(1, 1))},
		{"overlap from before", Interval{3, fill(0, 3)}, Interval{2, fill(1, 2)}, 2, concat(fill(1, 2), fill(0, 2))},
	}
	for _, c := range cases {
		existing := c.existing
		existing.merge(&c.incoming, ps)
		assert.Equal(t, c.start, existing.StartPage, c.name)
		assert.Equal(t, c.content, existing.Content, c.name)
	}
}

func TestMergeIntervals(t *testing.T) {
	merged := mergeIntervals(
		[]*Interval{{0, fill(0, 1)}, {2, fill(2, 1)}},
		&Interval{1, fill(1, 1)}, ps)
	assert.Equal(t, 0, merged.StartPage)
	assert.Equal(t, concat(fill(0, 1), fill(1, 1), fill(2, 1)), merged.Content)

	merged = mergeIntervals(
		[]*Interval{{0, fill(0, 1)}, {2, fill(2, 2)}},
		&Interval{1, fill(1, 2)}, ps)
	assert.Equal(t, concat(fill(0, 1), fill(1, 2), fill(2, 1)), merged.Content)

	// a hole not covered by anything is zeros
	merged = mergeIntervals(
		[]*Interval{{0, fill(3, 1)}, {3, fill(3, 1)}},
		&Interval{0, fill(1, 1)}, ps)
	assert.Equal(t, concat(fill(1, 1), fill(0, 2), fill(3, 1)), merged.Content)
}

func TestUpsertPrepend(t *testing.T) {
	s := New(ps)
	s.Upsert(2, fill(0, 1))
	require.Equal(t, 1, s.Len())
	s.Upsert(1, fill(1, 1))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, concat(fill(1, 1), fill(0, 1)), s.items[0].Content)
}

func TestUpsertAppend(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(0, 1))
	s.Upsert(2, fill(1, 1))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, concat(fill(0, 1), fill(1, 1)), s.items[0].Content)
}

func TestUpsertBridge(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(0, 1))
	s.Upsert(3, fill(2, 1))
	require.Equal(t, 2, s.Len())
	s.Upsert(2, fill(1, 1))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, concat(fill(0, 1), fill(1, 1), fill(2, 1)), s.items[0].Content)
}

func TestUpsertOverlapBefore(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(0, 2))
	s.Upsert(4, fill(2, 1))
	s.Upsert(2, fill(1, 2))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, concat(fill(0, 1), fill(1, 2), fill(2, 1)), s.items[0].Content)
}

func TestUpsertOverlapBothSides(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(0, 2))
	s.Upsert(4, fill(2, 2))
	s.Upsert(2, fill(1, 3))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, concat(fill(0, 1), fill(1, 3), fill(2, 1)), s.items[0].Content)
}

func TestUpsertReplaceInTheMiddle(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(1, 2))
	s.Upsert(4, fill(2, 2))
	s.Upsert(7, fill(3, 2))
	require.Equal(t, 3, s.Len())
	s.Upsert(2, fill(4, 6))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, concat(fill(1, 1), fill(4, 6), fill(3, 1)), s.items[0].Content)
}

func TestUpsertThreeIntoOne(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(1, 2))
	s.Upsert(4, fill(2, 2))
	s.Upsert(2, fill(3, 3))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, 5, s.Pages())
}

func TestUpsertNoConnection(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(0, 1))
	s.Upsert(5, fill(2, 1))
	s.Upsert(3, fill(1, 1))
	require.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.items[0].StartPage)
	assert.Equal(t, 3, s.items[1].StartPage)
	assert.Equal(t, 5, s.items[2].StartPage)

	s.Upsert(9, fill(3, 1))
	s.Upsert(0, fill(3, 1))
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 9, s.items[3].StartPage)
}

func TestUpsertCopiesContent(t *testing.T) {
	s := New(ps)
	content := fill(1, 1)
	s.Upsert(0, content)
	content[0] = 9
	p, ok := s.Page(0)
	require.True(t, ok)
	assert.Equal(t, byte(1), p[0])
	assert.Panics(t, func() { s.Upsert(0, make([]byte, ps+1)) })
	assert.Panics(t, func() { s.Upsert(0, nil) })
}

func TestPage(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(1, 2))
	s.Upsert(5, fill(2, 1))

	for no, v := range map[int]byte{1: 1, 2: 1, 5: 2} {
		p, ok := s.Page(no)
		require.True(t, ok, "page %d", no)
		assert.Equal(t, fill(v, 1), p)
	}
	for _, no := range []int{0, 3, 4, 6} {
		_, ok := s.Page(no)
		assert.False(t, ok, "page %d", no)
	}

	start, end, ok := s.Extent(2)
	require.True(t, ok)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
	_, _, ok = s.Extent(4)
	assert.False(t, ok)
}

func TestFrontAndTruncate(t *testing.T) {
	s := New(ps)
	s.Upsert(1, fill(1, 2))
	s.Upsert(5, fill(2, 3))
	s.Upsert(10, fill(3, 1))

	s.Truncate(6)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 3, s.Pages())
	_, ok := s.Page(6)
	assert.False(t, ok)

	it, ok := s.Front()
	require.True(t, ok)
	assert.Equal(t, 1, it.StartPage)
	s.PopFront()
	it, _ = s.Front()
	assert.Equal(t, 5, it.StartPage)
	s.Truncate(5)
	assert.Equal(t, 0, s.Len())
	_, ok = s.Front()
	assert.False(t, ok)
	s.PopFront()

	s.Upsert(0, fill(1, 1))
	s.Clear()
	assert.Equal(t, 0, s.Pages())
}

func TestUpsertClosure(t *testing.T) {
	const pageSize = 4
	for round := 0; round < 200; round++ {
		s := New(pageSize)
		for i := 0; i < 30; i++ {
			start := rand.Intn(40)
			n := rand.Intn(5) + 1
			content := bytes.Repeat([]byte{byte(i + 1)}, n*pageSize)
			s.Upsert(start, content)

			// the last write is always visible
			for no := start; no < start+n; no++ {
				p, ok := s.Page(no)
				require.True(t, ok)
				require.Equal(t, byte(i+1), p[0])
			}

			items := s.Items()
			for j, it := range items {
				require.NotEmpty(t, it.Content)
				require.Zero(t, len(it.Content)%pageSize)
				if j > 0 {
					require.Less(t, items[j-1].end(pageSize), it.StartPage, "intervals must keep a gap")
				}
			}
		}
	}
}
