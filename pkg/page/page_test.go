// pkg/page/page_test.go

package page

import (
    "io"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestPositionInsideFirstPage(t *testing.T) {
    p := NewPosition(3, 3, 8)
    assert.Equal(t, 3, p.Start)
    assert.Equal(t, 6, p.End)
    assert.Equal(t, 0, p.StartPage)
    assert.Equal(t, 3, p.Size)
    assert.Equal(t, 1, p.FullPages())
    assert.Equal(t, 3, p.InPageOffset())
    assert.False(t, p.Aligned())
}

func TestPositionInsideSecondPage(t *testing.T) {
    p := NewPosition(9, 3, 8)
    assert.Equal(t, 12, p.End)
    assert.Equal(t, 1, p.StartPage)
    assert.Equal(t, 1, p.FullPages())
    assert.Equal(t, 1, p.InPageOffset())
    assert.Equal(t, 8, p.ByteOffset())
}

func TestPositionAcrossPages(t *testing.T) {
    p := NewPosition(9, 10, 8)
    assert.Equal(t, 19, p.End)
    assert.Equal(t, 1, p.StartPage)
    assert.Equal(t, 2, p.FullPages())
    assert.Equal(t, 1, p.InPageOffset())

    p = NewPosition(16, 16, 8)
    assert.True(t, p.Aligned())
    assert.Equal(t, 2, p.FullPages())
}

func TestPagesForSize(t *testing.T) {
    for p := 1; p <= 17; p++ {
        for n := 1; n <= 200; n++ {
            got := PagesForSize(n, p)
            require.GreaterOrEqual(t, got*p, n, "n=%d p=%d", n, p)
            require.Less(t, (got-1)*p, n, "n=%d p=%d", n, p)
        }
    }
    assert.Panics(t, func() { PagesForSize(0, 512) })
}

func TestResizeTarget(t *testing.T) {
    assert.Equal(t, 1, ResizeTarget(7, 8, 1))
    assert.Equal(t, 2, ResizeTarget(9, 8, 1))
    assert.Equal(t, 4, ResizeTarget(9, 8, 4))
    assert.Equal(t, 8, ResizeTarget(33, 8, 4))
    assert.Equal(t, 1, ResizeTarget(8, 8, 0))
}

func TestExactPayload(t *testing.T) {
    p := NewExactPayload([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 4, 3)
    assert.Equal(t, []byte{4, 5, 6}, p.Bytes())
    assert.Equal(t, 3, p.Len())
    assert.Panics(t, func() { NewExactPayload(make([]byte, 4), 2, 3) })

    r := p.NewReader()
    buf := make([]byte, 2)
    n, err := r.Read(buf)
    require.NoError(t, err)
    assert.Equal(t, 2, n)
    assert.Equal(t, []byte{4, 5}, buf)
    n, err = r.Read(buf)
    assert.Equal(t, io.EOF, err)
    assert.Equal(t, 1, n)
    assert.Equal(t, byte(6), buf[0])

    pos, err := r.Seek(-3, io.SeekEnd)
    require.NoError(t, err)
    assert.Equal(t, int64(0), pos)
    all, err := io.ReadAll(r)
    require.NoError(t, err)
    assert.Equal(t, []byte{4, 5, 6}, all)

    require.NoError(t, r.Close())
    _, err = r.ReadAt(buf, 0)
    assert.Error(t, err)
}
