// pkg/pending/intervals.go

package pending

import "fmt"

// Intervals keeps the pages written but not yet flushed, as sorted runs that
// never overlap nor touch each other.
type Intervals struct {
	pageSize int
	items    []*Interval
}

func New(pageSize int) *Intervals {
	return &Intervals{pageSize: pageSize}
}

func (s *Intervals) PageSize() int { return s.pageSize }

// Len returns the number of intervals.
func (s *Intervals) Len() int { return len(s.items) }

// Pages returns the number of buffered pages.
func (s *Intervals) Pages() int {
	var n int
	for _, it := range s.items {
		n += it.pages(s.pageSize)
	}
	return n
}

// Items returns the intervals in order, they must not be modified.
func (s *Intervals) Items() []*Interval {
	return s.items
}

// Upsert buffers content, whose length is a multiple of the page size, at startPage.
func (s *Intervals) Upsert(startPage int, content []byte) {
	if len(content) == 0 || len(content)%s.pageSize != 0 {
		panic(fmt.Sprintf("content of %d bytes is not aligned to page size %d", len(content), s.pageSize))
	}
	buf := make([]byte, len(content))
	copy(buf, content)
	incoming := &Interval{StartPage: startPage, Content: buf}

	insertAt := len(s.items)
	var found []int
	for i, it := range s.items {
		pos := it.classify(incoming, s.pageSize)
		if pos == before {
			continue
		}
		if pos == after {
			if len(found) == 0 {
				insertAt = i
			}
			break
		}
		found = append(found, i)
	}

	switch len(found) {
	case 0:
		s.items = append(s.items, nil)
		copy(s.items[insertAt+1:], s.items[insertAt:])
		s.items[insertAt] = incoming
	case 1:
		s.items[found[0]].merge(incoming, s.pageSize)
	default:
		first, last := found[0], found[len(found)-1]
		merged := mergeIntervals(s.items[first:last+1], incoming, s.pageSize)
		s.items = append(s.items[:first+1], s.items[last+1:]...)
		s.items[first] = merged
	}
}

// Page returns the buffered content of a page.
func (s *Intervals) Page(pageNo int) ([]byte, bool) {
	for _, it := range s.items {
		if it.StartPage > pageNo {
			break
		}
		if p := it.page(pageNo, s.pageSize); p != nil {
			return p, true
		}
	}
	return nil, false
}

// Extent returns the pages [start, end) of the interval holding pageNo.
func (s *Intervals) Extent(pageNo int) (int, int, bool) {
	for _, it := range s.items {
		if it.contains(pageNo, s.pageSize) {
			return it.StartPage, it.end(s.pageSize), true
		}
	}
	return 0, 0, false
}

// Front returns the first interval.
func (s *Intervals) Front() (*Interval, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[0], true
}

// PopFront drops the first interval.
func (s *Intervals) PopFront() {
	if len(s.items) > 0 {
		s.items[0] = nil
		s.items = s.items[1:]
	}
}

// Truncate drops the buffered pages from page `pages` on.
func (s *Intervals) Truncate(pages int) {
	for i, it := range s.items {
		if it.StartPage >= pages {
			s.items = s.items[:i]
			return
		}
		if it.end(s.pageSize) > pages {
			it.Content = it.Content[:(pages-it.StartPage)*s.pageSize]
			s.items = s.items[:i+1]
			return
		}
	}
}

// Clear drops all the buffered pages.
func (s *Intervals) Clear() {
	s.items = nil
}
