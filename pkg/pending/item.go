// pkg/pending/item.go

package pending

// Interval is a run of buffered pages starting at StartPage.
type Interval struct {
	StartPage int
	Content   []byte
}

type position int

const (
	before position = iota // the interval ends with a gap before the incoming one
	here                   // it overlaps or touches the incoming one
	after                  // it starts with a gap after the incoming one
)

func (it *Interval) pages(pageSize int) int {
	return len(it.Content) / pageSize
}

// end is the page right after the interval.
func (it *Interval) end(pageSize int) int {
	return it.StartPage + it.pages(pageSize)
}

func (it *Interval) contains(pageNo, pageSize int) bool {
	return pageNo >= it.StartPage && pageNo < it.end(pageSize)
}

func (it *Interval) page(pageNo, pageSize int) []byte {
	if !it.contains(pageNo, pageSize) {
		return nil
	}
	off := (pageNo - it.StartPage) * pageSize
	return it.Content[off : off+pageSize]
}

func (it *Interval) classify(incoming *Interval, pageSize int) position {
	if it.end(pageSize) < incoming.StartPage {
		return before
	}
	if incoming.end(pageSize) < it.StartPage {
		return after
	}
	return here
}

// merge folds an incoming interval that overlaps or touches it.
func (it *Interval) merge(incoming *Interval, pageSize int) {
	switch {
	case incoming.end(pageSize) == it.StartPage:
		content := make([]byte, 0, len(incoming.Content)+len(it.Content))
		content = append(content, incoming.Content...)
		it.Content = append(content, it.Content...)
		it.StartPage = incoming.StartPage
	case incoming.StartPage == it.StartPage:
		if len(incoming.Content) >= len(it.Content) {
			it.Content = incoming.Content
		} else {
			copy(it.Content, incoming.Content)
		}
	case incoming.StartPage == it.end(pageSize):
		it.Content = append(it.Content, incoming.Content...)
	case incoming.StartPage > it.StartPage:
		// the bytes after the start of incoming are replaced, even past its end
		keep := (incoming.StartPage - it.StartPage) * pageSize
		it.Content = append(it.Content[:keep:keep], incoming.Content...)
	default:
		*it = *mergeIntervals([]*Interval{it}, incoming, pageSize)
	}
}
