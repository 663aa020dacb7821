// pkg/pending/merge.go

package pending

// mergeIntervals builds one interval over the pages of all the given intervals.
// A page takes the incoming content first, then the first source holding it,
// and zeros otherwise.
func mergeIntervals(src []*Interval, incoming *Interval, pageSize int) *Interval {
	start, end := incoming.StartPage, incoming.end(pageSize)
	for _, it := range src {
		if it.StartPage < start {
			start = it.StartPage
		}
		if e := it.end(pageSize); e > end {
			end = e
		}
	}
	content := make([]byte, (end-start)*pageSize)
	for no := start; no < end; no++ {
		off := (no - start) * pageSize
		if p := incoming.page(no, pageSize); p != nil {
			copy(content[off:], p)
			continue
		}
		for _, it := range src {
			if p := it.page(no, pageSize); p != nil {
				copy(content[off:], p)
				break
			}
		}
	}
	return &Interval{StartPage: start, Content: content}
}
