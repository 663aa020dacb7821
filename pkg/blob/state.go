// pkg/blob/state.go

package blob

import (
	"AveBlob/pkg/cache"
	"AveBlob/pkg/pending"
)

// cachedData is what a blob handle knows about the remote blob.
type cachedData struct {
	pagesAmount int
	known       bool
	cache       *cache.Pages
	pending     *pending.Intervals
}

func newCachedData(pageSize, capacity int) *cachedData {
	return &cachedData{
		cache:   cache.NewPages(pageSize, capacity),
		pending: pending.New(pageSize),
	}
}

func (d *cachedData) setPages(n int) {
	d.pagesAmount = n
	d.known = true
}

func (d *cachedData) pages() (int, bool) {
	return d.pagesAmount, d.known
}

// invalidate forgets the size and the cached pages, but keeps the buffered writes.
func (d *cachedData) invalidate() {
	d.known = false
	d.pagesAmount = 0
	d.cache.Clear()
}

func (d *cachedData) reset() {
	d.invalidate()
	d.pending.Clear()
}
