// pkg/blob/blob.go

package blob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"AveBlob/pkg/cache"
	"AveBlob/pkg/object"
	"AveBlob/pkg/page"
	"AveBlob/pkg/utils"
)

var logger = utils.GetLogger("aveblob")

// CachedBlob is a byte addressable view over a remote page blob. All operations
// on one CachedBlob are serialized.
type CachedBlob struct {
	mu       sync.Mutex
	store    object.PageBlob
	conf     Config
	pageSize int
	data     *cachedData
	run      *runner
}

func New(store object.PageBlob, conf *Config) *CachedBlob {
	if conf == nil {
		conf = DefaultConfig()
	}
	b := &CachedBlob{store: store, conf: *conf, pageSize: store.PageSize()}
	b.conf.Check(b.pageSize)
	b.data = newCachedData(b.pageSize, b.conf.CachePages)
	b.run = &runner{store: store, conf: &b.conf, data: b.data, sleep: time.Sleep}
	return b
}

func (b *CachedBlob) String() string {
	return fmt.Sprintf("cached(%s)", b.store)
}

func (b *CachedBlob) PageSize() int {
	return b.pageSize
}

func (b *CachedBlob) Config() Config {
	return b.conf
}

// Stats of a cached blob.
type Stats struct {
	Pages            int  `json:"pages"`
	PagesKnown       bool `json:"pagesKnown"`
	CachedPages      int  `json:"cachedPages"`
	PendingIntervals int  `json:"pendingIntervals"`
	PendingPages     int  `json:"pendingPages"`
}

func (b *CachedBlob) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, known := b.data.pages()
	return Stats{
		Pages:            n,
		PagesKnown:       known,
		CachedPages:      b.data.cache.Len(),
		PendingIntervals: b.data.pending.Len(),
		PendingPages:     b.data.pending.Pages(),
	}
}

// locked
func (b *CachedBlob) pagesAmount(ctx context.Context) (int, error) {
	if n, ok := b.data.pages(); ok {
		return n, nil
	}
	var props *object.Properties
	err := b.run.do(ctx, "get properties", b.run.dataHealing(), func() (err error) {
		props, err = b.store.GetProperties(ctx)
		return
	})
	if err != nil {
		return 0, err
	}
	n := int(props.Size / int64(b.pageSize))
	b.data.setPages(n)
	return n, nil
}

// PagesAmount returns the size of the blob in pages.
func (b *CachedBlob) PagesAmount(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pagesAmount(ctx)
}

// Read returns length bytes at offset. The range must lie inside the blob,
// also for a zero length.
func (b *CachedBlob) Read(ctx context.Context, offset, length int) (*page.ExactPayload, error) {
	if offset < 0 || length < 0 {
		return nil, &RangeError{Op: "read", Offset: offset, Length: length}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	pages, err := b.pagesAmount(ctx)
	if err != nil {
		return nil, err
	}
	if offset+length > pages*b.pageSize {
		return nil, &RangeError{Op: "read", Offset: offset, Length: length, Size: pages * b.pageSize}
	}
	if length == 0 {
		return page.NewExactPayload([]byte{}, 0, 0), nil
	}
	pos := page.NewPosition(offset, length, b.pageSize)
	data, err := b.getPages(ctx, pos.StartPage, pos.FullPages())
	if err != nil {
		return nil, err
	}
	return page.NewExactPayload(data, pos.InPageOffset(), length), nil
}

// Write stores data at offset. A write past the end of the blob grows it to a
// multiple of resizeRate pages, or fails when resizeRate is 0.
func (b *CachedBlob) Write(ctx context.Context, offset int, data []byte, resizeRate int) error {
	if offset < 0 {
		return &RangeError{Op: "write", Offset: offset, Length: len(data)}
	}
	if len(data) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	pages, err := b.pagesAmount(ctx)
	if err != nil {
		return err
	}
	pos := page.NewPosition(offset, len(data), b.pageSize)
	if pos.End > pages*b.pageSize {
		if resizeRate <= 0 {
			return &RangeError{Op: "write", Offset: offset, Length: len(data), Size: pages * b.pageSize}
		}
		target := page.ResizeTarget(pos.End, b.pageSize, resizeRate)
		logger.Debugf("Resize %s from %d to %d pages", b.store, pages, target)
		if err = b.resize(ctx, target); err != nil {
			return err
		}
	}

	full := pos.FullPages()
	buf := make([]byte, full*b.pageSize)
	if pos.InPageOffset() != 0 {
		first, err := b.getPages(ctx, pos.StartPage, 1)
		if err != nil {
			return err
		}
		copy(buf, first)
	}
	if pos.End%b.pageSize != 0 && (full > 1 || pos.InPageOffset() == 0) {
		last, err := b.getPages(ctx, pos.StartPage+full-1, 1)
		if err != nil {
			return err
		}
		copy(buf[(full-1)*b.pageSize:], last)
	}
	copy(buf[pos.InPageOffset():], data)
	return b.savePages(ctx, pos.StartPage, buf)
}

// GetPages returns the content of pages [startPage, startPage+count).
func (b *CachedBlob) GetPages(ctx context.Context, startPage, count int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pages, err := b.pagesAmount(ctx)
	if err != nil {
		return nil, err
	}
	if startPage < 0 || count <= 0 || startPage+count > pages {
		return nil, &RangeError{Op: "get pages", Offset: startPage * b.pageSize, Length: count * b.pageSize, Size: pages * b.pageSize}
	}
	return b.getPages(ctx, startPage, count)
}

// SavePages writes whole pages at startPage.
func (b *CachedBlob) SavePages(ctx context.Context, startPage int, data []byte) error {
	if len(data) == 0 || len(data)%b.pageSize != 0 {
		return errors.Errorf("payload of %d bytes is not aligned to page size %d", len(data), b.pageSize)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	pages, err := b.pagesAmount(ctx)
	if err != nil {
		return err
	}
	if startPage < 0 || startPage+len(data)/b.pageSize > pages {
		return &RangeError{Op: "save pages", Offset: startPage * b.pageSize, Length: len(data), Size: pages * b.pageSize}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return b.savePages(ctx, startPage, buf)
}

// locked
func (b *CachedBlob) getPages(ctx context.Context, startPage, count int) ([]byte, error) {
	result := make([]byte, count*b.pageSize)
	var buffered int
	missing := -1
	for i := 0; i < count; i++ {
		if p, ok := b.data.pending.Page(startPage + i); ok {
			copy(result[i*b.pageSize:], p)
			buffered++
			if missing >= 0 {
				if err := b.loadPages(ctx, startPage+missing, result[missing*b.pageSize:i*b.pageSize]); err != nil {
					return nil, err
				}
				missing = -1
			}
			continue
		}
		if missing < 0 {
			missing = i
		}
	}
	if missing >= 0 {
		if err := b.loadPages(ctx, startPage+missing, result[missing*b.pageSize:]); err != nil {
			return nil, err
		}
	}
	if buffered > 0 {
		cachePages.WithLabelValues("pending").Add(float64(buffered))
	}
	return result, nil
}

// loadPages fills buf with pages from the cache or the remote blob. Cached pages
// are copied before anything is fetched, since inserting the fetched pages may
// evict them.
func (b *CachedBlob) loadPages(ctx context.Context, startPage int, buf []byte) error {
	var missing []cache.Run
	var hits int
	for _, run := range b.data.cache.LookupRange(startPage, len(buf)/b.pageSize) {
		if !run.Cached {
			missing = appendMissing(missing, run.Start, run.Count)
			continue
		}
		for no := run.Start; no < run.Start+run.Count; no++ {
			p, ok := b.data.cache.Get(no)
			if !ok {
				missing = appendMissing(missing, no, 1)
				continue
			}
			copy(buf[(no-startPage)*b.pageSize:], p)
			hits++
		}
	}
	if hits > 0 {
		cachePages.WithLabelValues("hit").Add(float64(hits))
	}
	for _, run := range missing {
		cachePages.WithLabelValues("miss").Add(float64(run.Count))
		off := (run.Start - startPage) * b.pageSize
		for done := 0; done < run.Count; done += b.conf.PagesPerRoundTrip {
			n := utils.Min(b.conf.PagesPerRoundTrip, run.Count-done)
			data, err := b.fetch(ctx, run.Start+done, n)
			if err != nil {
				return err
			}
			copy(buf[off+done*b.pageSize:], data)
			b.data.cache.Insert(run.Start+done, data)
		}
	}
	return nil
}

// appendMissing adds pages [start, start+count) to runs, joining the last run
// when they follow it.
func appendMissing(runs []cache.Run, start, count int) []cache.Run {
	if n := len(runs); n > 0 && runs[n-1].Start+runs[n-1].Count == start {
		runs[n-1].Count += count
		return runs
	}
	return append(runs, cache.Run{Start: start, Count: count})
}

// locked
func (b *CachedBlob) fetch(ctx context.Context, startPage, count int) ([]byte, error) {
	var data []byte
	err := b.run.do(ctx, "get pages", b.run.dataHealing(), func() error {
		d, err := b.store.GetPages(ctx, startPage, count)
		if err != nil {
			return err
		}
		if len(d) != count*b.pageSize {
			return object.NewError(object.IO, "get pages", errors.Errorf("got %d bytes for %d pages", len(d), count))
		}
		data = d
		return nil
	})
	return data, err
}

// locked
func (b *CachedBlob) savePages(ctx context.Context, startPage int, data []byte) error {
	if b.conf.BufferWrites {
		end := startPage + len(data)/b.pageSize
		if s, e, ok := b.data.pending.Extent(startPage); ok && s < startPage && e > end {
			// keep the buffered pages after this write
			for no := end; no < e; no++ {
				p, _ := b.data.pending.Page(no)
				data = append(data, p...)
			}
		}
		b.data.pending.Upsert(startPage, data)
		return nil
	}
	return b.send(ctx, startPage, data)
}

// locked
func (b *CachedBlob) send(ctx context.Context, startPage int, data []byte) error {
	pages := len(data) / b.pageSize
	for done := 0; done < pages; done += b.conf.PagesPerRoundTrip {
		n := utils.Min(b.conf.PagesPerRoundTrip, pages-done)
		chunk := data[done*b.pageSize : (done+n)*b.pageSize]
		err := b.run.do(ctx, "save pages", b.run.dataHealing(), func() error {
			return b.store.SavePages(ctx, startPage+done, chunk)
		})
		if err != nil {
			return err
		}
		b.data.cache.Insert(startPage+done, chunk)
	}
	return nil
}

// Flush sends the buffered writes to the remote blob.
func (b *CachedBlob) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		it, ok := b.data.pending.Front()
		if !ok {
			return nil
		}
		if err := b.send(ctx, it.StartPage, it.Content); err != nil {
			return err
		}
		b.data.pending.PopFront()
	}
}

// locked
func (b *CachedBlob) resize(ctx context.Context, pages int) error {
	err := b.run.do(ctx, "resize", b.run.dataHealing(), func() error {
		return b.store.Resize(ctx, pages)
	})
	if err != nil {
		return err
	}
	if old, ok := b.data.pages(); !ok || pages < old {
		b.data.cache.Clear()
	}
	b.data.pending.Truncate(pages)
	b.data.setPages(pages)
	return nil
}

// Resize sets the size of the blob to pages, dropping the pages past the end.
func (b *CachedBlob) Resize(ctx context.Context, pages int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resize(ctx, pages)
}

func (b *CachedBlob) CreateContainerIfNotExists(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.run.do(ctx, "create container", healing{}, func() error {
		return b.store.CreateContainerIfNotExists(ctx)
	})
}

func (b *CachedBlob) Create(ctx context.Context, pages int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.run.do(ctx, "create", healing{container: b.conf.AutoCreateContainer}, func() error {
		return b.store.Create(ctx, pages)
	})
	if err != nil {
		return err
	}
	b.data.reset()
	b.data.setPages(pages)
	return nil
}

// CreateIfNotExists returns the actual size of the blob in pages.
func (b *CachedBlob) CreateIfNotExists(ctx context.Context, pages int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int
	err := b.run.do(ctx, "create", healing{container: b.conf.AutoCreateContainer}, func() (err error) {
		n, err = b.store.CreateIfNotExists(ctx, pages)
		return
	})
	if err != nil {
		return 0, err
	}
	b.data.setPages(n)
	return n, nil
}

func (b *CachedBlob) Delete(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.run.do(ctx, "delete", healing{}, func() error {
		return b.store.Delete(ctx)
	})
	if err == nil {
		b.data.reset()
	}
	return err
}

func (b *CachedBlob) DeleteIfExists(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.run.do(ctx, "delete", healing{}, func() error {
		return b.store.DeleteIfExists(ctx)
	})
	if err == nil {
		b.data.reset()
	}
	return err
}

// Download returns the whole blob, including the buffered writes.
func (b *CachedBlob) Download(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var data []byte
	err := b.run.do(ctx, "download", b.run.dataHealing(), func() (err error) {
		data, err = b.store.Download(ctx)
		return
	})
	if err != nil {
		return nil, err
	}
	b.data.setPages(len(data) / b.pageSize)
	for _, it := range b.data.pending.Items() {
		off := it.StartPage * b.pageSize
		if off >= len(data) {
			break
		}
		copy(data[off:], it.Content)
	}
	return data, nil
}

func (b *CachedBlob) GetProperties(ctx context.Context) (*object.Properties, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var props *object.Properties
	err := b.run.do(ctx, "get properties", b.run.dataHealing(), func() (err error) {
		props, err = b.store.GetProperties(ctx)
		return
	})
	if err != nil {
		return nil, err
	}
	b.data.setPages(int(props.Size / int64(b.pageSize)))
	return props, nil
}
