// pkg/cache/pages.go

package cache

import (
    "fmt"

    "AveBlob/pkg/utils"
)

var logger = utils.GetLogger("aveblob")

// CachedPage is an immutable copy of one remote page.
type CachedPage struct {
    PageNo  int
    Data    []byte
    Created int64
}

// Run is a maximal range of pages that are all cached or all missing.
type Run struct {
    Cached bool
    Start  int
    Count  int
}

func (r Run) String() string {
    if r.Cached {
        return fmt.Sprintf("Cached(%d,%d)", r.Start, r.Count)
    }
    return fmt.Sprintf("Missing(%d,%d)", r.Start, r.Count)
}

// Pages is a bounded cache of remote pages, the earliest inserted pages are
// evicted first.
type Pages struct {
    pageSize int
    capacity int
    pages    map[int]*CachedPage
    byDate   *dateIndex
    now      func() int64
}

// NewPages creates a cache holding at most capacity pages, 0 disables it.
func NewPages(pageSize, capacity int) *Pages {
    return &Pages{
        pageSize: pageSize,
        capacity: capacity,
        pages:    make(map[int]*CachedPage),
        byDate:   newDateIndex(),
        now:      utils.Microseconds,
    }
}

// WithClock replaces the microsecond clock used to order insertions.
func (c *Pages) WithClock(now func() int64) *Pages {
    c.now = now
    return c
}

func (c *Pages) PageSize() int { return c.pageSize }

func (c *Pages) Capacity() int { return c.capacity }

func (c *Pages) Len() int { return len(c.pages) }

// Insert caches the pages of payload starting at startPage, replacing the
// cached copies. Only the trailing capacity pages of a larger payload are kept.
func (c *Pages) Insert(startPage int, payload []byte) {
    if len(payload)%c.pageSize != 0 {
        panic(fmt.Sprintf("payload of %d bytes is not aligned to page size %d", len(payload), c.pageSize))
    }
    if c.capacity == 0 || len(payload) == 0 {
        return
    }
    n := len(payload) / c.pageSize
    skip := 0
    if n > c.capacity {
        skip = n - c.capacity
    }
    ts := c.now()
    for i := skip; i < n; i++ {
        data := make([]byte, c.pageSize)
        copy(data, payload[i*c.pageSize:])
        p := &CachedPage{PageNo: startPage + i, Data: data, Created: ts}
        if old, ok := c.pages[p.PageNo]; ok {
            c.byDate.remove(old.Created, old.PageNo)
        }
        c.pages[p.PageNo] = p
        c.byDate.add(ts, p.PageNo)
    }
    c.gc()
}

func (c *Pages) gc() {
    for len(c.pages) > c.capacity {
        g, ok := c.byDate.popEarliest()
        if !ok {
            break
        }
        for _, no := range g.pages {
            delete(c.pages, no)
        }
        logger.Debugf("evict %d pages cached at %d", len(g.pages), g.ts)
    }
}

// Get returns the cached content of a page, it must not be modified.
func (c *Pages) Get(pageNo int) ([]byte, bool) {
    p, ok := c.pages[pageNo]
    if !ok {
        return nil, false
    }
    return p.Data, true
}

// LookupRange splits [start, start+count) into alternating cached and missing runs.
func (c *Pages) LookupRange(start, count int) []Run {
    var runs []Run
    for no := start; no < start+count; no++ {
        _, cached := c.pages[no]
        if n := len(runs); n > 0 && runs[n-1].Cached == cached {
            runs[n-1].Count++
            continue
        }
        runs = append(runs, Run{Cached: cached, Start: no, Count: 1})
    }
    return runs
}

// Clear drops all the cached pages.
func (c *Pages) Clear() {
    c.pages = make(map[int]*CachedPage)
    c.byDate.clear()
}
