// pkg/cache/index.go

package cache

import "github.com/google/btree"

// dateGroup holds the numbers of the pages inserted at the same microsecond.
type dateGroup struct {
    ts    int64
    pages []int
}

func lessGroup(a, b *dateGroup) bool {
    return a.ts < b.ts
}

// dateIndex orders page numbers by insertion time. It never owns the pages.
type dateIndex struct {
    tree *btree.BTreeG[*dateGroup]
}

func newDateIndex() *dateIndex {
    return &dateIndex{tree: btree.NewG(16, lessGroup)}
}

func (d *dateIndex) add(ts int64, pageNo int) {
    if g, ok := d.tree.Get(&dateGroup{ts: ts}); ok {
        g.pages = append(g.pages, pageNo)
        return
    }
    d.tree.ReplaceOrInsert(&dateGroup{ts: ts, pages: []int{pageNo}})
}

func (d *dateIndex) remove(ts int64, pageNo int) {
    g, ok := d.tree.Get(&dateGroup{ts: ts})
    if !ok {
        return
    }
    for i, p := range g.pages {
        if p == pageNo {
            g.pages = append(g.pages[:i], g.pages[i+1:]...)
            break
        }
    }
    if len(g.pages) == 0 {
        d.tree.Delete(g)
    }
}

// popEarliest removes and returns the group with the smallest timestamp.
func (d *dateIndex) popEarliest() (*dateGroup, bool) {
    return d.tree.DeleteMin()
}

// entries counts the page numbers over all groups.
func (d *dateIndex) entries() int {
    var n int
    d.tree.Ascend(func(g *dateGroup) bool {
        n += len(g.pages)
        return true
    })
    return n
}

func (d *dateIndex) clear() {
    d.tree.Clear(false)
}
