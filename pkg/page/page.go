// pkg/page/page.go

package page

// PagesForSize returns how many pages of pageSize are needed to hold n bytes.
// n must be positive.
func PagesForSize(n, pageSize int) int {
    if n <= 0 {
        panic("size should > 0")
    }
    return (n-1)/pageSize + 1
}

// ResizeTarget rounds the page count needed to hold `position` bytes up to a
// multiple of rate pages.
func ResizeTarget(position, pageSize, rate int) int {
    if rate <= 0 {
        rate = 1
    }
    return PagesForSize(position, pageSize*rate) * rate
}

// IsAligned reports whether off is a multiple of pageSize.
func IsAligned(off, pageSize int) bool {
    return off%pageSize == 0
}

// Position maps a byte range onto the pages it touches.
type Position struct {
    StartPage int
    Start     int
    End       int
    Size      int

    pageSize int
}

func NewPosition(start, size, pageSize int) Position {
    return Position{
        StartPage: start / pageSize,
        Start:     start,
        End:       start + size,
        Size:      size,
        pageSize:  pageSize,
    }
}

// InPageOffset is the offset of Start inside StartPage.
func (p Position) InPageOffset() int {
    return p.Start - p.StartPage*p.pageSize
}

// FullPages is the number of whole pages spanning [StartPage*pageSize, End).
func (p Position) FullPages() int {
    return PagesForSize(p.End-p.StartPage*p.pageSize, p.pageSize)
}

// Aligned reports whether the range covers whole pages only.
func (p Position) Aligned() bool {
    return IsAligned(p.Start, p.pageSize) && IsAligned(p.End, p.pageSize)
}

// ByteOffset returns the byte offset of the first page.
func (p Position) ByteOffset() int {
    return p.StartPage * p.pageSize
}
