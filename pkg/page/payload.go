// pkg/page/payload.go

package page

import (
    "io"

    "github.com/pkg/errors"
)

// ExactPayload is a page aligned buffer with the requested bytes inside it.
type ExactPayload struct {
    Data   []byte
    Offset int
    Size   int
}

func NewExactPayload(data []byte, offset, size int) *ExactPayload {
    if offset+size > len(data) {
        panic("payload is out of the buffer")
    }
    return &ExactPayload{Data: data, Offset: offset, Size: size}
}

// Bytes returns the requested bytes.
func (p *ExactPayload) Bytes() []byte {
    return p.Data[p.Offset : p.Offset+p.Size]
}

func (p *ExactPayload) Len() int {
    return p.Size
}

func (p *ExactPayload) NewReader() *PayloadReader {
    return &PayloadReader{p: p}
}

type PayloadReader struct {
    p   *ExactPayload
    off int
}

func (r *PayloadReader) Read(buf []byte) (int, error) {
    n, err := r.ReadAt(buf, int64(r.off))
    r.off += n
    return n, err
}

func (r *PayloadReader) ReadAt(buf []byte, off int64) (int, error) {
    if len(buf) == 0 {
        return 0, nil
    }
    if r.p == nil {
        return 0, errors.New("payload is already released")
    }
    data := r.p.Bytes()
    if off < 0 {
        return 0, errors.Errorf("negative offset %d", off)
    }
    if int(off) >= len(data) {
        return 0, io.EOF
    }
    n := copy(buf, data[off:])
    if n < len(buf) {
        return n, io.EOF
    }
    return n, nil
}

func (r *PayloadReader) Seek(offset int64, whence int) (int64, error) {
    var abs int64
    switch whence {
    case io.SeekStart:
        abs = offset
    case io.SeekCurrent:
        abs = int64(r.off) + offset
    case io.SeekEnd:
        abs = int64(r.p.Size) + offset
    default:
        return 0, errors.Errorf("invalid whence %d", whence)
    }
    if abs < 0 {
        return 0, errors.New("negative position")
    }
    r.off = int(abs)
    return abs, nil
}

func (r *PayloadReader) Close() error {
    r.p = nil
    return nil
}
