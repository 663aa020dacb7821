// pkg/object/bwlimit.go

package object

import (
	"context"
	"fmt"

	"github.com/juju/ratelimit"
)

type bwlimit struct {
	PageBlob
	upLimit   *ratelimit.Bucket
	downLimit *ratelimit.Bucket
}

// NewLimited limits the bytes per second moved by page transfers, a limit of 0
// means unlimited.
func NewLimited(o PageBlob, up, down int64) PageBlob {
	bw := &bwlimit{o, nil, nil}
	if up > 0 {
		// there are overheads coming from HTTP/TCP/IP
		bw.upLimit = ratelimit.NewBucketWithRate(float64(up)*0.85, up)
	}
	if down > 0 {
		bw.downLimit = ratelimit.NewBucketWithRate(float64(down)*0.85, down)
	}
	return bw
}

func (p *bwlimit) String() string {
	return fmt.Sprintf("%s(limited)", p.PageBlob)
}

func (p *bwlimit) GetPages(ctx context.Context, startPage, pages int) ([]byte, error) {
	data, err := p.PageBlob.GetPages(ctx, startPage, pages)
	if p.downLimit != nil && len(data) > 0 {
		p.downLimit.Wait(int64(len(data)))
	}
	return data, err
}

func (p *bwlimit) SavePages(ctx context.Context, startPage int, data []byte) error {
	if p.upLimit != nil {
		p.upLimit.Wait(int64(len(data)))
	}
	return p.PageBlob.SavePages(ctx, startPage, data)
}

func (p *bwlimit) Download(ctx context.Context) ([]byte, error) {
	data, err := p.PageBlob.Download(ctx)
	if p.downLimit != nil && len(data) > 0 {
		p.downLimit.Wait(int64(len(data)))
	}
	return data, err
}

var _ PageBlob = &bwlimit{}
