// pkg/object/errors_test.go

package object

import (
	"context"
	"io"
	"net"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(nil))
	assert.Equal(t, Unknown, KindOf(errors.New("boom")))
	assert.Equal(t, BlobNotFound, KindOf(newError(BlobNotFound, "get", "missing")))
	assert.Equal(t, BlobNotFound, KindOf(errors.Wrap(newError(BlobNotFound, "get", "missing"), "read")))
	assert.Equal(t, Timeout, KindOf(timeoutErr{}))
	assert.Equal(t, Transport, KindOf(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, IO, KindOf(io.ErrUnexpectedEOF))
	assert.True(t, IsNotFound(newError(ContainerNotFound, "get", "missing")))
	assert.False(t, IsNotFound(newError(IO, "get", "broken")))
	assert.Equal(t, "InvalidPageRange", InvalidPageRange.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestWrapIO(t *testing.T) {
	assert.Nil(t, wrapIO("op", nil))
	assert.Equal(t, IO, KindOf(wrapIO("op", os.ErrPermission)))
	assert.Equal(t, Timeout, KindOf(wrapIO("op", os.ErrDeadlineExceeded)))
	assert.Equal(t, Timeout, KindOf(wrapIO("op", timeoutErr{})))
	assert.Equal(t, context.Canceled, wrapIO("op", context.Canceled))
	se := newError(BlobNotFound, "op", "x")
	assert.Equal(t, se, wrapIO("other", se))
}

func TestRedisErr(t *testing.T) {
	assert.Nil(t, redisErr("op", nil))
	assert.Equal(t, Transport, KindOf(redisErr("op", redis.TxFailedErr)))
	assert.Equal(t, Transport, KindOf(redisErr("op", errors.New("LOADING Redis is loading the dataset in memory"))))
	assert.Equal(t, Timeout, KindOf(redisErr("op", timeoutErr{})))
	assert.Equal(t, Unknown, KindOf(redisErr("op", errors.New("ERR syntax error"))))
	assert.Equal(t, context.DeadlineExceeded, redisErr("op", context.DeadlineExceeded))
}
