// pkg/object/redis.go

package object

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

/*
	Container: c:$container -> 1
	Blob size: s:$container/$blob -> pages
	Pages:     p:$container/$blob -> {$page -> content}

	Pages missing from the hash are zeros.
*/

type redisLogger struct{}

func (redisLogger) Printf(ctx context.Context, format string, v ...interface{}) {
	logger.Debugf(strings.TrimSpace(format), v...)
}

type redisBlob struct {
	rdb       *redis.Client
	addr      string
	container string
	name      string
	pageSize  int
}

func (r *redisBlob) String() string {
	return fmt.Sprintf("redis://%s/%s/%s", r.addr, r.container, r.name)
}

func (r *redisBlob) PageSize() int {
	return r.pageSize
}

func (r *redisBlob) containerKey() string {
	return "c:" + r.container
}

func (r *redisBlob) sizeKey() string {
	return "s:" + r.container + "/" + r.name
}

func (r *redisBlob) pagesKey() string {
	return "p:" + r.container + "/" + r.name
}

func redisErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return NewError(Timeout, op, err)
		}
		return NewError(Transport, op, err)
	}
	if errors.Is(err, redis.TxFailedErr) {
		return NewError(Transport, op, err)
	}
	if err == redis.ErrClosed {
		return NewError(Transport, op, err)
	}
	switch strings.SplitN(err.Error(), " ", 2)[0] {
	case "LOADING", "READONLY", "CLUSTERDOWN", "TRYAGAIN", "MOVED", "ASK":
		return NewError(Transport, op, err)
	}
	return NewError(Unknown, op, err)
}

func (r *redisBlob) txn(ctx context.Context, op string, txf func(tx *redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < 50; i++ {
		err = r.rdb.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			time.Sleep(time.Microsecond * 100 * time.Duration(rand.Int()%(i+1)))
			continue
		}
		return redisErr(op, err)
	}
	return redisErr(op, err)
}

type sizeReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// pages returns the page count of the blob inside a transaction.
func (r *redisBlob) pages(ctx context.Context, tx sizeReader, op string) (int, error) {
	n, err := tx.Get(ctx, r.sizeKey()).Int()
	if err == redis.Nil {
		exists, err := tx.Exists(ctx, r.containerKey()).Result()
		if err != nil {
			return 0, err
		}
		if exists == 0 {
			return 0, newError(ContainerNotFound, op, "container %s does not exist", r.container)
		}
		return 0, newError(BlobNotFound, op, "blob %s does not exist", r.name)
	}
	return n, err
}

func (r *redisBlob) checkContainer(ctx context.Context, tx sizeReader, op string) error {
	exists, err := tx.Exists(ctx, r.containerKey()).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return newError(ContainerNotFound, op, "container %s does not exist", r.container)
	}
	return nil
}

func (r *redisBlob) CreateContainerIfNotExists(ctx context.Context) error {
	return redisErr("create container", r.rdb.SetNX(ctx, r.containerKey(), "1", 0).Err())
}

func (r *redisBlob) Create(ctx context.Context, pages int) error {
	return r.txn(ctx, "create", func(tx *redis.Tx) error {
		if err := r.checkContainer(ctx, tx, "create"); err != nil {
			return err
		}
		exists, err := tx.Exists(ctx, r.sizeKey()).Result()
		if err != nil {
			return err
		}
		if exists == 1 {
			return newError(BlobAlreadyExists, "create", "blob %s already exists", r.name)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.sizeKey(), pages, 0)
			pipe.Del(ctx, r.pagesKey())
			return nil
		})
		return err
	}, r.containerKey(), r.sizeKey())
}

func (r *redisBlob) CreateIfNotExists(ctx context.Context, pages int) (int, error) {
	var actual int
	err := r.txn(ctx, "create", func(tx *redis.Tx) error {
		n, err := r.pages(ctx, tx, "create")
		if err == nil {
			actual = n
			return nil
		}
		if KindOf(err) != BlobNotFound {
			return err
		}
		actual = pages
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.sizeKey(), pages, 0)
			pipe.Del(ctx, r.pagesKey())
			return nil
		})
		return err
	}, r.containerKey(), r.sizeKey())
	return actual, err
}

func (r *redisBlob) Resize(ctx context.Context, pages int) error {
	return r.txn(ctx, "resize", func(tx *redis.Tx) error {
		old, err := r.pages(ctx, tx, "resize")
		if err != nil {
			return err
		}
		var dropped []string
		if pages < old {
			fields, err := tx.HKeys(ctx, r.pagesKey()).Result()
			if err != nil {
				return err
			}
			for _, f := range fields {
				if n, err := strconv.Atoi(f); err != nil || n >= pages {
					dropped = append(dropped, f)
				}
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.sizeKey(), pages, 0)
			if len(dropped) > 0 {
				pipe.HDel(ctx, r.pagesKey(), dropped...)
			}
			return nil
		})
		return err
	}, r.sizeKey())
}

func (r *redisBlob) GetPages(ctx context.Context, startPage, pages int) ([]byte, error) {
	total, err := r.pages(ctx, r.rdb, "get pages")
	if err != nil {
		return nil, redisErr("get pages", err)
	}
	if startPage < 0 || pages <= 0 || startPage+pages > total {
		return nil, newError(InvalidPageRange, "get pages", "pages [%d, %d) are out of blob with %d pages", startPage, startPage+pages, total)
	}
	fields := make([]string, pages)
	for i := range fields {
		fields[i] = strconv.Itoa(startPage + i)
	}
	vals, err := r.rdb.HMGet(ctx, r.pagesKey(), fields...).Result()
	if err != nil {
		return nil, redisErr("get pages", err)
	}
	buf := make([]byte, pages*r.pageSize)
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || len(s) != r.pageSize {
			return nil, newError(IO, "get pages", "corrupted page %d", startPage+i)
		}
		copy(buf[i*r.pageSize:], s)
	}
	return buf, nil
}

func (r *redisBlob) SavePages(ctx context.Context, startPage int, data []byte) error {
	if err := checkPages("save pages", data, r.pageSize); err != nil {
		return err
	}
	if len(data) > MaxRequestBytes {
		return newError(RequestBodyTooLarge, "save pages", "payload of %d bytes exceeds %d", len(data), MaxRequestBytes)
	}
	n := len(data) / r.pageSize
	return r.txn(ctx, "save pages", func(tx *redis.Tx) error {
		total, err := r.pages(ctx, tx, "save pages")
		if err != nil {
			return err
		}
		if startPage < 0 || startPage+n > total {
			return newError(InvalidPageRange, "save pages", "pages [%d, %d) are out of blob with %d pages", startPage, startPage+n, total)
		}
		values := make([]interface{}, 0, n*2)
		for i := 0; i < n; i++ {
			values = append(values, strconv.Itoa(startPage+i), data[i*r.pageSize:(i+1)*r.pageSize])
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.pagesKey(), values...)
			return nil
		})
		return err
	}, r.sizeKey())
}

func (r *redisBlob) Delete(ctx context.Context) error {
	return r.txn(ctx, "delete", func(tx *redis.Tx) error {
		if _, err := r.pages(ctx, tx, "delete"); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.sizeKey(), r.pagesKey())
			return nil
		})
		return err
	}, r.sizeKey())
}

func (r *redisBlob) DeleteIfExists(ctx context.Context) error {
	if err := r.Delete(ctx); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

func (r *redisBlob) Download(ctx context.Context) ([]byte, error) {
	total, err := r.pages(ctx, r.rdb, "download")
	if err != nil {
		return nil, redisErr("download", err)
	}
	vals, err := r.rdb.HGetAll(ctx, r.pagesKey()).Result()
	if err != nil {
		return nil, redisErr("download", err)
	}
	buf := make([]byte, total*r.pageSize)
	for k, v := range vals {
		n, err := strconv.Atoi(k)
		if err != nil || n >= total {
			continue
		}
		if len(v) != r.pageSize {
			return nil, newError(IO, "download", "corrupted page %d", n)
		}
		copy(buf[n*r.pageSize:], v)
	}
	return buf, nil
}

func (r *redisBlob) GetProperties(ctx context.Context) (*Properties, error) {
	total, err := r.pages(ctx, r.rdb, "get properties")
	if err != nil {
		return nil, redisErr("get properties", err)
	}
	return &Properties{Size: int64(total) * int64(r.pageSize)}, nil
}

func newRedis(endpoint, container, blob string, pageSize int) (PageBlob, error) {
	if err := checkNames("open", container, blob); err != nil {
		return nil, err
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "redis://" + endpoint
	}
	opt, err := redis.ParseURL(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", endpoint, err)
	}
	if opt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
		opt.Password = os.Getenv("REDIS_PASSWORD")
	}
	opt.MaxRetries = 1
	opt.MinRetryBackoff = time.Millisecond * 100
	opt.MaxRetryBackoff = time.Second * 2
	opt.ReadTimeout = time.Second * 30
	opt.WriteTimeout = time.Second * 5
	return &redisBlob{
		rdb:       redis.NewClient(opt),
		addr:      opt.Addr,
		container: container,
		name:      blob,
		pageSize:  pageSize,
	}, nil
}

func init() {
	redis.SetLogger(redisLogger{})
	Register("redis", newRedis)
}
