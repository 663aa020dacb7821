// pkg/blob/fake_test.go

package blob

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"AveBlob/pkg/object"
)

// errShort makes GetPages return one page less than asked.
var errShort = errors.New("short read")

type call struct {
	op    string
	start int
	pages int
}

// faultyStore wraps a page blob and fails the calls it is told to.
type faultyStore struct {
	object.PageBlob
	mu     sync.Mutex
	faults map[string][]error
	calls  []call
}

func (f *faultyStore) inject(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[op] = append(f.faults[op], errs...)
}

func (f *faultyStore) fault(op string, start, pages int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op, start, pages})
	q := f.faults[op]
	if len(q) == 0 {
		return nil
	}
	f.faults[op] = q[1:]
	return q[0]
}

func (f *faultyStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *faultyStore) callsOf(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var r []call
	for _, c := range f.calls {
		if c.op == op {
			r = append(r, c)
		}
	}
	return r
}

func (f *faultyStore) CreateContainerIfNotExists(ctx context.Context) error {
	if err := f.fault("create container", 0, 0); err != nil {
		return err
	}
	return f.PageBlob.CreateContainerIfNotExists(ctx)
}

func (f *faultyStore) Create(ctx context.Context, pages int) error {
	if err := f.fault("create", 0, pages); err != nil {
		return err
	}
	return f.PageBlob.Create(ctx, pages)
}

func (f *faultyStore) CreateIfNotExists(ctx context.Context, pages int) (int, error) {
	if err := f.fault("create if not exists", 0, pages); err != nil {
		return 0, err
	}
	return f.PageBlob.CreateIfNotExists(ctx, pages)
}

func (f *faultyStore) Resize(ctx context.Context, pages int) error {
	if err := f.fault("resize", 0, pages); err != nil {
		return err
	}
	return f.PageBlob.Resize(ctx, pages)
}

func (f *faultyStore) GetPages(ctx context.Context, startPage, pages int) ([]byte, error) {
	err := f.fault("get pages", startPage, pages)
	if err == errShort {
		data, err := f.PageBlob.GetPages(ctx, startPage, pages)
		if err != nil {
			return nil, err
		}
		return data[:len(data)-f.PageSize()], nil
	}
	if err != nil {
		return nil, err
	}
	return f.PageBlob.GetPages(ctx, startPage, pages)
}

func (f *faultyStore) SavePages(ctx context.Context, startPage int, data []byte) error {
	if err := f.fault("save pages", startPage, len(data)/f.PageSize()); err != nil {
		return err
	}
	return f.PageBlob.SavePages(ctx, startPage, data)
}

func (f *faultyStore) Download(ctx context.Context) ([]byte, error) {
	if err := f.fault("download", 0, 0); err != nil {
		return nil, err
	}
	return f.PageBlob.Download(ctx)
}

func (f *faultyStore) GetProperties(ctx context.Context) (*object.Properties, error) {
	if err := f.fault("get properties", 0, 0); err != nil {
		return nil, err
	}
	return f.PageBlob.GetProperties(ctx)
}

func (f *faultyStore) Delete(ctx context.Context) error {
	if err := f.fault("delete", 0, 0); err != nil {
		return err
	}
	return f.PageBlob.Delete(ctx)
}

type countedSleeper struct {
	mu    sync.Mutex
	n     int
	total time.Duration
}

func (s *countedSleeper) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	s.total += d
}

func (s *countedSleeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// newTestBlob returns a blob on a fresh in-memory account, created with pages
// when pages >= 0.
func newTestBlob(t *testing.T, pageSize, pages int, conf *Config) (*CachedBlob, *faultyStore, *countedSleeper) {
	raw, err := object.CreateStorage("mem", t.Name(), "container", "blob", pageSize)
	require.NoError(t, err)
	ctx := context.Background()
	if pages >= 0 {
		require.NoError(t, raw.CreateContainerIfNotExists(ctx))
		require.NoError(t, raw.Create(ctx, pages))
	}
	store := &faultyStore{PageBlob: raw, faults: make(map[string][]error)}
	if conf == nil {
		conf = &Config{RetryAttempts: 3, RetryDelay: time.Second, CachePages: 64}
	}
	b := New(store, conf)
	s := &countedSleeper{}
	b.run.sleep = s.sleep
	return b, store, s
}

func transient(op string) error {
	return object.NewError(object.Transport, op, errors.New("connection reset"))
}
