// pkg/object/mem.go

package object

import (
	"context"
	"fmt"
	"sync"
)

// MaxRequestBytes is the largest payload accepted by a single SavePages call.
const MaxRequestBytes = 4 << 20

type memContainer struct {
	// calls left before a container being deleted disappears, -1 when alive
	deleting int
	blobs    map[string][]byte
}

type memAccount struct {
	sync.Mutex
	containers map[string]*memContainer
}

var accountsLock sync.Mutex
var accounts = make(map[string]*memAccount)

func getAccount(name string) *memAccount {
	accountsLock.Lock()
	defer accountsLock.Unlock()
	a, ok := accounts[name]
	if !ok {
		a = &memAccount{containers: make(map[string]*memContainer)}
		accounts[name] = a
	}
	return a
}

// DeleteMemContainer drops a container of the in-memory account `endpoint`.
// The container reports ContainerBeingDeleted for the next `grace` calls
// touching it before it is gone.
func DeleteMemContainer(endpoint, container string, grace int) {
	a := getAccount(endpoint)
	a.Lock()
	defer a.Unlock()
	if c, ok := a.containers[container]; ok {
		c.blobs = make(map[string][]byte)
		c.deleting = grace
		if grace <= 0 {
			delete(a.containers, container)
		}
	}
}

type memBlob struct {
	account   *memAccount
	endpoint  string
	container string
	name      string
	pageSize  int
}

func (m *memBlob) String() string {
	return fmt.Sprintf("mem://%s/%s/%s", m.endpoint, m.container, m.name)
}

func (m *memBlob) PageSize() int {
	return m.pageSize
}

// locked
func (m *memBlob) getContainer(op string) (*memContainer, error) {
	c, ok := m.account.containers[m.container]
	if !ok {
		return nil, newError(ContainerNotFound, op, "container %s does not exist", m.container)
	}
	if c.deleting >= 0 {
		c.deleting--
		if c.deleting < 0 {
			delete(m.account.containers, m.container)
			return nil, newError(ContainerNotFound, op, "container %s does not exist", m.container)
		}
		return nil, newError(ContainerBeingDeleted, op, "container %s is being deleted", m.container)
	}
	return c, nil
}

// locked
func (m *memBlob) getBlob(op string) (*memContainer, []byte, error) {
	c, err := m.getContainer(op)
	if err != nil {
		return nil, nil, err
	}
	data, ok := c.blobs[m.name]
	if !ok {
		return c, nil, newError(BlobNotFound, op, "blob %s does not exist", m.name)
	}
	return c, data, nil
}

func (m *memBlob) CreateContainerIfNotExists(ctx context.Context) error {
	m.account.Lock()
	defer m.account.Unlock()
	if c, ok := m.account.containers[m.container]; ok {
		if c.deleting < 0 {
			return nil
		}
		if _, err := m.getContainer("create container"); KindOf(err) == ContainerBeingDeleted {
			return err
		}
	}
	m.account.containers[m.container] = &memContainer{deleting: -1, blobs: make(map[string][]byte)}
	return nil
}

func (m *memBlob) Create(ctx context.Context, pages int) error {
	m.account.Lock()
	defer m.account.Unlock()
	c, err := m.getContainer("create")
	if err != nil {
		return err
	}
	if _, ok := c.blobs[m.name]; ok {
		return newError(BlobAlreadyExists, "create", "blob %s already exists", m.name)
	}
	c.blobs[m.name] = make([]byte, pages*m.pageSize)
	return nil
}

func (m *memBlob) CreateIfNotExists(ctx context.Context, pages int) (int, error) {
	m.account.Lock()
	defer m.account.Unlock()
	c, err := m.getContainer("create")
	if err != nil {
		return 0, err
	}
	if data, ok := c.blobs[m.name]; ok {
		return len(data) / m.pageSize, nil
	}
	c.blobs[m.name] = make([]byte, pages*m.pageSize)
	return pages, nil
}

func (m *memBlob) Resize(ctx context.Context, pages int) error {
	m.account.Lock()
	defer m.account.Unlock()
	c, data, err := m.getBlob("resize")
	if err != nil {
		return err
	}
	size := pages * m.pageSize
	if size <= len(data) {
		c.blobs[m.name] = data[:size:size]
		return nil
	}
	buf := make([]byte, size)
	copy(buf, data)
	c.blobs[m.name] = buf
	return nil
}

func (m *memBlob) GetPages(ctx context.Context, startPage, pages int) ([]byte, error) {
	m.account.Lock()
	defer m.account.Unlock()
	_, data, err := m.getBlob("get pages")
	if err != nil {
		return nil, err
	}
	off, end := startPage*m.pageSize, (startPage+pages)*m.pageSize
	if startPage < 0 || pages <= 0 || end > len(data) {
		return nil, newError(InvalidPageRange, "get pages", "pages [%d, %d) are out of blob with %d pages", startPage, startPage+pages, len(data)/m.pageSize)
	}
	buf := make([]byte, end-off)
	copy(buf, data[off:end])
	return buf, nil
}

func (m *memBlob) SavePages(ctx context.Context, startPage int, payload []byte) error {
	if err := checkPages("save pages", payload, m.pageSize); err != nil {
		return err
	}
	if len(payload) > MaxRequestBytes {
		return newError(RequestBodyTooLarge, "save pages", "payload of %d bytes exceeds %d", len(payload), MaxRequestBytes)
	}
	m.account.Lock()
	defer m.account.Unlock()
	_, data, err := m.getBlob("save pages")
	if err != nil {
		return err
	}
	off := startPage * m.pageSize
	if startPage < 0 || off+len(payload) > len(data) {
		return newError(InvalidPageRange, "save pages", "pages [%d, %d) are out of blob with %d pages", startPage, startPage+len(payload)/m.pageSize, len(data)/m.pageSize)
	}
	copy(data[off:], payload)
	return nil
}

func (m *memBlob) Delete(ctx context.Context) error {
	m.account.Lock()
	defer m.account.Unlock()
	c, _, err := m.getBlob("delete")
	if err != nil {
		return err
	}
	delete(c.blobs, m.name)
	return nil
}

func (m *memBlob) DeleteIfExists(ctx context.Context) error {
	if err := m.Delete(ctx); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

func (m *memBlob) Download(ctx context.Context) ([]byte, error) {
	m.account.Lock()
	defer m.account.Unlock()
	_, data, err := m.getBlob("download")
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (m *memBlob) GetProperties(ctx context.Context) (*Properties, error) {
	m.account.Lock()
	defer m.account.Unlock()
	_, data, err := m.getBlob("get properties")
	if err != nil {
		return nil, err
	}
	return &Properties{Size: int64(len(data))}, nil
}

func newMem(endpoint, container, blob string, pageSize int) (PageBlob, error) {
	if err := checkNames("open", container, blob); err != nil {
		return nil, err
	}
	return &memBlob{
		account:   getAccount(endpoint),
		endpoint:  endpoint,
		container: container,
		name:      blob,
		pageSize:  pageSize,
	}, nil
}

func init() {
	Register("mem", newMem)
}
