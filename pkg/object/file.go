// pkg/object/file.go

package object

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type fsFile interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// fileSystem is the part of a file system a directory backed blob needs.
type fileSystem interface {
	OpenFile(name string, flag int) (fsFile, error)
	Stat(name string) (os.FileInfo, error)
	Truncate(name string, size int64) error
	Remove(name string) error
	MkdirAll(name string) error
	Join(elem ...string) string
}

type localFS struct{}

func (localFS) OpenFile(name string, flag int) (fsFile, error) {
	return os.OpenFile(name, flag, 0644)
}

func (localFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (localFS) Truncate(name string, size int64) error { return os.Truncate(name, size) }

func (localFS) Remove(name string) error { return os.Remove(name) }

func (localFS) MkdirAll(name string) error { return os.MkdirAll(name, 0755) }

func (localFS) Join(elem ...string) string { return filepath.Join(elem...) }

// fileBlob keeps a container as a directory and a blob as a file inside it.
type fileBlob struct {
	fs        fileSystem
	scheme    string
	host      string
	root      string
	container string
	name      string
	pageSize  int
}

func (f *fileBlob) String() string {
	return fmt.Sprintf("%s://%s%s", f.scheme, f.host, path.Join(f.root, f.container, f.name))
}

func (f *fileBlob) PageSize() int {
	return f.pageSize
}

func (f *fileBlob) dir() string {
	return f.fs.Join(f.root, f.container)
}

func (f *fileBlob) path() string {
	return f.fs.Join(f.root, f.container, f.name)
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// size returns the size of the blob file, checking the container first.
func (f *fileBlob) size(op string) (int64, error) {
	if _, err := f.fs.Stat(f.dir()); err != nil {
		if isNotExist(err) {
			return 0, newError(ContainerNotFound, op, "container %s does not exist", f.container)
		}
		return 0, wrapIO(op, err)
	}
	fi, err := f.fs.Stat(f.path())
	if err != nil {
		if isNotExist(err) {
			return 0, newError(BlobNotFound, op, "blob %s does not exist", f.name)
		}
		return 0, wrapIO(op, err)
	}
	return fi.Size(), nil
}

func (f *fileBlob) CreateContainerIfNotExists(ctx context.Context) error {
	return wrapIO("create container", f.fs.MkdirAll(f.dir()))
}

func (f *fileBlob) Create(ctx context.Context, pages int) error {
	if _, err := f.size("create"); err == nil {
		return newError(BlobAlreadyExists, "create", "blob %s already exists", f.name)
	} else if KindOf(err) != BlobNotFound {
		return err
	}
	fd, err := f.fs.OpenFile(f.path(), os.O_CREATE|os.O_EXCL|os.O_RDWR)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return newError(BlobAlreadyExists, "create", "blob %s already exists", f.name)
		}
		return wrapIO("create", err)
	}
	if err = fd.Close(); err != nil {
		return wrapIO("create", err)
	}
	return wrapIO("create", f.fs.Truncate(f.path(), int64(pages*f.pageSize)))
}

func (f *fileBlob) CreateIfNotExists(ctx context.Context, pages int) (int, error) {
	size, err := f.size("create")
	if err == nil {
		return int(size) / f.pageSize, nil
	}
	if KindOf(err) != BlobNotFound {
		return 0, err
	}
	if err = f.Create(ctx, pages); err != nil && KindOf(err) != BlobAlreadyExists {
		return 0, err
	} else if err != nil {
		return f.CreateIfNotExists(ctx, pages)
	}
	return pages, nil
}

func (f *fileBlob) Resize(ctx context.Context, pages int) error {
	if _, err := f.size("resize"); err != nil {
		return err
	}
	return wrapIO("resize", f.fs.Truncate(f.path(), int64(pages*f.pageSize)))
}

func (f *fileBlob) GetPages(ctx context.Context, startPage, pages int) ([]byte, error) {
	size, err := f.size("get pages")
	if err != nil {
		return nil, err
	}
	off, end := int64(startPage*f.pageSize), int64((startPage+pages)*f.pageSize)
	if startPage < 0 || pages <= 0 || end > size {
		return nil, newError(InvalidPageRange, "get pages", "pages [%d, %d) are out of blob with %d pages", startPage, startPage+pages, size/int64(f.pageSize))
	}
	fd, err := f.fs.OpenFile(f.path(), os.O_RDONLY)
	if err != nil {
		return nil, wrapIO("get pages", err)
	}
	defer fd.Close()
	buf := make([]byte, end-off)
	n, err := fd.ReadAt(buf, off)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return nil, wrapIO("get pages", err)
	}
	return buf, nil
}

func (f *fileBlob) SavePages(ctx context.Context, startPage int, data []byte) error {
	if err := checkPages("save pages", data, f.pageSize); err != nil {
		return err
	}
	if len(data) > MaxRequestBytes {
		return newError(RequestBodyTooLarge, "save pages", "payload of %d bytes exceeds %d", len(data), MaxRequestBytes)
	}
	size, err := f.size("save pages")
	if err != nil {
		return err
	}
	off := int64(startPage * f.pageSize)
	if startPage < 0 || off+int64(len(data)) > size {
		return newError(InvalidPageRange, "save pages", "pages [%d, %d) are out of blob with %d pages", startPage, startPage+len(data)/f.pageSize, size/int64(f.pageSize))
	}
	fd, err := f.fs.OpenFile(f.path(), os.O_WRONLY)
	if err != nil {
		return wrapIO("save pages", err)
	}
	if _, err = fd.WriteAt(data, off); err != nil {
		_ = fd.Close()
		return wrapIO("save pages", err)
	}
	return wrapIO("save pages", fd.Close())
}

func (f *fileBlob) Delete(ctx context.Context) error {
	if _, err := f.size("delete"); err != nil {
		return err
	}
	return wrapIO("delete", f.fs.Remove(f.path()))
}

func (f *fileBlob) DeleteIfExists(ctx context.Context) error {
	if err := f.Delete(ctx); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

func (f *fileBlob) Download(ctx context.Context) ([]byte, error) {
	size, err := f.size("download")
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	return f.GetPages(ctx, 0, int(size)/f.pageSize)
}

func (f *fileBlob) GetProperties(ctx context.Context) (*Properties, error) {
	size, err := f.size("get properties")
	if err != nil {
		return nil, err
	}
	return &Properties{Size: size}, nil
}

func newDisk(endpoint, container, blob string, pageSize int) (PageBlob, error) {
	if err := checkNames("open", container, blob); err != nil {
		return nil, err
	}
	root := strings.TrimPrefix(endpoint, "file://")
	if root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs of %s: %s", endpoint, err)
	}
	return &fileBlob{fs: localFS{}, scheme: "file", root: root, container: container, name: blob, pageSize: pageSize}, nil
}

func init() {
	Register("file", newDisk)
}
