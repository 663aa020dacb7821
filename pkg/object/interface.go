// pkg/object/interface.go

package object

import (
	"context"
	"fmt"
	"regexp"

	"AveBlob/pkg/utils"
)

var logger = utils.GetLogger("aveblob")

// Properties of a remote blob.
type Properties struct {
	Size int64
}

// PageBlob is a remote blob that is only read and written in whole pages.
type PageBlob interface {
	String() string
	PageSize() int
	CreateContainerIfNotExists(ctx context.Context) error
	// Create creates an empty blob of pages, it fails if the blob exists.
	Create(ctx context.Context, pages int) error
	// CreateIfNotExists returns the actual number of pages of the blob.
	CreateIfNotExists(ctx context.Context, pages int) (int, error)
	Resize(ctx context.Context, pages int) error
	// GetPages returns exactly pages*PageSize() bytes.
	GetPages(ctx context.Context, startPage, pages int) ([]byte, error)
	// SavePages writes data, whose length is a multiple of PageSize(), at startPage.
	SavePages(ctx context.Context, startPage int, data []byte) error
	Delete(ctx context.Context) error
	DeleteIfExists(ctx context.Context) error
	Download(ctx context.Context) ([]byte, error)
	GetProperties(ctx context.Context) (*Properties, error)
}

type Creator func(endpoint, container, blob string, pageSize int) (PageBlob, error)

var storages = make(map[string]Creator)

func Register(name string, register Creator) {
	storages[name] = register
}

// CreateStorage opens the blob `blob` inside `container` of the storage `name`.
func CreateStorage(name, endpoint, container, blob string, pageSize int) (PageBlob, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("invalid page size: %d", pageSize)
	}
	if pageSize%512 != 0 {
		logger.Warnf("page size %d is not a multiple of 512", pageSize)
	}
	f, ok := storages[name]
	if ok {
		logger.Debugf("Creating %s storage at endpoint %s", name, endpoint)
		return f(endpoint, container, blob, pageSize)
	}
	return nil, fmt.Errorf("invalid storage: %s", name)
}

// Storages lists the registered storage names.
func Storages() []string {
	var names []string
	for name := range storages {
		names = append(names, name)
	}
	return names
}

var validContainer = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,61}[a-z0-9]$`)
var validBlob = regexp.MustCompile(`^[^/\\\x00]+$`)

const maxBlobName = 1024

func checkNames(op, container, blob string) error {
	if !validContainer.MatchString(container) {
		return newError(InvalidResourceName, op, "invalid container name %q", container)
	}
	if len(blob) > maxBlobName || !validBlob.MatchString(blob) || blob == "." || blob == ".." {
		return newError(InvalidResourceName, op, "invalid blob name %q", blob)
	}
	return nil
}

func checkPages(op string, data []byte, pageSize int) error {
	if len(data) == 0 || len(data)%pageSize != 0 {
		return newError(InvalidPageRange, op, "payload of %d bytes is not a multiple of page size %d", len(data), pageSize)
	}
	return nil
}
