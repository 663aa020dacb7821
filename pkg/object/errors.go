// pkg/object/errors.go

package object

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/pkg/errors"
)

// Kind classifies a failure of a remote call.
type Kind int

const (
	Unknown Kind = iota
	ContainerNotFound
	BlobNotFound
	ContainerAlreadyExists
	BlobAlreadyExists
	ContainerBeingDeleted
	InvalidPageRange
	RequestBodyTooLarge
	InvalidResourceName
	IO
	Transport
	Timeout
)

var kindNames = map[Kind]string{
	Unknown:                "Unknown",
	ContainerNotFound:      "ContainerNotFound",
	BlobNotFound:           "BlobNotFound",
	ContainerAlreadyExists: "ContainerAlreadyExists",
	BlobAlreadyExists:      "BlobAlreadyExists",
	ContainerBeingDeleted:  "ContainerBeingDeleted",
	InvalidPageRange:       "InvalidPageRange",
	RequestBodyTooLarge:    "RequestBodyTooLarge",
	InvalidResourceName:    "InvalidResourceName",
	IO:                     "IO",
	Transport:              "Transport",
	Timeout:                "Timeout",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// StorageError is returned by every PageBlob implementation.
type StorageError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, format string, args ...interface{}) error {
	return &StorageError{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// NewError wraps err with a kind.
func NewError(kind Kind, op string, err error) error {
	return &StorageError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err. Errors that are not a StorageError are
// classified from the network and io errors they wrap.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return Timeout
		}
		return Transport
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return IO
	}
	return Unknown
}

// IsNotFound reports whether the container or the blob is missing.
func IsNotFound(err error) bool {
	k := KindOf(err)
	return k == ContainerNotFound || k == BlobNotFound
}

// wrapIO converts an os or transport error into a StorageError.
func wrapIO(op string, err error) error {
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
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return NewError(Timeout, op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return NewError(Timeout, op, err)
		}
		return NewError(Transport, op, err)
	}
	return NewError(IO, op, err)
}
