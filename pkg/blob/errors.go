// pkg/blob/errors.go

package blob

import (
	"fmt"

	"github.com/pkg/errors"
)

// RangeError is returned for requests outside of the blob, without any remote call.
type RangeError struct {
	Op     string
	Offset int
	Length int
	Size   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s [%d, %d) is out of blob of %d bytes", e.Op, e.Offset, e.Offset+e.Length, e.Size)
}

func IsRangeError(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}
