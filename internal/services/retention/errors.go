package retention

import (
	"fmt"
	"strings"
)

// DeletionError aborts a forced sweep. Deleted lists the archives removed before the failure.
type DeletionError struct {
	Deleted []string
	Err     error
}

func (e *DeletionError) Error() string {
	if len(e.Deleted) == 0 {
		return fmt.Sprintf("retention sweep aborted, nothing deleted: %v", e.Err)
	}
	return fmt.Sprintf("retention sweep aborted after deleting %s: %v", strings.Join(e.Deleted, ", "), e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }
