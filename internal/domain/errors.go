// Package domain holds error types shared by the catalog, cart and order
// packages.
package domain

import (
	"github.com/go-faster/errors"
)

// ErrStoreUnavailable is returned by repositories when no backing store is
// configured or the store cannot be reached.
var ErrStoreUnavailable = errors.New("database not available")

// StoreOperationError reports a failed store call on the cart or order path.
// The HTTP layer renders it as a soft {"error": ...} payload with status 200.
type StoreOperationError struct {
	Op  string
	Err error
}

func (e *StoreOperationError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreOperationError) Unwrap() error {
	return e.Err
}

// StoreFailed wraps err into a *StoreOperationError for operation op.
// It returns nil if err is nil.
func StoreFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreOperationError{Op: op, Err: err}
}
