package store

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no chat record matches the requested id.
	ErrNotFound = errors.New("chat record not found")

	// ErrStorage matches every failure of the underlying database.
	ErrStorage = errors.New("storage error")
)

// OpError records the store operation that failed and the driver error.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == ErrStorage }

func opError(op string, err error) error {
	return &OpError{Op: op, Err: err}
}
