package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by updates and deletes that match no row. Reads
// report absence as a nil result instead.
var ErrNotFound = errors.New("record not found")

// WriteError wraps a constraint violation or other storage failure on insert
// or update.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write failed during %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
