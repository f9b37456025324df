package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorKind categorizes storage failures.
type ErrorKind string

const (
	// KindBusy indicates lock contention that outlasted the busy timeout.
	KindBusy ErrorKind = "BUSY"

	// KindCorrupt indicates the database file is damaged.
	KindCorrupt ErrorKind = "CORRUPT"

	// KindConstraint indicates a uniqueness or integrity violation.
	KindConstraint ErrorKind = "CONSTRAINT"

	// KindIO indicates any other persistence failure.
	KindIO ErrorKind = "IO"
)

// StorageError represents a local persistence failure.
//
// Storage errors are never fatal to the process: read paths fall back to
// empty results where a sensible default exists, and write paths surface
// the error to the immediate caller who decides retry/ignore.
type StorageError struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Op names the store operation that failed.
	Op string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps a driver error with its operation name and a kind
// derived from the sqlite error code.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Kind: classify(err), Op: op, Err: err}
}

// classify maps sqlite driver errors onto the error taxonomy.
func classify(err error) ErrorKind {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return KindBusy
		case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
			return KindCorrupt
		case sqlite3.ErrConstraint:
			return KindConstraint
		}
	}
	return KindIO
}

// IsConstraint returns true if the error is a constraint violation.
// Uses errors.As to handle wrapped errors.
func IsConstraint(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind == KindConstraint
	}
	return false
}

// IsBusy returns true if the error is a lock-contention failure.
// Uses errors.As to handle wrapped errors.
func IsBusy(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind == KindBusy
	}
	return false
}
