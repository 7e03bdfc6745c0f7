package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	ErrStorage     = errors.New("storage error")
	ErrUnavailable = errors.New("storage unavailable")
	ErrClosed      = errors.New("store closed")
)

// StorageError reports a failed durable store operation.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

// NewStorageError wraps err for the given backend operation. nil stays nil.
func NewStorageError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Backend: backend, Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches ErrStorage for every StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
