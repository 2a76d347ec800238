package tasklist

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrNotFound is returned when a mutation names an id that is no longer
// in the list.
var ErrNotFound = errors.New("task not found")

// ErrDuplicateID is returned by Add when the list already holds the id.
var ErrDuplicateID = errors.New("task id already in list")

type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load tasks: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Missing reports whether the load failed only because nothing was saved yet.
func (e *LoadError) Missing() bool {
	return errors.Is(e.Err, fs.ErrNotExist)
}

// WriteError means the in-memory list changed but could not be persisted.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("save tasks: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
