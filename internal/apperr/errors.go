// Package apperr defines the error kinds shared by the case store and its callers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrIncompleteCase  = errors.New("incomplete case: a summary is required")
	ErrSeriesExhausted = errors.New("case series exhausted")
	ErrSearchExhausted = errors.New("no case found within search limit")
	ErrNotLoggable     = errors.New("case has no notes file")
	ErrInvalidRef      = errors.New("invalid case reference")
	ErrInterrupted     = errors.New("interrupted")
)

// PathError records the path an operation failed on alongside its error kind.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

// Path wraps kind with the operation and path that produced it.
func Path(op, path string, kind error) error {
	return &PathError{Op: op, Path: path, Err: kind}
}
