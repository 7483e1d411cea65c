// Package storage defines the case store file-system abstraction.
package storage

import (
	"io"
	"iter"
)

// Provider is the interface for case store file operations. All paths are
// relative to the store base; "" names the base itself.
type Provider interface {
	// Root returns the absolute base path.
	Root() string
	// Abs resolves path against the base.
	Abs(path string) string
	// Exists reports whether anything exists at path.
	Exists(path string) bool
	// IsDir reports whether path is a directory (following symlinks).
	IsDir(path string) bool
	// EnsureDir creates path and any parents, reporting whether it had to.
	EnsureDir(path string) (bool, error)
	// Mkdir creates exactly one directory and fails with apperr.ErrAlreadyExists if it is present.
	Mkdir(path string) error
	// Subdirs lazily yields the names of the immediate subdirectories of path.
	Subdirs(path string) iter.Seq2[string, error]
	// Create writes content to a new file and fails with apperr.ErrAlreadyExists if it is present.
	Create(path string, content []byte) error
	// Append appends content to an existing file.
	Append(path string, content []byte) error
	// Open opens the file at path for reading.
	Open(path string) (io.ReadCloser, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
}
