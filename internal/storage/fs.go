package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/casefile/internal/apperr"
)

// readDirBatch bounds how many entries Subdirs holds in memory at once.
const readDirBatch = 64

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the case store base
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory may not exist yet; if it does it must be a directory.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("storage: stat root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute base path.
func (f *FS) Root() string { return f.root }

// Abs resolves path against the base without validating it.
func (f *FS) Abs(path string) string {
	return filepath.Join(f.root, filepath.Clean(path))
}

// safePath resolves a relative path against the base and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes case store base: %s", rel)
	}
	return abs, nil
}

// Exists reports whether anything exists at path.
func (f *FS) Exists(path string) bool {
	abs, err := f.safePath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// IsDir reports whether path is a directory.
func (f *FS) IsDir(path string) bool {
	abs, err := f.safePath(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.IsDir()
}

// EnsureDir creates path with any missing parents.
func (f *FS) EnsureDir(path string) (bool, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return false, err
	}
	if info, err := os.Stat(abs); err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("storage: not a directory: %s", abs)
		}
		return false, nil
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return false, fmt.Errorf("storage: mkdir: %w", err)
	}
	return true, nil
}

// Mkdir creates a single directory. An existing entry is an error.
func (f *FS) Mkdir(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Mkdir(abs, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperr.Path("mkdir", abs, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	return nil
}

// Subdirs yields subdirectory names of path in enumeration order. Entries
// are read in batches so large stores are never listed in one go. Each
// call starts a fresh enumeration.
func (f *FS) Subdirs(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		abs, err := f.safePath(path)
		if err != nil {
			yield("", err)
			return
		}
		dir, err := os.Open(abs)
		if err != nil {
			yield("", fmt.Errorf("storage: open dir: %w", err))
			return
		}
		defer dir.Close()

		for {
			entries, err := dir.ReadDir(readDirBatch)
			for _, e := range entries {
				if !isDirEntry(abs, e) {
					continue
				}
				if !yield(e.Name(), nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("storage: read dir: %w", err))
				return
			}
		}
	}
}

// isDirEntry follows symlinks so linked directories count as directories.
func isDirEntry(parent string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

// Create writes content to a file that must not already exist.
func (f *FS) Create(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperr.Path("create", abs, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", path, err)
	}
	return nil
}

// Append adds content to the end of an existing file.
func (f *FS) Append(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", path, err)
	}
	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		return fmt.Errorf("storage: append %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", path, err)
	}
	return nil
}

// Open opens the file at path for reading.
func (f *FS) Open(path string) (io.ReadCloser, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return file, nil
}

// Read returns the raw bytes of a file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}
