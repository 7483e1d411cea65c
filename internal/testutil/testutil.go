// Package testutil provides shared test helpers for setting up case stores and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/casefile/internal/casestore"
	"github.com/starford/casefile/internal/index"
	"github.com/starford/casefile/internal/storage"
)

// Day is the fixed "today" used by TestStore.
var Day = time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)

// Clock is a settable casestore.Clock.
type Clock struct{ T time.Time }

// Now returns the configured instant.
func (c *Clock) Now() time.Time { return c.T }

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "casefile-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a case store under a fresh temporary base directory
// with series A..C, one "raw" resource directory and its clock fixed at Day.
// The base itself does not exist until the first case is opened.
func TestStore(t *testing.T, opts ...casestore.Option) (string, *casestore.Store) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "cases")
	fs, err := storage.NewFS(base)
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]casestore.Option{casestore.WithClock(&Clock{T: Day})}, opts...)
	return base, casestore.New(fs, casestore.Layout{
		Series:      []string{"A", "B", "C"},
		Directories: []string{"raw"},
		DateFormat:  "%Y-%m-%d",
		NotesFile:   "notes.md",
	}, opts...)
}
