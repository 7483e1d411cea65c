package index

import (
	"iter"

	"github.com/starford/casefile/internal/models"
)

// CaseIndex is the searchable mirror of the case store. *DB implements it;
// Sync, Watch and the case service only depend on this interface.
type CaseIndex interface {
	UpsertCase(c CaseRow, body string) error
	DeleteCase(id string) error
	GetChecksum(id string) (string, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies CaseIndex at compile time.
var _ CaseIndex = (*DB)(nil)

// Source is the case store the index is built from. The file system stays
// authoritative; the index only mirrors it for search.
type Source interface {
	FindCases() iter.Seq2[models.CaseRef, error]
	Load(ref models.CaseRef) (models.Case, error)
	NotesFile() string
}
