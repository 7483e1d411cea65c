package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/casefile/internal/casestore"
	"github.com/starford/casefile/internal/models"
	"github.com/starford/casefile/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "casefile-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCases(t *testing.T) (string, *casestore.Store) {
	t.Helper()
	base := t.TempDir()
	fs, err := storage.NewFS(base)
	if err != nil {
		t.Fatal(err)
	}
	return base, casestore.New(fs, casestore.Layout{
		Series:      []string{"A", "B", "C"},
		Directories: []string{"raw"},
		DateFormat:  "%Y-%m-%d",
		NotesFile:   "notes.md",
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var day = time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM cases`).Scan(&count); err != nil {
		t.Fatalf("cases table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := CaseRow{
		ID:         "2024-01-01/A",
		DateBucket: "2024-01-01",
		Serial:     "A",
		Summary:    "disk full",
		Checksum:   "abc123",
	}
	if err := db.UpsertCase(row, "## 09:00:00: cleared tmp\n"); err != nil {
		t.Fatalf("UpsertCase: %v", err)
	}
	cs, err := db.GetChecksum("2024-01-01/A")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}

	row.Checksum = "def456"
	if err := db.UpsertCase(row, "changed"); err != nil {
		t.Fatalf("second UpsertCase: %v", err)
	}
	all, _ := db.AllChecksums()
	if len(all) != 1 || all["2024-01-01/A"] != "def456" {
		t.Errorf("AllChecksums = %v", all)
	}
}

func TestDeleteCase(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{ID: "x/A", DateBucket: "x", Serial: "A", Checksum: "1"}, "")
	if err := db.DeleteCase("x/A"); err != nil {
		t.Fatalf("DeleteCase: %v", err)
	}
	if cs, _ := db.GetChecksum("x/A"); cs != "" {
		t.Error("case still indexed")
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{ID: "d/A", DateBucket: "d", Serial: "A", Summary: "printer on fire", Checksum: "1"}, "")
	_ = db.UpsertCase(CaseRow{ID: "d/B", DateBucket: "d", Serial: "B", Summary: "vpn down", Checksum: "2"}, "## 10:00:00: restarted concentrator\n")

	results, err := db.Search("concentrator", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "d/B" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Summary != "vpn down" {
		t.Errorf("summary = %q", results[0].Summary)
	}
}

func TestSyncIndexesAndRemovesStale(t *testing.T) {
	db := testDB(t)
	base, cases := testCases(t)
	ctx := context.Background()
	a, _ := cases.Create(ctx, "printer on fire", day)
	b, _ := cases.Create(ctx, "vpn down", day)
	_ = cases.Log(b, "restarted concentrator")
	// A case without notes is skipped, not fatal.
	_ = os.MkdirAll(filepath.Join(base, "2024-01-01", "C"), 0o755)
	_ = db.UpsertCase(CaseRow{ID: "1999-01-01/A", DateBucket: "1999-01-01", Serial: "A", Checksum: "old"}, "")

	if err := Sync(db, cases, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	all, _ := db.AllChecksums()
	if len(all) != 2 {
		t.Fatalf("indexed = %v, want 2 cases", all)
	}
	if _, ok := all[a.String()]; !ok {
		t.Errorf("%s not indexed", a)
	}
	if _, ok := all["1999-01-01/A"]; ok {
		t.Error("stale case not removed")
	}

	results, _ := db.Search("concentrator", 5)
	if len(results) != 1 || results[0].ID != b.String() {
		t.Errorf("results = %+v", results)
	}
}

func TestSyncSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	_, cases := testCases(t)
	ref, _ := cases.Create(context.Background(), "steady", day)
	_ = Sync(db, cases, quietLogger())
	before, _ := db.GetChecksum(ref.String())

	_ = Sync(db, cases, quietLogger())
	after, _ := db.GetChecksum(ref.String())
	if before == "" || before != after {
		t.Errorf("checksum changed without edits: %q -> %q", before, after)
	}

	_ = cases.Log(ref, "new entry")
	_ = Sync(db, cases, quietLogger())
	if cs, _ := db.GetChecksum(ref.String()); cs == before {
		t.Error("checksum not updated after log")
	}
}

func TestIndexCase(t *testing.T) {
	db := testDB(t)
	_, cases := testCases(t)
	ref, _ := cases.Create(context.Background(), "single", day)
	if err := IndexCase(db, cases, ref); err != nil {
		t.Fatalf("IndexCase: %v", err)
	}
	if cs, _ := db.GetChecksum(ref.String()); cs == "" {
		t.Error("case not indexed")
	}
	if err := IndexCase(db, cases, models.CaseRef{DateBucket: "2024-01-01", Serial: "Z"}); err == nil {
		t.Error("expected error for missing case")
	}
}

func TestNotesRef(t *testing.T) {
	root := filepath.FromSlash("/cases")
	tests := []struct {
		path string
		ok   bool
	}{
		{"/cases/2024-01-01/A/notes.md", true},
		{"/cases/2024-01-01/A/raw/notes.md", false},
		{"/cases/2024-01-01/notes.md", false},
		{"/cases/2024-01-01/A/other.md", false},
	}
	for _, tt := range tests {
		ref, ok := notesRef(root, filepath.FromSlash(tt.path), "notes.md")
		if ok != tt.ok {
			t.Errorf("notesRef(%q) ok = %v, want %v", tt.path, ok, tt.ok)
		}
		if ok && ref.String() != "2024-01-01/A" {
			t.Errorf("notesRef(%q) = %v", tt.path, ref)
		}
	}
}

// memIndex is an in-memory CaseIndex that counts writes.
type memIndex struct {
	rows    map[string]CaseRow
	upserts int
}

func (m *memIndex) UpsertCase(c CaseRow, _ string) error {
	m.rows[c.ID] = c
	m.upserts++
	return nil
}

func (m *memIndex) DeleteCase(id string) error {
	delete(m.rows, id)
	return nil
}

func (m *memIndex) GetChecksum(id string) (string, error) { return m.rows[id].Checksum, nil }

func (m *memIndex) Search(string, int) ([]SearchResult, error) { return nil, nil }

func (m *memIndex) AllChecksums() (map[string]string, error) {
	out := make(map[string]string, len(m.rows))
	for id, r := range m.rows {
		out[id] = r.Checksum
	}
	return out, nil
}

func (m *memIndex) Close() error { return nil }

func TestSyncAgainstCaseIndex(t *testing.T) {
	_, cases := testCases(t)
	ref, err := cases.Create(context.Background(), "printer on fire", day)
	if err != nil {
		t.Fatal(err)
	}
	idx := &memIndex{rows: map[string]CaseRow{"1999-01-01/A": {ID: "1999-01-01/A"}}}

	if err := Sync(idx, cases, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(idx.rows) != 1 || idx.rows[ref.String()].Summary != "printer on fire" {
		t.Fatalf("rows = %+v", idx.rows)
	}
	if err := Sync(idx, cases, quietLogger()); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if idx.upserts != 1 {
		t.Errorf("upserts = %d, want 1", idx.upserts)
	}

	_ = cases.Log(ref, "called facilities")
	if err := IndexCase(idx, cases, ref); err != nil {
		t.Fatalf("IndexCase: %v", err)
	}
	if idx.upserts != 2 {
		t.Errorf("upserts = %d, want 2", idx.upserts)
	}
}
