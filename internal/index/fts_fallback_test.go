//go:build !sqlite_fts5

package index

import "testing"

func TestLikeSearchTreatsWildcardsLiterally(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{ID: "d/A", DateBucket: "d", Serial: "A", Summary: "disk at 100% on db1", Checksum: "1"}, "")
	_ = db.UpsertCase(CaseRow{ID: "d/B", DateBucket: "d", Serial: "B", Summary: "disk at 1000 iops", Checksum: "2"}, "")
	_ = db.UpsertCase(CaseRow{ID: "d/C", DateBucket: "d", Serial: "C", Summary: "rename host_a", Checksum: "3"}, "")
	_ = db.UpsertCase(CaseRow{ID: "d/D", DateBucket: "d", Serial: "D", Summary: "rename hostXa", Checksum: "4"}, "")

	tests := map[string]string{
		"100%":   "d/A",
		"host_a": "d/C",
	}
	for query, want := range tests {
		results, err := db.Search(query, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", query, err)
		}
		if len(results) != 1 || results[0].ID != want {
			t.Errorf("Search(%q) = %+v, want only %s", query, results, want)
		}
	}
}
