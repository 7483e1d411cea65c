package index

import (
	"fmt"
	"time"
)

// CaseRow represents a row in the cases table.
type CaseRow struct {
	ID         string
	DateBucket string
	Serial     string
	Summary    string
	Checksum   string
	UpdatedAt  time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Snippet string `json:"snippet"`
}

// UpsertCase inserts or replaces a case and its FTS entry within a transaction.
func (db *DB) UpsertCase(c CaseRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO cases (id, date_bucket, serial, summary, body, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			summary    = excluded.summary,
			body       = excluded.body,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, c.ID, c.DateBucket, c.Serial, c.Summary, body, c.Checksum, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert case: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, c.ID, c.Summary, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteCase removes a case and its FTS entry.
func (db *DB) DeleteCase(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	if _, err := tx.Exec(`DELETE FROM cases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete case: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a case, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM cases WHERE id = ?`, id).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed case keyed by id.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM cases`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}
