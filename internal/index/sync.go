package index

import (
	"log/slog"
	"time"

	"github.com/starford/casefile/internal/checksum"
	"github.com/starford/casefile/internal/models"
)

// Sync walks the case store and brings the index up to date:
//   - new/changed cases are upserted
//   - cases no longer readable on disk are deleted from the index
func Sync(db CaseIndex, src Source, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{})
	for ref, err := range src.FindCases() {
		if err != nil {
			return err
		}
		c, err := src.Load(ref)
		if err != nil {
			logger.Warn("sync: load failed", slog.String("case", ref.String()), slog.String("error", err.Error()))
			continue
		}
		id := ref.String()
		disk[id] = struct{}{}

		cs := checksum.Case(c)
		if checksums[id] == cs {
			continue
		}
		if err := upsert(db, c, cs); err != nil {
			logger.Warn("sync: index failed", slog.String("case", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("case", id))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteCase(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("case", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("case", id))
			}
		}
	}

	return nil
}

// IndexCase loads one case from src and upserts it.
func IndexCase(db CaseIndex, src Source, ref models.CaseRef) error {
	c, err := src.Load(ref)
	if err != nil {
		return err
	}
	return upsert(db, c, checksum.Case(c))
}

func upsert(db CaseIndex, c models.Case, cs string) error {
	return db.UpsertCase(CaseRow{
		ID:         c.Ref.String(),
		DateBucket: c.Ref.DateBucket,
		Serial:     c.Ref.Serial,
		Summary:    c.Summary,
		Checksum:   cs,
		UpdatedAt:  time.Now(),
	}, c.Body)
}
