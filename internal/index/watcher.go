package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/casefile/internal/models"
)

// caseDepth is how deep below the base case directories sit (bucket/serial).
const caseDepth = 2

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted"; id is the case id.
type EventCallback func(kind string, id string)

// Watch starts an fsnotify watcher on the case store base, its date buckets
// and case directories, and processes notes file changes until ctx is
// cancelled. It calls cb (if non-nil) after each successful index mutation.
//
// New buckets and cases created at runtime are added to the watch list.
// Removals and renames trigger a debounced Sync that drops stale entries.
func Watch(ctx context.Context, db CaseIndex, src Source, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addCaseDirs(w, root, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer is used to debounce reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(db, src, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addCaseDirs(w, root, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// The notes file may already exist by the time the watch is in place.
					scheduleReconcile()
					continue
				}
			}

			ref, ok := notesRef(root, ev.Name, src.NotesFile())
			if !ok {
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					scheduleReconcile()
				}
				continue
			}
			id := ref.String()

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if idxErr := IndexCase(db, src, ref); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("case", id), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("case", id), slog.String("op", kind))
				if cb != nil {
					cb(kind, id)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if delErr := db.DeleteCase(id); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("case", id), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: deleted", slog.String("case", id))
					if cb != nil {
						cb("deleted", id)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// notesRef maps base/<bucket>/<serial>/<notesFile> to its case ref.
func notesRef(root, path, notesFile string) (models.CaseRef, bool) {
	if filepath.Base(path) != notesFile {
		return models.CaseRef{}, false
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return models.CaseRef{}, false
	}
	ref, err := models.ParseRef(rel)
	if err != nil {
		return models.CaseRef{}, false
	}
	return ref, true
}

// addCaseDirs watches start and every directory beneath it down to case
// level. Resource directories inside cases are left alone.
func addCaseDirs(w *fsnotify.Watcher, root, start string) error {
	return filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}
		if depth > caseDepth {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
