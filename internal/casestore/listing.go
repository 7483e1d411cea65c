package casestore

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/starford/casefile/internal/models"
)

// FindCases lazily yields every case directory as base/<bucket>/<serial>.
// Plain files at either level are skipped. Order follows directory
// enumeration and is not sorted. The sequence can be ranged over repeatedly.
func (s *Store) FindCases() iter.Seq2[models.CaseRef, error] {
	return func(yield func(models.CaseRef, error) bool) {
		if !s.fs.IsDir("") {
			return
		}
		for bucket, err := range s.fs.Subdirs("") {
			if err != nil {
				yield(models.CaseRef{}, err)
				return
			}
			for serial, err := range s.fs.Subdirs(bucket) {
				if err != nil {
					if !yield(models.CaseRef{}, err) {
						return
					}
					break
				}
				if !yield(models.CaseRef{DateBucket: bucket, Serial: serial}, nil) {
					return
				}
			}
		}
	}
}

// ListCases pairs every case with its summary. A case whose notes cannot be
// read is yielded with its ref and the error, and listing carries on; the
// caller decides whether to skip or stop.
func (s *Store) ListCases() iter.Seq2[models.CaseSummary, error] {
	return func(yield func(models.CaseSummary, error) bool) {
		for ref, err := range s.FindCases() {
			if err != nil {
				if !yield(models.CaseSummary{}, err) {
					return
				}
				continue
			}
			summary, err := s.Summary(ref)
			if !yield(models.CaseSummary{Ref: ref, Summary: summary}, err) {
				return
			}
		}
	}
}

// ListOptions selects the listing shape.
type ListOptions struct {
	Grepable   bool // one line per case instead of two
	Sort       bool // order by date bucket, then serial
	SkipBroken bool // skip cases without readable notes instead of stopping
}

// Collect gathers ListCases into a slice under opts.
func (s *Store) Collect(opts ListOptions) ([]models.CaseSummary, error) {
	var out []models.CaseSummary
	err := s.each(opts, func(c models.CaseSummary) error {
		out = append(out, c)
		return nil
	})
	return out, err
}

// PrintListing writes every case to w.
func (s *Store) PrintListing(w io.Writer, opts ListOptions) error {
	return s.each(opts, func(c models.CaseSummary) error {
		_, err := io.WriteString(w, FormatEntry(c, opts.Grepable))
		return err
	})
}

// FormatEntry renders one listing entry.
func FormatEntry(c models.CaseSummary, grepable bool) string {
	if grepable {
		return fmt.Sprintf("%s: %s\n", c.Ref, c.Summary)
	}
	return fmt.Sprintf("%s:\n\t%s\n", c.Ref, c.Summary)
}

func (s *Store) each(opts ListOptions, fn func(models.CaseSummary) error) error {
	emit := fn
	var sorted []models.CaseSummary
	if opts.Sort {
		emit = func(c models.CaseSummary) error {
			sorted = append(sorted, c)
			return nil
		}
	}
	for c, err := range s.ListCases() {
		if err != nil {
			if opts.SkipBroken {
				s.logger.Warn("skipping unreadable case", slog.String("error", err.Error()))
				continue
			}
			return err
		}
		if err := emit(c); err != nil {
			return err
		}
	}
	if !opts.Sort {
		return nil
	}
	slices.SortFunc(sorted, func(a, b models.CaseSummary) int { return a.Ref.Compare(b.Ref) })
	for _, c := range sorted {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
