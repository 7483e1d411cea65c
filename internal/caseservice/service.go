// Package caseservice coordinates the case store with the search index for
// the long-running front ends (HTTP API and MCP server).
package caseservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/casefile/internal/casestore"
	"github.com/starford/casefile/internal/checksum"
	"github.com/starford/casefile/internal/index"
	"github.com/starford/casefile/internal/models"
)

// CaseDetail is the full representation of a case.
type CaseDetail struct {
	ID       string         `json:"id"`
	Ref      models.CaseRef `json:"ref"`
	Opened   string         `json:"opened,omitempty"`
	Summary  string         `json:"summary"`
	Body     string         `json:"body"`
	Checksum string         `json:"checksum"`
}

// CaseListItem is a lightweight item in a list response.
type CaseListItem struct {
	ID      string         `json:"id"`
	Ref     models.CaseRef `json:"ref"`
	Summary string         `json:"summary"`
}

// Service coordinates case store and index operations.
type Service struct {
	cases       *casestore.Store
	db          index.CaseIndex
	logger      *slog.Logger
	searchLimit int
}

// NewService creates a new case service. db may be nil, which disables search.
func NewService(cases *casestore.Store, db index.CaseIndex, logger *slog.Logger, searchLimit int) *Service {
	return &Service{cases: cases, db: db, logger: logger, searchLimit: searchLimit}
}

// GetCase loads a case by ref.
func (s *Service) GetCase(_ context.Context, ref models.CaseRef) (*CaseDetail, error) {
	c, err := s.cases.Load(ref)
	if err != nil {
		return nil, err
	}
	return buildCaseDetail(c), nil
}

// CreateCase opens a new case and indexes it. An empty date means today;
// otherwise it is parsed as a date override.
func (s *Service) CreateCase(ctx context.Context, summary, date string) (*CaseDetail, error) {
	var day time.Time
	if date != "" {
		d, err := s.cases.ParseDay(date)
		if err != nil {
			return nil, err
		}
		day = d
	}
	ref, err := s.cases.Create(ctx, summary, day)
	if err != nil {
		return nil, err
	}
	s.reindex(ref)
	return s.GetCase(ctx, ref)
}

// LogCase appends a note to a case and re-indexes it.
func (s *Service) LogCase(ctx context.Context, ref models.CaseRef, note string) (*CaseDetail, error) {
	if err := s.cases.Log(ref, note); err != nil {
		return nil, err
	}
	s.reindex(ref)
	return s.GetCase(ctx, ref)
}

// ListCases returns every readable case, optionally sorted. Cases without
// notes are skipped.
func (s *Service) ListCases(_ context.Context, sorted bool) ([]CaseListItem, error) {
	all, err := s.cases.Collect(casestore.ListOptions{Sort: sorted, SkipBroken: true})
	if err != nil {
		return nil, err
	}
	items := make([]CaseListItem, len(all))
	for i, c := range all {
		items[i] = CaseListItem{ID: c.Ref.String(), Ref: c.Ref, Summary: c.Summary}
	}
	return items, nil
}

// LatestCase returns the most recently allocated case.
func (s *Service) LatestCase(ctx context.Context) (*CaseDetail, error) {
	ref, err := s.cases.Latest(s.searchLimit)
	if err != nil {
		return nil, err
	}
	return s.GetCase(ctx, ref)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return []index.SearchResult{}, nil
	}
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

// reindex refreshes one case in the index. The watcher would catch the
// change too; doing it inline makes it visible to the very next search.
func (s *Service) reindex(ref models.CaseRef) {
	if s.db == nil {
		return
	}
	if err := index.IndexCase(s.db, s.cases, ref); err != nil {
		s.logger.Warn("index case failed", slog.String("case", ref.String()), slog.String("error", err.Error()))
	}
}

func buildCaseDetail(c models.Case) *CaseDetail {
	return &CaseDetail{
		ID:       c.Ref.String(),
		Ref:      c.Ref,
		Opened:   c.Opened,
		Summary:  c.Summary,
		Body:     c.Body,
		Checksum: checksum.Case(c),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
