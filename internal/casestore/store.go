// Package casestore allocates, locates, lists and annotates case directories.
//
// The file system is the only state: a case exists iff its directory exists
// and is open iff its notes file exists. Nothing is locked; concurrent
// allocations race on directory creation and the loser gets
// apperr.ErrAlreadyExists.
package casestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/casefile/internal/apperr"
	"github.com/starford/casefile/internal/datefmt"
	"github.com/starford/casefile/internal/models"
	"github.com/starford/casefile/internal/notes"
	"github.com/starford/casefile/internal/storage"
)

// DefaultSearchLimit is how many days Latest walks back by default.
const DefaultSearchLimit = 100

// Layout describes how cases are laid out beneath the base directory.
type Layout struct {
	Series      []string // serial labels in allocation order
	Directories []string // resource subdirectories created with each case
	DateFormat  string   // strftime pattern for date buckets
	NotesFile   string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Prompter asks the user for a line of text.
type Prompter interface {
	Prompt(ctx context.Context, title string) (string, error)
}

// Store is the case store.
type Store struct {
	fs       storage.Provider
	layout   Layout
	clock    Clock
	prompter Prompter
	logger   *slog.Logger
	notices  io.Writer
	verbose  bool
	dates    *datefmt.Parser
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithPrompter enables interactive summary entry.
func WithPrompter(p Prompter) Option {
	return func(s *Store) { s.prompter = p }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithNotices sets where user facing notices are printed.
func WithNotices(w io.Writer) Option {
	return func(s *Store) { s.notices = w }
}

// WithVerbose also announces each resource directory as it is created.
func WithVerbose(v bool) Option {
	return func(s *Store) { s.verbose = v }
}

// New creates a case store over provider.
func New(provider storage.Provider, layout Layout, opts ...Option) *Store {
	s := &Store{
		fs:      provider,
		layout:  layout,
		clock:   systemClock{},
		logger:  slog.New(slog.DiscardHandler),
		notices: io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dates = datefmt.NewParser(layout.DateFormat)
	return s
}

// Base returns the absolute base directory.
func (s *Store) Base() string { return s.fs.Root() }

// NotesFile returns the configured notes file name.
func (s *Store) NotesFile() string { return s.layout.NotesFile }

// Bucket formats a day into its date bucket name.
func (s *Store) Bucket(day time.Time) string {
	return datefmt.Bucket(s.layout.DateFormat, day)
}

// ParseDay resolves a date override relative to the store's clock.
func (s *Store) ParseDay(text string) (time.Time, error) {
	return s.dates.Parse(text, s.clock.Now())
}

// EnsureBase creates the base directory, announcing it when it was missing.
func (s *Store) EnsureBase() error {
	created, err := s.fs.EnsureDir("")
	if err != nil {
		return fmt.Errorf("create base: %w", err)
	}
	if created {
		s.logger.Info("case store base created", slog.String("base", s.Base()))
		fmt.Fprintf(s.notices, "Created CaseFile base at %s\n", s.Base())
	}
	return nil
}

// Exists reports whether the case directory exists.
func (s *Store) Exists(ref models.CaseRef) bool {
	return s.fs.IsDir(ref.Dir())
}

// IsOpen reports whether the case has a notes file and so can be logged to.
func (s *Store) IsOpen(ref models.CaseRef) bool {
	return s.Exists(ref) && s.fs.Exists(s.notesPath(ref))
}

// BucketExists reports whether any case was ever allocated under bucket.
func (s *Store) BucketExists(bucket string) bool {
	return s.fs.IsDir(bucket)
}

func (s *Store) notesPath(ref models.CaseRef) string {
	return filepath.Join(ref.Dir(), s.layout.NotesFile)
}

// Create allocates the next free serial in the bucket for day and lays the
// case out on disk. A zero day means today. An empty summary is asked for
// through the Prompter, if any.
//
// Nothing is rolled back on failure; an interrupted call can leave a case
// directory without notes.
func (s *Store) Create(ctx context.Context, summary string, day time.Time) (models.CaseRef, error) {
	summary, err := s.resolveSummary(ctx, summary)
	if err != nil {
		return models.CaseRef{}, err
	}
	if day.IsZero() {
		day = s.clock.Now()
	}
	bucket := s.Bucket(day)

	if err := s.EnsureBase(); err != nil {
		return models.CaseRef{}, err
	}

	created, err := s.fs.EnsureDir(bucket)
	if err != nil {
		return models.CaseRef{}, fmt.Errorf("create date bucket: %w", err)
	}
	if created {
		s.logger.Info("first case of the day", slog.String("bucket", bucket))
		fmt.Fprintf(s.notices, "First case for today, %s\n\n", bucket)
	}

	ref, err := s.nextRef(bucket)
	if err != nil {
		return models.CaseRef{}, err
	}
	if err := s.fs.Mkdir(ref.Dir()); err != nil {
		return models.CaseRef{}, err
	}
	for _, dir := range s.layout.Directories {
		rel := filepath.Join(ref.Dir(), dir)
		if err := s.fs.Mkdir(rel); err != nil {
			return ref, fmt.Errorf("create resource directory: %w", err)
		}
		s.logger.Debug("resource directory created", slog.String("path", s.fs.Abs(rel)))
		if s.verbose {
			fmt.Fprintf(s.notices, "Created resource directory %s\n", s.fs.Abs(rel))
		}
	}
	line := notes.SummaryLine(s.clock.Now(), summary)
	if err := s.fs.Create(s.notesPath(ref), []byte(line)); err != nil {
		return ref, fmt.Errorf("write notes: %w", err)
	}

	s.logger.Info("case opened", slog.String("case", ref.String()))
	fmt.Fprintf(s.notices, "Case opened:\n\t%s\n", s.fs.Abs(ref.Dir()))
	return ref, nil
}

// nextRef picks the first serial in the series without a directory.
func (s *Store) nextRef(bucket string) (models.CaseRef, error) {
	for _, serial := range s.layout.Series {
		ref := models.CaseRef{DateBucket: bucket, Serial: serial}
		if !s.fs.Exists(ref.Dir()) {
			return ref, nil
		}
	}
	return models.CaseRef{}, apperr.Path("allocate", s.fs.Abs(bucket),
		fmt.Errorf("%w: all %d serials in use", apperr.ErrSeriesExhausted, len(s.layout.Series)))
}

// resolveSummary asks once for a missing summary. An interrupted prompt is
// asked again a single time.
func (s *Store) resolveSummary(ctx context.Context, summary string) (string, error) {
	if summary = strings.TrimSpace(summary); summary != "" {
		return summary, nil
	}
	if s.prompter == nil {
		return "", apperr.ErrIncompleteCase
	}
	for range 2 {
		text, err := s.prompter.Prompt(ctx, "Case summary")
		if errors.Is(err, apperr.ErrInterrupted) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("prompt summary: %w", err)
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
		break
	}
	return "", apperr.ErrIncompleteCase
}

// Load reads a case's summary and the rest of its notes.
func (s *Store) Load(ref models.CaseRef) (models.Case, error) {
	if !s.Exists(ref) {
		return models.Case{}, apperr.Path("load", s.fs.Abs(s.notesPath(ref)), apperr.ErrNotFound)
	}
	data, err := s.fs.Read(s.notesPath(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Case{}, apperr.Path("load", s.fs.Abs(s.notesPath(ref)), apperr.ErrNotFound)
		}
		return models.Case{}, err
	}
	res := notes.Parse(data)
	return models.Case{Ref: ref, Opened: res.Opened, Summary: res.Summary, Body: res.Body}, nil
}

// Summary reads only the first line of a case's notes.
func (s *Store) Summary(ref models.CaseRef) (string, error) {
	rc, err := s.fs.Open(s.notesPath(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.Path("read summary", s.fs.Abs(s.notesPath(ref)), apperr.ErrNotFound)
		}
		return "", err
	}
	defer rc.Close()
	res, err := notes.ReadSummary(rc)
	if err != nil {
		return "", fmt.Errorf("read summary %s: %w", ref, err)
	}
	return res.Summary, nil
}

// Log appends a time stamped entry to the case notes.
func (s *Store) Log(ref models.CaseRef, note string) error {
	if !s.Exists(ref) {
		return apperr.Path("log", s.fs.Abs(ref.Dir()), apperr.ErrNotFound)
	}
	if !s.IsOpen(ref) {
		return apperr.Path("log", s.fs.Abs(s.notesPath(ref)), apperr.ErrNotLoggable)
	}
	if err := s.fs.Append(s.notesPath(ref), []byte(notes.EntryLine(s.clock.Now(), note))); err != nil {
		return fmt.Errorf("log %s: %w", ref, err)
	}
	s.logger.Debug("case logged", slog.String("case", ref.String()))
	return nil
}

// Latest walks back one day at a time from today, up to limit days, and
// returns the highest serial in the first bucket holding any case. It
// trusts serials to have been allocated in order without gaps.
func (s *Store) Latest(limit int) (models.CaseRef, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	today := s.clock.Now()
	seen := make(map[string]struct{})
	for i := range limit {
		bucket := s.Bucket(today.AddDate(0, 0, -i))
		if _, ok := seen[bucket]; ok {
			continue
		}
		seen[bucket] = struct{}{}
		if !s.BucketExists(bucket) {
			continue
		}
		if ref, ok := s.highestSerial(bucket); ok {
			return ref, nil
		}
	}
	return models.CaseRef{}, fmt.Errorf("%w: searched %d days back from %s",
		apperr.ErrSearchExhausted, limit, s.Bucket(today))
}

func (s *Store) highestSerial(bucket string) (models.CaseRef, bool) {
	for i := len(s.layout.Series) - 1; i >= 0; i-- {
		ref := models.CaseRef{DateBucket: bucket, Serial: s.layout.Series[i]}
		if s.Exists(ref) {
			return ref, true
		}
	}
	return models.CaseRef{}, false
}
