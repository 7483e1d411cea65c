package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/casefile/internal/casestore"
	"github.com/starford/casefile/internal/index"
	"github.com/starford/casefile/internal/jira"
	"github.com/starford/casefile/internal/models"
	"github.com/starford/casefile/internal/storage"
)

var (
	// ErrEmptyNote is returned when a log call has no note text, even after prompting.
	ErrEmptyNote = errors.New("note is empty")
	// ErrJiraDisabled is returned by Promote when no issue tracker is configured.
	ErrJiraDisabled = errors.New("jira is not configured")
)

// App is the wired application shared by every command.
type App struct {
	cfg        *Config
	logger     *slog.Logger
	out        io.Writer
	stdin      io.Reader
	stdout     io.Writer
	prompter   casestore.Prompter
	cases      *casestore.Store
	httpClient *http.Client
	version    string
}

// NewLogger returns the JSON logger used across the application.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// New builds an App from opts. A config is required.
func New(opts ...Option) (*App, error) {
	a := &application{out: os.Stdout, stdin: os.Stdin, stdout: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	logger := a.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, cfg.App.LogLevel)
	}

	fs, err := storage.NewFS(cfg.Casefile.BasePath())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	storeOpts := []casestore.Option{
		casestore.WithLogger(logger),
		casestore.WithNotices(a.out),
		casestore.WithVerbose(cfg.Casefile.Verbose),
	}
	if a.prompter != nil {
		storeOpts = append(storeOpts, casestore.WithPrompter(a.prompter))
	}
	if a.clock != nil {
		storeOpts = append(storeOpts, casestore.WithClock(a.clock))
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		out:        a.out,
		stdin:      a.stdin,
		stdout:     a.stdout,
		prompter:   a.prompter,
		cases:      casestore.New(fs, cfg.Casefile.Layout(), storeOpts...),
		httpClient: a.httpClient,
		version:    a.version,
	}, nil
}

// Cases returns the underlying case store.
func (a *App) Cases() *casestore.Store { return a.cases }

// NewCase opens a case. date, when not empty, overrides today.
func (a *App) NewCase(ctx context.Context, summary, date string) (models.CaseRef, error) {
	var day time.Time
	if date != "" {
		d, err := a.cases.ParseDay(date)
		if err != nil {
			return models.CaseRef{}, err
		}
		day = d
	}
	return a.cases.Create(ctx, summary, day)
}

// Log appends note to the case named by caseText.
func (a *App) Log(ctx context.Context, caseText, note string) (models.CaseRef, error) {
	ref, err := models.ParseRef(caseText)
	if err != nil {
		return models.CaseRef{}, err
	}
	return ref, a.logTo(ctx, ref, note)
}

// LogQuick appends note to the most recent case.
func (a *App) LogQuick(ctx context.Context, note string) (models.CaseRef, error) {
	ref, err := a.Latest()
	if err != nil {
		return models.CaseRef{}, err
	}
	return ref, a.logTo(ctx, ref, note)
}

func (a *App) logTo(ctx context.Context, ref models.CaseRef, note string) error {
	note = strings.TrimSpace(note)
	if note == "" && a.prompter != nil {
		answer, err := a.prompter.Prompt(ctx, "Note for "+ref.String())
		if err != nil {
			return err
		}
		note = strings.TrimSpace(answer)
	}
	if note == "" {
		return ErrEmptyNote
	}
	return a.cases.Log(ref, note)
}

// Latest returns the most recently opened case.
func (a *App) Latest() (models.CaseRef, error) {
	return a.cases.Latest(a.cfg.Casefile.SearchLimit)
}

// Show prints the summary and the log of one case.
func (a *App) Show(caseText string) error {
	ref, err := models.ParseRef(caseText)
	if err != nil {
		return err
	}
	c, err := a.cases.Load(ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", c.Ref, c.Summary)
	if c.Opened != "" {
		fmt.Fprintf(a.out, "opened %s\n", c.Opened)
	}
	if c.Body != "" {
		fmt.Fprintf(a.out, "\n%s", c.Body)
	}
	return nil
}

// List prints every case.
func (a *App) List(opts casestore.ListOptions) error {
	return a.cases.PrintListing(a.out, opts)
}

// Promote files the case as a Jira issue and prints its key and URL.
func (a *App) Promote(ctx context.Context, caseText string) (*jira.Issue, error) {
	if !a.cfg.Jira.Enabled() {
		return nil, ErrJiraDisabled
	}
	ref, err := models.ParseRef(caseText)
	if err != nil {
		return nil, err
	}
	c, err := a.cases.Load(ref)
	if err != nil {
		return nil, err
	}
	client := jira.NewClient(a.cfg.Jira.ClientConfig(), a.httpClient)
	issue, err := client.Post(ctx, jira.PrepareTicket(c))
	if err != nil {
		return nil, err
	}
	a.logger.Info("case promoted", slog.String("case", ref.String()), slog.String("issue", issue.Key))
	fmt.Fprintf(a.out, "Created %s: %s\n", issue.Key, issue.URL)
	return issue, nil
}

// Search brings the index up to date with the case store, then prints hits
// for query.
func (a *App) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := a.cases.Base()
	if a.cfg.Index.Path == "" {
		if _, err := os.Stat(base); errors.Is(err, os.ErrNotExist) {
			return []index.SearchResult{}, nil
		}
	}
	db, err := a.openIndex()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := index.Sync(db, a.cases, a.logger); err != nil {
		return nil, fmt.Errorf("sync index: %w", err)
	}
	results, err := db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		fmt.Fprintf(a.out, "%s: %s\n", r.ID, r.Summary)
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	return results, nil
}

func (a *App) openIndex() (*index.DB, error) {
	path := a.cfg.Index.ResolvePath(a.cases.Base())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	return db, nil
}
