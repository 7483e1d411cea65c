package internal

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/casefile/internal/casestore"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	logger     *slog.Logger
	out        io.Writer
	stdin      io.Reader
	stdout     io.Writer
	prompter   casestore.Prompter
	clock      casestore.Clock
	httpClient *http.Client
	version    string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the structured logger. Defaults to JSON on stderr at the
// configured level.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithOutput sets where command output and notices are written.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithStdio sets the streams the MCP transport reads and writes.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.stdin = in
		a.stdout = out
	}
}

// WithPrompter enables interactive prompting for missing summaries and notes.
func WithPrompter(p casestore.Prompter) Option {
	return func(a *application) {
		a.prompter = p
	}
}

// WithClock replaces the wall clock.
func WithClock(c casestore.Clock) Option {
	return func(a *application) {
		a.clock = c
	}
}

// WithHTTPClient sets the client used to talk to the issue tracker.
func WithHTTPClient(c *http.Client) Option {
	return func(a *application) {
		a.httpClient = c
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
