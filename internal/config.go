package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/casefile/internal/casestore"
	"github.com/starford/casefile/internal/datefmt"
	"github.com/starford/casefile/internal/jira"
)

// DefaultSeries is the serial sequence used when none is configured.
const DefaultSeries = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Casefile CasefileConfig    `yaml:"casefile"`
	Index    IndexConfig       `yaml:"index"`
	HTTP     HTTPConfig        `yaml:"http"`
	Jira     JiraConfig        `yaml:"jira"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Casefile.Validate(); err != nil {
		return fmt.Errorf("casefile: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Jira.Validate(); err != nil {
		return fmt.Errorf("jira: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// Series is an ordered list of serial labels. In YAML it is either a list
// or a string: "A,B,C" splits on commas and "ABC" into single characters.
type Series []string

// UnmarshalYAML accepts both the list and the string form.
func (s *Series) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = ParseSeries(node.Value)
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*s = list
	return nil
}

// DirList is a list of directory names; a scalar is split on commas.
type DirList []string

// UnmarshalYAML accepts both a list and a comma separated string.
func (d *DirList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*d = ParseDirList(node.Value)
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*d = list
	return nil
}

// ParseSeries reads the string form of a Series.
func ParseSeries(s string) Series {
	if strings.Contains(s, ",") {
		return splitList(s)
	}
	return splitSeries(strings.TrimSpace(s))
}

// ParseDirList reads the comma separated form of a DirList.
func ParseDirList(s string) DirList {
	return splitList(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CasefileConfig describes the case store.
type CasefileConfig struct {
	Base            string  `yaml:"base"`
	CaseSeries      Series  `yaml:"case_series"`
	CaseDirectories DirList `yaml:"case_directories"`
	DateFmt         string  `yaml:"date_fmt"`
	NotesFile       string  `yaml:"notes_file"`
	Verbose         bool    `yaml:"verbose"`
	SearchLimit     int     `yaml:"search_limit"`
}

// Validate validates the case store configuration.
func (c *CasefileConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Base, validation.Required),
		validation.Field(&c.CaseSeries, validation.Required, validation.Each(validation.Required, validation.By(pathElement))),
		validation.Field(&c.CaseDirectories, validation.Each(validation.Required, validation.By(pathElement))),
		validation.Field(&c.DateFmt, validation.Required, validation.By(dateFormat)),
		validation.Field(&c.NotesFile, validation.Required, validation.By(pathElement)),
		validation.Field(&c.SearchLimit, validation.Min(0)),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.CaseSeries))
	for _, serial := range c.CaseSeries {
		if _, dup := seen[serial]; dup {
			return fmt.Errorf("case_series: duplicate serial %q", serial)
		}
		seen[serial] = struct{}{}
	}
	for _, dir := range c.CaseDirectories {
		if dir == c.NotesFile {
			return fmt.Errorf("case_directories: %q collides with notes_file", dir)
		}
	}
	return nil
}

// BasePath returns Base with a leading ~ expanded to the home directory.
func (c *CasefileConfig) BasePath() string {
	return expandHome(c.Base)
}

// Layout converts the configuration into a case store layout.
func (c *CasefileConfig) Layout() casestore.Layout {
	return casestore.Layout{
		Series:      c.CaseSeries,
		Directories: c.CaseDirectories,
		DateFormat:  c.DateFmt,
		NotesFile:   c.NotesFile,
	}
}

func pathElement(value any) error {
	s, _ := value.(string)
	if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return errors.New("must be a single directory name")
	}
	return nil
}

func dateFormat(value any) error {
	s, _ := value.(string)
	return datefmt.Validate(s)
}

// IndexConfig holds the search index location.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// ResolvePath returns the index path, defaulting to a file in the case store base.
func (c *IndexConfig) ResolvePath(base string) string {
	if c.Path == "" {
		return filepath.Join(base, ".casefile.db")
	}
	return expandHome(c.Path)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthEnabled returns true when a bearer token is required.
func (c *HTTPConfig) AuthEnabled() bool {
	return c.AuthToken != ""
}

// JiraConfig holds issue tracker credentials used by promote.
type JiraConfig struct {
	User      string `yaml:"user"`
	Key       string `yaml:"key"`
	Project   string `yaml:"project"`
	IssueType string `yaml:"issue_type"`
	Domain    string `yaml:"domain"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// Enabled reports whether the issue tracker is configured.
func (c *JiraConfig) Enabled() bool {
	return c.Domain != "" || c.BaseURL != ""
}

// ClientConfig converts the section into the Jira client's configuration.
func (c *JiraConfig) ClientConfig() jira.Config {
	return jira.Config{
		User:      c.User,
		Key:       c.Key,
		Project:   c.Project,
		IssueType: c.IssueType,
		Domain:    c.Domain,
		BaseURL:   c.BaseURL,
	}
}

// Validate requires a complete credential set once a domain is given.
func (c *JiraConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.Key, validation.Required),
		validation.Field(&c.Project, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelWarn,
		},
		Casefile: CasefileConfig{
			Base:            "~/cases",
			CaseSeries:      splitSeries(DefaultSeries),
			CaseDirectories: DirList{"raw", "processed"},
			DateFmt:         datefmt.DefaultPattern,
			NotesFile:       "notes.md",
			SearchLimit:     casestore.DefaultSearchLimit,
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Jira: JiraConfig{
			IssueType: "Incident",
		},
	}
}

func splitSeries(s string) Series {
	out := make(Series, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
