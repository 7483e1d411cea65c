package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/starford/casefile/internal"
	"github.com/starford/casefile/internal/apperr"
	"github.com/starford/casefile/internal/datefmt"
	"github.com/starford/casefile/internal/jira"
	pkgconfig "github.com/starford/casefile/pkg/config"
)

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

// initAnswers holds the wizard's editable fields.
type initAnswers struct {
	base      string
	series    string
	dirs      string
	dateFmt   string
	notesFile string
	overwrite bool

	jira          bool
	jiraUser      string
	jiraKey       string
	jiraProject   string
	jiraIssueType string
	jiraDomain    string
}

func newInitAnswers(cfg *internal.Config, exists bool) *initAnswers {
	cf, j := cfg.Casefile, cfg.Jira
	issueType := j.IssueType
	if issueType == "" {
		issueType = jira.DefaultIssueType
	}
	return &initAnswers{
		base:          cf.Base,
		series:        strings.Join(cf.CaseSeries, ","),
		dirs:          strings.Join(cf.CaseDirectories, ", "),
		dateFmt:       cf.DateFmt,
		notesFile:     cf.NotesFile,
		overwrite:     !exists,
		jira:          j.Enabled(),
		jiraUser:      j.User,
		jiraKey:       j.Key,
		jiraProject:   j.Project,
		jiraIssueType: issueType,
		jiraDomain:    j.Domain,
	}
}

func (a *initAnswers) form(path string, exists bool) *huh.Form {
	noJira := func() bool { return !a.jira }
	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().Title("Case base directory").Value(&a.base).Validate(notEmpty),
			huh.NewInput().Title("Case series").
				Description("Serial labels in order: ABC or a comma separated list").
				Value(&a.series).Validate(notEmpty),
			huh.NewInput().Title("Resource directories").
				Description("Created inside every case, comma separated").
				Value(&a.dirs),
			huh.NewInput().Title("Date format").
				Description("strftime pattern naming each day's directory").
				Value(&a.dateFmt).Validate(datefmt.Validate),
			huh.NewInput().Title("Notes file").Value(&a.notesFile).Validate(notEmpty),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Configure Jira?").
				Description("Needed by promote").
				Value(&a.jira),
		),
		huh.NewGroup(
			huh.NewInput().Title("Jira user").Value(&a.jiraUser).Validate(notEmpty),
			huh.NewInput().Title("Jira API key").
				EchoMode(huh.EchoModePassword).
				Value(&a.jiraKey).Validate(notEmpty),
			huh.NewInput().Title("Jira project").Value(&a.jiraProject).Validate(notEmpty),
			huh.NewInput().Title("Issue type").Value(&a.jiraIssueType).Validate(notEmpty),
			huh.NewInput().Title("Jira domain").
				Description("e.g. example.atlassian.net").
				Value(&a.jiraDomain).Validate(notEmpty),
		).WithHideFunc(noJira),
	}
	if exists {
		groups = append(groups, huh.NewGroup(
			huh.NewConfirm().Title(fmt.Sprintf("Overwrite %s?", path)).Value(&a.overwrite),
		))
	}
	return huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
}

// apply copies the answers into cfg and validates the result.
func (a *initAnswers) apply(cfg *internal.Config) error {
	cf := &cfg.Casefile
	cf.Base = strings.TrimSpace(a.base)
	cf.CaseSeries = internal.ParseSeries(a.series)
	cf.CaseDirectories = internal.ParseDirList(a.dirs)
	cf.DateFmt = a.dateFmt
	cf.NotesFile = strings.TrimSpace(a.notesFile)

	if a.jira {
		cfg.Jira.User = strings.TrimSpace(a.jiraUser)
		cfg.Jira.Key = strings.TrimSpace(a.jiraKey)
		cfg.Jira.Project = strings.TrimSpace(a.jiraProject)
		cfg.Jira.IssueType = strings.TrimSpace(a.jiraIssueType)
		cfg.Jira.Domain = strings.TrimSpace(a.jiraDomain)
	} else {
		cfg.Jira = internal.JiraConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// initConfig asks for the case store settings and writes them to the config
// path, starting from the current file when there is one.
func initConfig(ctx context.Context, cmd *cli.Command) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	cfg := internal.NewDefaultConfig()
	exists, err := pkgconfig.LoadIfExists(path, cfg)
	if err != nil {
		return err
	}

	answers := newInitAnswers(cfg, exists)
	if err := answers.form(path, exists).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return apperr.ErrInterrupted
		}
		return err
	}
	if !answers.overwrite {
		fmt.Fprintln(os.Stderr, "Config left unchanged.")
		return nil
	}

	if err := answers.apply(cfg); err != nil {
		return err
	}
	if err := pkgconfig.Write(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
