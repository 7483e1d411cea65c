package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/casefile/internal"
	"github.com/starford/casefile/internal/casestore"
	"github.com/starford/casefile/internal/prompt"
	pkgconfig "github.com/starford/casefile/pkg/config"
)

const (
	configName = "casefile.yaml"
	appDir     = "is.trystero.CaseFile"
	exitCode   = 127
)

var version = "dev"

// configPath returns --config when given, else the platform default.
func configPath(cmd *cli.Command) (string, error) {
	if p := cmd.String("config"); p != "" {
		return p, nil
	}
	loc, err := pkgconfig.NewLocator(configName, appDir)
	if err != nil {
		return "", err
	}
	return loc.Find()
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.Bool("verbose") {
		cfg.Casefile.Verbose = true
	}
	return cfg, nil
}

// appOptions loads the config and builds the application options.
// Interactive commands get a terminal prompter; the servers must not read
// stdin for prompts.
func appOptions(cmd *cli.Command, interactive bool) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithLogger(logger),
		internal.WithVersion(version),
	}
	if interactive {
		opts = append(opts, internal.WithPrompter(prompt.Terminal()))
	}
	return opts, nil
}

func newApp(cmd *cli.Command, interactive bool) (*internal.App, error) {
	opts, err := appOptions(cmd, interactive)
	if err != nil {
		return nil, err
	}
	return internal.New(opts...)
}

func listCases(_ context.Context, cmd *cli.Command) error {
	if !cmd.Bool("list") && !cmd.Bool("grep") {
		fmt.Fprintln(os.Stderr, "usage: cf [-l | -g] [-s] [--skip-broken] | cf <command> [args]\nRun 'cf --help' for the list of commands.")
		return nil
	}
	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	return app.List(casestore.ListOptions{
		Grepable:   cmd.Bool("grep"),
		Sort:       cmd.Bool("sort"),
		SkipBroken: cmd.Bool("skip-broken"),
	})
}

func newCase(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	_, err = app.NewCase(ctx, strings.Join(cmd.Args().Slice(), " "), cmd.String("date"))
	return err
}

func logCase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("usage: cf log <case> <note>")
	}
	app, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	_, err = app.Log(ctx, cmd.Args().First(), strings.Join(cmd.Args().Tail(), " "))
	return err
}

func logQuick(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	ref, err := app.LogQuick(ctx, strings.Join(cmd.Args().Slice(), " "))
	if err != nil {
		return err
	}
	fmt.Printf("Logged to %s\n", ref)
	return nil
}

func latestCase(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	ref, err := app.Latest()
	if err != nil {
		return err
	}
	fmt.Println(ref)
	return nil
}

func showCase(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: cf show <case>")
	}
	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	return app.Show(cmd.Args().First())
}

func promoteCase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: cf promote <case>")
	}
	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	_, err = app.Promote(ctx, cmd.Args().First())
	return err
}

func searchCases(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("usage: cf search <query>")
	}
	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	_, err = app.Search(ctx, strings.Join(cmd.Args().Slice(), " "), int(cmd.Int("limit")))
	return err
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := appOptions(cmd, false)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := appOptions(cmd, false)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	return internal.RunMCP(ctx, append(opts, internal.WithOutput(os.Stderr))...)
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "cf",
		Usage:   "Open, log and list dated incident case directories",
		Version: version,
		Action:  listCases,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: platform config location)",
				Sources: cli.EnvVars("CASEFILE_CONFIG"),
			},
			&cli.BoolFlag{Name: "verbose", Usage: "Announce every directory created"},
			&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "List cases, two lines each"},
			&cli.BoolFlag{Name: "grep", Aliases: []string{"g"}, Usage: "List cases, one grepable line each"},
			&cli.BoolFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Sort listed cases by date and serial"},
			&cli.BoolFlag{Name: "skip-broken", Usage: "Skip cases without a notes file instead of failing"},
		},
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Open a new case",
				ArgsUsage: "[summary]",
				Action:    newCase,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "File under another day, e.g. 2024-01-31 or yesterday"},
				},
			},
			{
				Name:      "log",
				Usage:     "Append a time-stamped note to a case",
				ArgsUsage: "<case> <note>",
				Action:    logCase,
			},
			{
				Name:      "log-quick",
				Usage:     "Append a note to the most recent case",
				ArgsUsage: "[note]",
				Action:    logQuick,
			},
			{
				Name:   "latest",
				Usage:  "Print the most recent case",
				Action: latestCase,
			},
			{
				Name:      "show",
				Usage:     "Print a case summary and log",
				ArgsUsage: "<case>",
				Action:    showCase,
			},
			{
				Name:      "promote",
				Usage:     "File a case as a Jira issue",
				ArgsUsage: "<case>",
				Action:    promoteCase,
			},
			{
				Name:      "search",
				Usage:     "Search case summaries and logs",
				ArgsUsage: "<query>",
				Action:    searchCases,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum number of hits"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and keep the search index fresh",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: serveMCP,
			},
			{
				Name:   "init",
				Usage:  "Write a config file interactively",
				Action: initConfig,
			},
		},
	}
}

func main() {
	if err := rootCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
}
