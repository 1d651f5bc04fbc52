package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/couchcryptid/f1-weather-etl/internal/analysis"
	"github.com/couchcryptid/f1-weather-etl/internal/config"
	"github.com/couchcryptid/f1-weather-etl/internal/observability"
	"github.com/couchcryptid/f1-weather-etl/internal/report"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks bad command-line input; run reports it with exitUsage.
var errUsage = errors.New("usage")

// env is the state shared by every subcommand invocation.
type env struct {
	cfg       *config.Analysis
	tablePath string
	format    report.Format
	stdout    io.Writer
	stderr    io.Writer
	logger    *slog.Logger
}

// command is one analysis subcommand. run parses its own flags from args.
type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"rank":      {"top drivers by total points", runRank},
		"positions": {"finishing position per race", runPositions},
		"race":      {"weather of one race", runRace},
		"weather":   {"driver positions overlaid on normalized weather", runWeather},
		"rain":      {"mean position in wet vs dry races", runRain},
		"normalize": {"write the weather-normalized table", runNormalize},
		"watch":     {"re-run a command whenever the table changes", runWatch},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadAnalysis()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tablePath := fs.String("table", cfg.TablePath, "flat result table (.csv or .xlsx)")
	format := fs.String("format", cfg.Format, "output format: table or json")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	f, err := report.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	e := &env{
		cfg:       cfg,
		tablePath: *tablePath,
		format:    f,
		stdout:    stdout,
		stderr:    stderr,
		logger:    observability.NewLoggerTo(stderr, *logLevel, cfg.LogFormat),
	}
	return e.dispatch(ctx, fs.Args())
}

func (e *env) dispatch(ctx context.Context, args []string) int {
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(e.stderr, "unknown command %q\n", name)
		return exitUsage
	}

	err := cmd.run(ctx, e, args[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return exitUsage
	default:
		e.logger.Debug("command failed", "command", name, "error", err)
		fmt.Fprintf(e.stderr, "%s: %v\n", name, err)
		return exitError
	}
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "usage: analyze [flags] <command> [command flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-10s %s\n", n, commands[n].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}

// load reads the table fresh; results are never cached between commands.
func (e *env) load() (*analysis.Table, error) {
	t, err := analysis.Load(e.tablePath)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("table loaded", "path", e.tablePath, "rows", t.Len())
	return t, nil
}

func (e *env) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parseFlags parses subcommand flags. The flag package has already printed
// the problem, so failures only carry errUsage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "%s: unexpected arguments %q\n", fs.Name(), fs.Args())
		return errUsage
	}
	return nil
}

// driverList is a comma-separated, repeatable -driver flag.
type driverList []string

func (d *driverList) String() string { return strings.Join(*d, ",") }

func (d *driverList) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*d = append(*d, name)
		}
	}
	return nil
}

// orTop returns the listed drivers, or the top n of t when none were given.
// A listed driver with no rows in t is a *analysis.MissingDataError.
func (d driverList) orTop(t *analysis.Table, n int) ([]string, error) {
	if len(d) == 0 {
		return analysis.TopDrivers(t, n), nil
	}
	for _, name := range d {
		if !t.HasDriver(name) {
			return nil, &analysis.MissingDataError{Kind: "driver", Name: name}
		}
	}
	return d, nil
}
