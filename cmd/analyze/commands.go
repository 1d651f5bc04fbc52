package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/couchcryptid/f1-weather-etl/internal/analysis"
	"github.com/couchcryptid/f1-weather-etl/internal/domain"
	"github.com/couchcryptid/f1-weather-etl/internal/report"
)

func runRank(_ context.Context, e *env, args []string) error {
	fs := e.flagSet("rank")
	n := fs.Int("n", e.cfg.TopN, "number of drivers")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *n <= 0 {
		fmt.Fprintln(e.stderr, "rank: -n must be positive")
		return errUsage
	}

	t, err := e.load()
	if err != nil {
		return err
	}
	return report.Standings(e.stdout, e.format, analysis.RankDrivers(t, *n))
}

func runPositions(_ context.Context, e *env, args []string) error {
	fs := e.flagSet("positions")
	var drivers driverList
	fs.Var(&drivers, "driver", "drivers to chart (default: top drivers)")
	n := fs.Int("n", e.cfg.TopN, "number of top drivers when -driver is not given")
	by := fs.String("by", "race", "order races by table order (race) or by race date (date)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *by != "race" && *by != "date" {
		fmt.Fprintf(e.stderr, "positions: -by must be race or date, got %q\n", *by)
		return errUsage
	}

	t, err := e.load()
	if err != nil {
		return err
	}
	if *by == "date" {
		if t, err = t.SortByDate(); err != nil {
			return err
		}
	}

	names, err := drivers.orTop(t, *n)
	if err != nil {
		return err
	}
	series := make([]analysis.Series, len(names))
	for i, d := range names {
		series[i] = analysis.DriverSeries(t, d)
	}
	return report.Positions(e.stdout, e.format, series)
}

func runRace(_ context.Context, e *env, args []string) error {
	fs := e.flagSet("race")
	name := fs.String("name", "", "race name, exactly as in the Race Name column")
	raw := fs.Bool("raw", false, "report raw values instead of normalized ones")
	strict := fs.Bool("strict", e.cfg.Strict, "fail on constant weather columns")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *name == "" {
		fmt.Fprintln(e.stderr, "race: -name is required")
		return errUsage
	}

	t, err := e.load()
	if err != nil {
		return err
	}
	if !*raw {
		if t, err = analysis.Normalize(t, analysis.NormalizeOptions{Strict: *strict}); err != nil {
			return err
		}
	}

	wx, err := analysis.RaceWeather(t, *name)
	if err != nil {
		return err
	}
	return report.Weather(e.stdout, e.format, *name, wx)
}

func runWeather(_ context.Context, e *env, args []string) error {
	fs := e.flagSet("weather")
	var drivers driverList
	fs.Var(&drivers, "driver", "drivers to overlay (default: top drivers)")
	n := fs.Int("n", e.cfg.TopN, "number of top drivers when -driver is not given")
	modeName := fs.String("mode", e.cfg.OverlayMode, "race axis: union, common, or first")
	strict := fs.Bool("strict", e.cfg.Strict, "fail on constant weather columns")
	scalePositions := fs.Bool("scale-positions", true, "scale placings to [0,1] alongside the weather")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	mode, err := analysis.ParseOverlayMode(*modeName)
	if err != nil {
		fmt.Fprintf(e.stderr, "weather: %v\n", err)
		return errUsage
	}

	t, err := e.load()
	if err != nil {
		return err
	}
	names, err := drivers.orTop(t, *n)
	if err != nil {
		return err
	}

	cols := slices.Clone(domain.WeatherColumns)
	if *scalePositions {
		cols = append(cols, domain.ColPosition)
	}
	normalized, err := analysis.NormalizeColumns(t, analysis.NormalizeOptions{Strict: *strict}, cols...)
	if err != nil {
		return err
	}
	o, err := analysis.WeatherOverlay(normalized, names, mode)
	if err != nil {
		return err
	}
	return report.Overlay(e.stdout, e.format, o)
}

func runRain(_ context.Context, e *env, args []string) error {
	fs := e.flagSet("rain")
	var drivers driverList
	fs.Var(&drivers, "driver", "drivers to compare (default: top drivers)")
	n := fs.Int("n", e.cfg.TopN, "number of top drivers when -driver is not given")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	t, err := e.load()
	if err != nil {
		return err
	}
	names, err := drivers.orTop(t, *n)
	if err != nil {
		return err
	}
	return report.RainDry(e.stdout, e.format, analysis.RainDry(t, names))
}

func runNormalize(_ context.Context, e *env, args []string) error {
	fs := e.flagSet("normalize")
	out := fs.String("out", "", "output file (.csv or .xlsx)")
	strict := fs.Bool("strict", e.cfg.Strict, "fail on constant weather columns")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *out == "" {
		fmt.Fprintln(e.stderr, "normalize: -out is required")
		return errUsage
	}

	t, err := e.load()
	if err != nil {
		return err
	}
	normalized, err := analysis.Normalize(t, analysis.NormalizeOptions{Strict: *strict})
	if err != nil {
		return err
	}
	if err := report.ExportTable(normalized, *out); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %d normalized rows to %s\n", normalized.Len(), *out)
	return nil
}
