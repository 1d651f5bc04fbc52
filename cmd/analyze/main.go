// Command analyze derives the chart-ready series from a flat race-result
// table: driver standings, position histories, per-race weather, the weather
// overlay, and the rain/dry split. Every subcommand reloads the table.
//
// Usage:
//
//	go run ./cmd/analyze [-table data/race_results.csv] [-format table|json] <command> [flags]
//
// Commands:
//
//	rank       [-n 5]                              top drivers by total points
//	positions  [-driver a,b] [-by race|date]        finishing position per race
//	race       -name "<race>" [-raw]               weather of one race
//	weather    [-driver a,b] [-mode union|common|first] [-strict]
//	                                               positions overlaid on normalized weather
//	rain       [-driver a,b]                       mean position in wet vs dry races
//	normalize  -out file.csv|file.xlsx [-strict]   write the weather-normalized table
//	watch      <command> [flags]                   re-run a command whenever the table changes
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
