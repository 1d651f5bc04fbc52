// Command validate checks a flat race-result table before it is analysed:
// the schema the analysis pipeline needs, the data-model invariants
// (race-invariant weather, unique classified positions, non-negative points),
// natural-key uniqueness, and optionally parity with the raw session fixtures
// the table was built from.
//
// Usage:
//
//	go run ./cmd/validate -table data/race_results.csv \
//	  [-fixtures internal/pipeline/testdata/sessions.json]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/f1-weather-etl/internal/analysis"
	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxShown caps the detailed errors printed per phase.
const maxShown = 20

func main() {
	tablePath := flag.String("table", "data/race_results.csv", "flat result table (.csv or .xlsx)")
	fixtures := flag.String("fixtures", "", "optional JSON array of raw race sessions the table was built from")
	flag.Parse()

	if *tablePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*tablePath, *fixtures, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(tablePath, fixturesPath string, out io.Writer) int {
	fmt.Fprintln(out, "=== F1 Race Table Integrity Validation ===")
	fmt.Fprintln(out)

	schema := &phase{name: "Schema (required columns, token parsing)"}
	t, err := analysis.Load(tablePath)
	if err != nil {
		schema.errorf("%v", err)
		report(out, []*phase{schema})
		return 1
	}

	phases := []*phase{
		schema,
		validateInvariants(t),
		validateKeys(t),
	}
	if fixturesPath != "" {
		sessions, err := loadSessions(fixturesPath)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load fixtures: %v\n", err)
			return 1
		}
		phases = append(phases, validateFixtureParity(t, sessions))
	}

	fmt.Fprintf(out, "Table: %s (%d rows, %d races, %d drivers)\n\n", tablePath, t.Len(), len(t.Races()), len(t.Drivers()))
	if !report(out, phases) {
		return 1
	}
	return 0
}

// report prints the phase summary and details. Returns true if all passed.
func report(out io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxShown {
				fmt.Fprintf(out, "  ... and %d more\n", len(p.errors)-maxShown)
				break
			}
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	fmt.Fprintln(out)
	if allPassed {
		fmt.Fprintln(out, "All validation phases passed.")
	} else {
		fmt.Fprintln(out, "Validation FAILED.")
	}
	return allPassed
}

func validateInvariants(t *analysis.Table) *phase {
	p := &phase{name: "Data model invariants"}
	for _, v := range analysis.Validate(t) {
		p.errorf("%s", v)
	}
	return p
}

// validateKeys checks that "Driver Number and Race Name" is unique when the
// table carries it. Analysis-only tables may omit the column.
func validateKeys(t *analysis.Table) *phase {
	p := &phase{name: "Driver/race key uniqueness"}
	keys, ok := t.Column(domain.ColDriverRaceKey)
	if !ok {
		return p
	}
	seen := make(map[string]int, len(keys))
	for i, k := range keys {
		if first, dup := seen[k]; dup {
			p.errorf("row %d: key %q duplicates row %d", i+1, k, first)
			continue
		}
		seen[k] = i + 1
	}
	return p
}

func loadSessions(path string) ([]domain.RaceSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sessions []domain.RaceSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sessions, nil
}

// validateFixtureParity flattens every fixture session and checks that each
// resulting row is in the table with the same points.
func validateFixtureParity(t *analysis.Table, sessions []domain.RaceSession) *phase {
	p := &phase{name: "Fixture parity"}

	// Fixed clock so flattening is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.December, 9, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	keys, ok := t.Column(domain.ColDriverRaceKey)
	if !ok {
		p.errorf("table has no %q column to match fixtures against", domain.ColDriverRaceKey)
		return p
	}
	points, _ := t.Column(domain.ColRacePoint)
	rowOf := make(map[string]int, len(keys))
	for i, k := range keys {
		rowOf[k] = i
	}

	expected := 0
	for _, s := range sessions {
		records, err := domain.FlattenSession(s)
		if errors.Is(err, domain.ErrTestSession) || errors.Is(err, domain.ErrNoResults) {
			continue
		}
		if err != nil {
			p.errorf("%s: %v", s.OfficialEventName, err)
			continue
		}
		for _, rec := range records {
			expected++
			row, ok := rowOf[rec.DriverRaceKey()]
			if !ok {
				p.errorf("missing row %q", rec.DriverRaceKey())
				continue
			}
			got, err := strconv.ParseFloat(points[row], 64)
			if err != nil || math.Abs(got-rec.RacePoints) > 1e-9 {
				p.errorf("row %d (%s): points %s, fixture has %g", row+1, rec.DriverRaceKey(), points[row], rec.RacePoints)
			}
		}
	}
	if expected != t.Len() {
		p.errorf("row count: table has %d, fixtures flatten to %d", t.Len(), expected)
	}
	return p
}
