// Command genmock regroups a flat race-result table back into the raw
// race-session documents the ingestion service consumes. The output is used
// as replay input for the Kafka source topic and as test fixtures. It runs
// the real flattening code over the regrouped sessions to prove they
// reproduce the table.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -table data/race_results.csv \
//	  -out internal/pipeline/testdata/sessions_generated.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/f1-weather-etl/internal/analysis"
	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tablePath := flag.String("table", "", "flat result table (.csv or .xlsx)")
	out := flag.String("out", "", "output path for the race-session JSON fixture")
	flag.Parse()

	if *tablePath == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -table, -out")
	}

	t, err := analysis.Load(*tablePath)
	if err != nil {
		return err
	}

	sessions, err := regroup(t)
	if err != nil {
		return err
	}

	// Fixed clock for reproducible IngestedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.December, 9, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	rows := 0
	for _, s := range sessions {
		records, err := domain.FlattenSession(s)
		if err != nil {
			return fmt.Errorf("regrouped session %q does not flatten: %w", s.OfficialEventName, err)
		}
		rows += len(records)
		log.Printf("round %d %s: %d results", s.Round, s.OfficialEventName, len(records))
	}
	if rows != t.Len() {
		return fmt.Errorf("regrouped sessions flatten to %d rows, table has %d", rows, t.Len())
	}

	if err := writeJSON(*out, sessions); err != nil {
		return err
	}
	log.Printf("wrote %d sessions (%d rows) to %s", len(sessions), rows, *out)
	return nil
}

// columns gives by-name access to a table's cells; optional columns that are
// absent read as empty strings.
type columns struct {
	t     *analysis.Table
	cache map[string][]string
}

func (c *columns) get(col string, row int) string {
	vals, ok := c.cache[col]
	if !ok {
		vals, _ = c.t.Column(col)
		c.cache[col] = vals
	}
	if vals == nil {
		return ""
	}
	return strings.TrimSpace(vals[row])
}

// regroup rebuilds one session per race, in race-date order. Each session
// carries a single weather sample holding the race's averages, so flattening
// reproduces the table's weather exactly.
func regroup(t *analysis.Table) ([]domain.RaceSession, error) {
	c := &columns{t: t, cache: make(map[string][]string)}
	byRace := make(map[string]*domain.RaceSession)
	var order []string

	for i := range t.Len() {
		race := c.get(domain.ColRaceName, i)
		s, ok := byRace[race]
		if !ok {
			var err error
			if s, err = newSession(c, i); err != nil {
				return nil, err
			}
			byRace[race] = s
			order = append(order, race)
		}

		res, err := newResult(c, i)
		if err != nil {
			return nil, err
		}
		s.Results = append(s.Results, res)
	}

	sessions := make([]domain.RaceSession, len(order))
	for i, race := range order {
		sessions[i] = *byRace[race]
	}
	sort.SliceStable(sessions, func(a, b int) bool { return sessions[a].EventDate < sessions[b].EventDate })
	for i := range sessions {
		sessions[i].Round = i + 1
	}
	return sessions, nil
}

func newSession(c *columns, row int) (*domain.RaceSession, error) {
	date, err := time.Parse(time.DateOnly, firstN(c.get(domain.ColRaceDate, row), len(time.DateOnly)))
	if err != nil {
		return nil, fmt.Errorf("row %d: %s: %w", row+1, domain.ColRaceDate, err)
	}
	location, country, _ := strings.Cut(c.get(domain.ColRaceLocation, row), ",")

	s := &domain.RaceSession{
		Season:            date.Year(),
		OfficialEventName: c.get(domain.ColRaceName, row),
		Country:           country,
		Location:          location,
		EventFormat:       c.get(domain.ColRaceFormat, row),
		EventDate:         date.Format(time.DateOnly),
	}
	if v := c.get(domain.ColRaceStartTime, row); v != "" {
		if s.SessionStart, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", row+1, domain.ColRaceStartTime, err)
		}
	}

	sample := domain.WeatherSample{Rainfall: isTrue(c.get(domain.ColRainfall, row))}
	fields := []*float64{&sample.AirTemp, &sample.Humidity, &sample.Pressure, &sample.TrackTemp, &sample.WindSpeed}
	for k, col := range domain.WeatherColumns {
		v, err := parseFloat(c.get(col, row))
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", row+1, col, err)
		}
		*fields[k] = v
	}
	if !math.IsNaN(sample.AirTemp) {
		s.Weather = []domain.WeatherSample{sample}
	}
	return s, nil
}

func newResult(c *columns, row int) (domain.DriverResult, error) {
	number := c.get(domain.ColDriverID, row)
	if number == "" {
		// Fall back to the "<number> : <race>" key.
		number, _, _ = strings.Cut(c.get(domain.ColDriverRaceKey, row), " : ")
	}
	res := domain.DriverResult{
		DriverNumber: number,
		DriverID:     c.get(domain.ColDriverName, row),
		TeamName:     c.get(domain.ColDriverTeam, row),
	}

	var err error
	if res.Points, err = parseFloat(c.get(domain.ColRacePoint, row)); err != nil {
		return res, fmt.Errorf("row %d: %s: %w", row+1, domain.ColRacePoint, err)
	}
	if pos, err := parseFloat(c.get(domain.ColPosition, row)); err == nil && !math.IsNaN(pos) {
		res.Position = &pos
	}
	if grid, err := parseFloat(c.get(domain.ColGridPosition, row)); err == nil && !math.IsNaN(grid) {
		res.GridPosition = grid
	}
	if v := c.get(domain.ColRaceTime, row); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return res, fmt.Errorf("row %d: %s: %w", row+1, domain.ColRaceTime, err)
		}
		secs := d.Seconds()
		res.TimeSeconds = &secs
	}
	return res, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func isTrue(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes", "y":
		return true
	}
	return false
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
