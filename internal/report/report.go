// Package report renders analysis results for people and for chart tooling.
// Terminal output uses go-pretty tables; JSON output carries the same series
// with absent values as null.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/couchcryptid/f1-weather-etl/internal/analysis"
	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts "table" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table or json)", s)
}

const absent = "—"

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Standings writes a driver ranking.
func Standings(w io.Writer, f Format, standings []analysis.Standing) error {
	if f == FormatJSON {
		return writeJSON(w, standings)
	}
	t := newTable(w, table.Row{"#", "Driver", "Points"})
	for i, s := range standings {
		t.AppendRow(table.Row{i + 1, s.Driver, formatFloat(s.Points)})
	}
	t.Render()
	return nil
}

// Positions writes one position series per driver.
func Positions(w io.Writer, f Format, series []analysis.Series) error {
	if f == FormatJSON {
		return writeJSON(w, series)
	}
	t := newTable(w, table.Row{"Driver", "Race", "Date", "Position"})
	for _, s := range series {
		if s.Len() == 0 {
			t.AppendRow(table.Row{s.Driver, absent, absent, absent})
			continue
		}
		for i := range s.Positions {
			t.AppendRow(table.Row{s.Driver, s.RaceNames[i], s.RaceDates[i].Format(time.DateOnly), formatFloat(s.Positions[i])})
		}
		t.AppendSeparator()
	}
	t.Render()
	return nil
}

type weatherJSON struct {
	Race    string              `json:"race"`
	Weather map[string]*float64 `json:"weather"`
}

// Weather writes the five weather values of one race.
func Weather(w io.Writer, f Format, race string, wx domain.Weather) error {
	values := wx.Values()
	if f == FormatJSON {
		out := weatherJSON{Race: race, Weather: make(map[string]*float64, len(values))}
		for k, col := range domain.WeatherColumns {
			out.Weather[col] = nullable(values[k])
		}
		return writeJSON(w, out)
	}
	t := newTable(w, table.Row{"Measure", race})
	for k, col := range domain.WeatherColumns {
		t.AppendRow(table.Row{col, formatFloat(values[k])})
	}
	t.Render()
	return nil
}

// RainDry writes mean wet and dry positions per driver.
func RainDry(w io.Writer, f Format, stats []analysis.RainDryStat) error {
	if f == FormatJSON {
		return writeJSON(w, stats)
	}
	t := newTable(w, table.Row{"Driver", "Rain avg", "Rain races", "Dry avg", "Dry races"})
	for _, s := range stats {
		t.AppendRow(table.Row{s.Driver, s.Rain.String(), s.Rain.Races, s.Dry.String(), s.Dry.Races})
	}
	t.Render()
	return nil
}

type overlayJSON struct {
	Mode    analysis.OverlayMode  `json:"mode"`
	Races   []string              `json:"races"`
	Weather map[string][]*float64 `json:"weather"`
	Drivers []analysis.Track      `json:"drivers"`
}

// Overlay writes the aligned weather and position series of a multi-driver chart.
func Overlay(w io.Writer, f Format, o analysis.Overlay) error {
	if f == FormatJSON {
		out := overlayJSON{Mode: o.Mode, Races: o.Races, Drivers: o.Drivers, Weather: make(map[string][]*float64, len(o.Weather))}
		for k, col := range domain.WeatherColumns {
			vals := make([]*float64, len(o.Weather[k]))
			for j, v := range o.Weather[k] {
				vals[j] = nullable(v)
			}
			out.Weather[col] = vals
		}
		return writeJSON(w, out)
	}

	header := table.Row{"Race"}
	for _, col := range domain.WeatherColumns {
		header = append(header, col)
	}
	for _, d := range o.Drivers {
		header = append(header, d.Driver)
	}
	t := newTable(w, header)
	for j, race := range o.Races {
		row := table.Row{race}
		for k := range o.Weather {
			row = append(row, formatFloat(o.Weather[k][j]))
		}
		for _, d := range o.Drivers {
			p := d.Placings[j]
			if !p.Valid {
				row = append(row, absent)
				continue
			}
			row = append(row, formatFloat(p.Position))
		}
		t.AppendRow(row)
	}
	t.SetCaption("races: %s", o.Mode)
	t.Render()
	return nil
}

// Violations writes integrity violations, one per row.
func Violations(w io.Writer, f Format, vs []analysis.Violation) error {
	if f == FormatJSON {
		if vs == nil {
			vs = []analysis.Violation{}
		}
		return writeJSON(w, vs)
	}
	t := newTable(w, table.Row{"Row", "Rule", "Race", "Driver", "Detail"})
	for _, v := range vs {
		t.AppendRow(table.Row{v.Row, v.Rule, v.Race, v.Driver, v.Detail})
	}
	t.Render()
	return nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return absent
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
