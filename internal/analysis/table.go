package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/unicode/norm"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// numericColumns are loaded as float series; everything else stays a string.
var numericColumns = append([]string{domain.ColRacePoint, domain.ColPosition}, domain.WeatherColumns...)

// dateLayouts are the Race Date formats accepted on load, tried in order.
var dateLayouts = []string{time.DateOnly, time.DateTime, time.RFC3339, "2006-01-02T15:04:05"}

// Table is an immutable, validated view of the flat race-result table.
// Operations never modify a Table; derived tables are new values.
type Table struct {
	df dataframe.DataFrame

	drivers   []string
	races     []string
	dates     []time.Time
	rain      []bool
	points    []float64
	positions []float64
	weather   [5][]float64 // domain.WeatherColumns order
}

// Load reads a table from a .csv or .xlsx file.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open table: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("load table %s: unsupported file type %q", path, filepath.Ext(path))
	}
}

// ReadCSV reads a table from CSV with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table csv: %w", err)
	}
	return FromRecords(records)
}

// FromRecords builds a table from a header row followed by data rows.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, &SchemaError{Column: domain.ColDriverName, Reason: "table has no header row"}
	}
	header := records[0]
	if err := checkColumns(header); err != nil {
		return nil, err
	}

	// Driver names are grouping keys; canonicalize so visually equal names match.
	driverIdx := slices.Index(header, domain.ColDriverName)
	raceIdx := slices.Index(header, domain.ColRaceName)
	var numericIdx []int
	for i, name := range header {
		if slices.Contains(numericColumns, name) {
			numericIdx = append(numericIdx, i)
		}
	}

	rows := make([][]string, len(records))
	rows[0] = header
	for i, row := range records[1:] {
		row = slices.Clone(row)
		if driverIdx < len(row) {
			row[driverIdx] = canonicalName(row[driverIdx])
		}
		for _, key := range [...]struct {
			idx int
			col string
		}{{driverIdx, domain.ColDriverName}, {raceIdx, domain.ColRaceName}} {
			if key.idx >= len(row) || missingKey(row[key.idx]) {
				v := ""
				if key.idx < len(row) {
					v = row[key.idx]
				}
				return nil, &SchemaError{Column: key.col, Row: i + 1, Value: v, Reason: "missing value"}
			}
		}
		for _, idx := range numericIdx {
			if idx >= len(row) {
				continue
			}
			row[idx] = strings.TrimSpace(row[idx])
			if err := checkNumber(row[idx]); err != nil {
				return nil, &SchemaError{Column: header[idx], Row: i + 1, Value: row[idx], Reason: "not a number"}
			}
		}
		rows[i+1] = row
	}
	records = rows

	if len(records) == 1 {
		return newTable(emptyFrame(header))
	}

	types := make(map[string]series.Type, len(numericColumns))
	for _, c := range numericColumns {
		types[c] = series.Float
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	)
	return newTable(df)
}

func emptyFrame(header []string) dataframe.DataFrame {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		typ := series.String
		if slices.Contains(numericColumns, name) {
			typ = series.Float
		}
		cols[i] = series.New([]string{}, typ, name)
	}
	return dataframe.New(cols...)
}

func loadXLSX(path string) (*Table, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx table: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("xlsx table %s has no sheets", path)
	}
	return FromRecords(sheetRecords(file.Sheets[0], file.Date1904))
}

// sheetRecords flattens a worksheet into string records. The first non-empty
// row is the header. Race Date cells stored as Excel serial numbers are
// converted to ISO dates.
func sheetRecords(sheet *xlsx.Sheet, date1904 bool) [][]string {
	var records [][]string
	dateIdx := -1
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		blank := true
		for i, cell := range row.Cells {
			cells[i] = strings.TrimSpace(cell.Value)
			if cells[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if records == nil {
			dateIdx = slices.Index(cells, domain.ColRaceDate)
			records = append(records, cells)
			continue
		}
		if dateIdx >= 0 && dateIdx < len(cells) {
			if serial, err := strconv.ParseFloat(cells[dateIdx], 64); err == nil {
				cells[dateIdx] = xlsx.TimeFromExcelTime(serial, date1904).Format(time.DateOnly)
			}
		}
		records = append(records, cells)
	}

	// Pad short rows so every record matches the header width.
	if len(records) > 0 {
		width := len(records[0])
		for i := range records {
			for len(records[i]) < width {
				records[i] = append(records[i], "")
			}
			records[i] = records[i][:width]
		}
	}
	return records
}

func checkColumns(names []string) error {
	for _, col := range domain.RequiredColumns {
		if !slices.Contains(names, col) {
			return &SchemaError{Column: col, Reason: "required column is missing"}
		}
	}
	return nil
}

// newTable validates a frame and extracts the typed columns used by every operation.
func newTable(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("load table: %w", df.Err)
	}
	if err := checkColumns(df.Names()); err != nil {
		return nil, err
	}

	t := &Table{
		df:        df,
		drivers:   df.Col(domain.ColDriverName).Records(),
		races:     df.Col(domain.ColRaceName).Records(),
		points:    df.Col(domain.ColRacePoint).Float(),
		positions: df.Col(domain.ColPosition).Float(),
	}
	for i, col := range domain.WeatherColumns {
		t.weather[i] = df.Col(col).Float()
	}

	rawRain := df.Col(domain.ColRainfall).Records()
	t.rain = make([]bool, len(rawRain))
	for i, v := range rawRain {
		b, err := parseRainfall(v)
		if err != nil {
			return nil, &SchemaError{Column: domain.ColRainfall, Row: i + 1, Value: v, Reason: "not a boolean token"}
		}
		t.rain[i] = b
	}

	rawDates := df.Col(domain.ColRaceDate).Records()
	t.dates = make([]time.Time, len(rawDates))
	for i, v := range rawDates {
		d, err := parseDate(v)
		if err != nil {
			return nil, &SchemaError{Column: domain.ColRaceDate, Row: i + 1, Value: v, Reason: "not an ISO date"}
		}
		t.dates[i] = d
	}

	for i := range t.races {
		t.races[i] = strings.TrimSpace(t.races[i])
	}
	return t, nil
}

// missingKey reports a grouping-key cell that is blank or that the dataframe
// layer would read as a missing value.
func missingKey(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NA", "NaN":
		return true
	}
	return false
}

// checkNumber accepts a blank or NaN cell as missing. Anything else must
// parse as a finite float.
func checkNumber(v string) error {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	if math.IsInf(f, 0) {
		return fmt.Errorf("infinite value %q", v)
	}
	return nil
}

func parseRainfall(v string) (bool, error) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var err error
	for _, layout := range dateLayouts {
		var d time.Time
		if d, err = time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, err
}

func canonicalName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.drivers) }

// Has reports whether the table carries the named column.
func (t *Table) Has(col string) bool { return slices.Contains(t.df.Names(), col) }

// Columns returns the header in table order.
func (t *Table) Columns() []string { return t.df.Names() }

// Column returns the string form of a column's cells.
func (t *Table) Column(col string) ([]string, bool) {
	if !t.Has(col) {
		return nil, false
	}
	return t.df.Col(col).Records(), true
}

// Drivers returns the distinct driver names in first-appearance order.
func (t *Table) Drivers() []string { return distinct(t.drivers) }

// Races returns the distinct race names in first-appearance order.
func (t *Table) Races() []string { return distinct(t.races) }

// HasDriver reports whether any row belongs to the driver. Names compare in
// canonical form, as every driver lookup does.
func (t *Table) HasDriver(name string) bool {
	return slices.Contains(t.drivers, canonicalName(name))
}

// DataFrame returns a copy of the underlying frame.
func (t *Table) DataFrame() dataframe.DataFrame { return t.df.Copy() }

// SortByDate returns a new table ordered by Race Date ascending. Rows with
// equal dates keep their relative order.
func (t *Table) SortByDate() (*Table, error) {
	if t.Len() == 0 {
		return t, nil
	}
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return t.dates[idx[a]].Before(t.dates[idx[b]])
	})
	return newTable(t.df.Subset(idx))
}

// WriteCSV serializes the table with its header. This is the only way a
// table reaches disk; no operation in this package writes files on its own.
func (t *Table) WriteCSV(w io.Writer) error {
	if err := t.df.WriteCSV(w); err != nil {
		return fmt.Errorf("write table csv: %w", err)
	}
	return nil
}

func (t *Table) weatherAt(i int) domain.Weather {
	return domain.Weather{
		AirTemperature:   t.weather[0][i],
		RelativeHumidity: t.weather[1][i],
		AirPressure:      t.weather[2][i],
		TrackTemperature: t.weather[3][i],
		WindSpeed:        t.weather[4][i],
	}
}

func (t *Table) hasPosition(i int) bool { return !math.IsNaN(t.positions[i]) }

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
