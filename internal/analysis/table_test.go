package analysis

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

func TestFromRecords_TypedColumns(t *testing.T) {
	tbl := seasonTable(t)

	assert.Equal(t, 6, tbl.Len())
	assert.Equal(t, []string{"alonso", "sainz", "verstappen"}, tbl.Drivers())
	assert.Equal(t, []string{saudi, bahrain, australia}, tbl.Races())
	assert.True(t, tbl.rain[0])
	assert.False(t, tbl.rain[2])
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), tbl.dates[0])
	assert.False(t, tbl.hasPosition(1), "blank position is unclassified")
	assert.Equal(t, 30.0, tbl.points[2])
}

func TestFromRecords_MissingColumn(t *testing.T) {
	for _, col := range domain.RequiredColumns {
		t.Run(col, func(t *testing.T) {
			recs := records(entry{bahrain, "alonso", "10", "2"})
			idx := -1
			for i, h := range recs[0] {
				if h == col {
					idx = i
				}
			}
			require.GreaterOrEqual(t, idx, 0)
			for i := range recs {
				recs[i] = append(append([]string{}, recs[i][:idx]...), recs[i][idx+1:]...)
			}

			_, err := FromRecords(recs)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, col, schemaErr.Column)
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func TestFromRecords_BadRainfall(t *testing.T) {
	recs := records(entry{bahrain, "alonso", "10", "2"})
	recs[1][5] = "sometimes"

	_, err := FromRecords(recs)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, domain.ColRainfall, schemaErr.Column)
	assert.Equal(t, 1, schemaErr.Row)
}

func TestFromRecords_RainfallTokens(t *testing.T) {
	for token, want := range map[string]bool{"True": true, "false": false, "1": true, "0": false, "yes": true, "No": false, "t": true} {
		got, err := parseRainfall(token)
		require.NoError(t, err, token)
		assert.Equal(t, want, got, token)
	}
}

func TestFromRecords_BadDate(t *testing.T) {
	recs := records(entry{bahrain, "alonso", "10", "2"})
	recs[1][1] = "March 2nd"

	_, err := FromRecords(recs)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, domain.ColRaceDate, schemaErr.Column)
}

func TestFromRecords_DateLayouts(t *testing.T) {
	for _, v := range []string{"2024-03-02", "2024-03-02 15:00:00", "2024-03-02T15:00:00Z", "2024-03-02T15:00:00"} {
		d, err := parseDate(v)
		require.NoError(t, err, v)
		assert.Equal(t, 2, d.Day())
	}
}

func TestFromRecords_BadNumber(t *testing.T) {
	tests := []struct {
		name   string
		points string
		pos    string
		col    string
		value  string
	}{
		{"word points", "twenty", "1", domain.ColRacePoint, "twenty"},
		{"word position", "2", "x", domain.ColPosition, "x"},
		{"infinite points", "Inf", "1", domain.ColRacePoint, "Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := records(entry{bahrain, "alonso", "10", "2"}, entry{bahrain, "sainz", tt.points, tt.pos})

			_, err := FromRecords(recs)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.col, schemaErr.Column)
			assert.Equal(t, 2, schemaErr.Row)
			assert.Equal(t, tt.value, schemaErr.Value)
			assert.Equal(t, "not a number", schemaErr.Reason)
		})
	}
}

func TestFromRecords_BadWeatherNumber(t *testing.T) {
	recs := records(entry{bahrain, "alonso", "10", "2"})
	recs[1][8] = "1017hPa"

	_, err := FromRecords(recs)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, domain.ColAirPressure, schemaErr.Column)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestFromRecords_PaddedNumbers(t *testing.T) {
	tbl := buildTable(t,
		entry{bahrain, "alonso", " 18 ", " 2 "},
		entry{bahrain, "sainz", "25", "1"},
	)

	assert.Equal(t, []Standing{{Driver: "sainz", Points: 25}, {Driver: "alonso", Points: 18}}, RankDrivers(tbl, 2))
	assert.Equal(t, []float64{2}, DriverSeries(tbl, "alonso").Positions)
}

func TestFromRecords_MissingNumbersStayNaN(t *testing.T) {
	recs := records(entry{bahrain, "alonso", "10", "NaN"})
	recs[1][6] = ""

	tbl, err := FromRecords(recs)
	require.NoError(t, err)
	assert.False(t, tbl.hasPosition(0))
	assert.True(t, math.IsNaN(tbl.weather[0][0]))
}

func TestFromRecords_MissingKey(t *testing.T) {
	for _, v := range []string{"", "  ", "NA", "NaN"} {
		t.Run("driver "+v, func(t *testing.T) {
			_, err := FromRecords(records(entry{bahrain, "alonso", "25", "1"}, entry{bahrain, v, "18", "2"}))

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, domain.ColDriverName, schemaErr.Column)
			assert.Equal(t, 2, schemaErr.Row)
		})
	}

	recs := records(entry{bahrain, "alonso", "25", "1"})
	recs[1][0] = "NA"
	_, err := FromRecords(recs)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, domain.ColRaceName, schemaErr.Column)
}

func TestTable_HasDriver(t *testing.T) {
	tbl := buildTable(t, entry{bahrain, "P\u00e9rez", "18", "2"})
	assert.True(t, tbl.HasDriver("Pe\u0301rez "))
	assert.False(t, tbl.HasDriver("perez"))
}

func TestFromRecords_HeaderOnly(t *testing.T) {
	tbl, err := FromRecords([][]string{header})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Drivers())
}

func TestFromRecords_NFCDriverNames(t *testing.T) {
	decomposed := "Pe\u0301rez"
	composed := "P\u00e9rez"
	tbl := buildTable(t,
		entry{bahrain, decomposed, "18", "2"},
		entry{saudi, " " + composed, "15", "3"},
	)

	assert.Equal(t, []string{composed}, tbl.Drivers())
	assert.Equal(t, 2, DriverSeries(tbl, decomposed).Len())
}

func TestFromRecords_DoesNotMutateInput(t *testing.T) {
	recs := records(entry{bahrain, " alonso ", "10", "2"})
	_, err := FromRecords(recs)
	require.NoError(t, err)
	assert.Equal(t, " alonso ", recs[1][2])
}

func TestLoad_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	var buf bytes.Buffer
	require.NoError(t, seasonTable(t).WriteCSV(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, tbl.Len())
	assert.Equal(t, []string{saudi, bahrain, australia}, tbl.Races())
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	f := excelize.NewFile()
	for r, row := range records(entry{bahrain, "alonso", "10", "2"}, entry{saudi, "alonso", "15", "1"}) {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{bahrain, saudi}, tbl.Races())
	assert.Equal(t, 1.0, tbl.positions[1])
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("results.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSortByDate(t *testing.T) {
	sorted, err := seasonTable(t).SortByDate()
	require.NoError(t, err)

	assert.Equal(t, []string{bahrain, saudi, australia}, sorted.Races())
	// Stable: Bahrain rows keep their original relative order.
	assert.Equal(t, []string{"verstappen", "alonso", "sainz"}, sorted.drivers[:3])
}

func TestWriteCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, seasonTable(t).WriteCSV(&buf))

	firstLine, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, strings.Join(header, ","), firstLine)
}
