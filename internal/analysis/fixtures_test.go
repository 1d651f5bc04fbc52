package analysis

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

const (
	bahrain   = "Bahrain Grand Prix"
	saudi     = "Saudi Arabian Grand Prix"
	australia = "Australian Grand Prix"
)

type raceInfo struct {
	date    string
	rain    string
	weather [5]float64
}

var races = map[string]raceInfo{
	bahrain:   {"2024-03-02", "False", [5]float64{18, 46, 1017, 26, 1.0}},
	saudi:     {"2024-03-09", "True", [5]float64{25, 60, 1012, 30, 3.0}},
	australia: {"2024-03-24", "False", [5]float64{22, 50, 1015, 28, 2.0}},
}

type entry struct {
	race     string
	driver   string
	points   string
	position string
}

var header = []string{
	domain.ColRaceName, domain.ColRaceDate, domain.ColDriverName, domain.ColRacePoint,
	domain.ColPosition, domain.ColRainfall, domain.ColAirTemperature, domain.ColRelativeHumidity,
	domain.ColAirPressure, domain.ColTrackTemperature, domain.ColWindSpeed,
}

func records(entries ...entry) [][]string {
	out := [][]string{header}
	for _, e := range entries {
		info := races[e.race]
		row := []string{e.race, info.date, e.driver, e.points, e.position, info.rain}
		for _, w := range info.weather {
			row = append(row, strconv.FormatFloat(w, 'g', -1, 64))
		}
		out = append(out, row)
	}
	return out
}

func buildTable(t *testing.T, entries ...entry) *Table {
	t.Helper()
	tbl, err := FromRecords(records(entries...))
	require.NoError(t, err)
	return tbl
}

// seasonTable is stored out of date order on purpose: Saudi precedes Bahrain.
// Totals: alonso 10+15+0=25, verstappen 30, sainz 5.
func seasonTable(t *testing.T) *Table {
	return buildTable(t,
		entry{saudi, "alonso", "15", "1"},
		entry{saudi, "sainz", "0", ""},
		entry{bahrain, "verstappen", "30", "1"},
		entry{bahrain, "alonso", "10", "2"},
		entry{bahrain, "sainz", "5", "3"},
		entry{australia, "alonso", "0", "4"},
	)
}
