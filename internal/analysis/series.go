package analysis

import "time"

// Series is one driver's race-by-race positions. The three slices always
// have equal length.
type Series struct {
	Driver    string      `json:"driver"`
	Positions []float64   `json:"positions"`
	RaceNames []string    `json:"race_names"`
	RaceDates []time.Time `json:"race_dates"`
}

// Len returns the number of races in the series.
func (s Series) Len() int { return len(s.Positions) }

// DriverSeries returns the driver's classified positions in table order.
// Sort the table by date first for a time series. Rows without a position are
// skipped; an unknown driver yields an empty series.
func DriverSeries(t *Table, driver string) Series {
	driver = canonicalName(driver)
	s := Series{
		Driver:    driver,
		Positions: []float64{},
		RaceNames: []string{},
		RaceDates: []time.Time{},
	}
	for i, d := range t.drivers {
		if d != driver || !t.hasPosition(i) {
			continue
		}
		s.Positions = append(s.Positions, t.positions[i])
		s.RaceNames = append(s.RaceNames, t.races[i])
		s.RaceDates = append(s.RaceDates, t.dates[i])
	}
	return s
}
