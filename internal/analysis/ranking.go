package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// TopN is the size of the standard championship ranking.
const TopN = 5

// Standing is a driver's cumulative points over the table.
type Standing struct {
	Driver string  `json:"driver"`
	Points float64 `json:"points"`
}

// RankDrivers sums Race Point per driver and returns the n highest totals in
// descending order. Drivers with equal totals keep the order in which they
// first appear in the table. Missing points count as zero.
func RankDrivers(t *Table, n int) []Standing {
	if t.Len() == 0 || n <= 0 {
		return []Standing{}
	}

	order := t.Drivers()
	perDriver := make(map[string][]float64, len(order))
	for i, d := range t.drivers {
		p := t.points[i]
		if math.IsNaN(p) {
			p = 0
		}
		perDriver[d] = append(perDriver[d], p)
	}

	standings := make([]Standing, len(order))
	for i, d := range order {
		standings[i] = Standing{Driver: d, Points: floats.Sum(perDriver[d])}
	}
	sort.SliceStable(standings, func(a, b int) bool {
		return standings[a].Points > standings[b].Points
	})

	if len(standings) > n {
		standings = standings[:n]
	}
	return standings
}

// TopDrivers is RankDrivers reduced to names.
func TopDrivers(t *Table, n int) []string {
	standings := RankDrivers(t, n)
	names := make([]string, len(standings))
	for i, s := range standings {
		names[i] = s.Driver
	}
	return names
}
