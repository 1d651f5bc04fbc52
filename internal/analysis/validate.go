package analysis

import (
	"fmt"
	"math"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// Integrity rules checked by Validate.
const (
	RuleRaceInvariantWeather = "race-invariant-weather"
	RuleUniquePosition       = "unique-position"
	RuleNonNegativePoints    = "non-negative-points"
)

// Violation is one broken data-model invariant. Row is 1-based.
type Violation struct {
	Rule   string `json:"rule"`
	Row    int    `json:"row"`
	Race   string `json:"race"`
	Driver string `json:"driver"`
	Detail string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("row %d [%s] %s / %s: %s", v.Row, v.Rule, v.Race, v.Driver, v.Detail)
}

// Validate checks the table's invariants: weather and rainfall identical on
// every row of a race, classified positions unique within a race, and
// non-negative points.
func Validate(t *Table) []Violation {
	var out []Violation
	firstRow := make(map[string]int)
	type slot struct {
		race string
		pos  float64
	}
	positionRow := make(map[slot]int)

	for i := 0; i < t.Len(); i++ {
		race, driver := t.races[i], t.drivers[i]
		violation := func(rule, detail string) {
			out = append(out, Violation{Rule: rule, Row: i + 1, Race: race, Driver: driver, Detail: detail})
		}

		if first, ok := firstRow[race]; !ok {
			firstRow[race] = i
		} else {
			if col, ok := weatherDiffers(t, first, i); ok {
				violation(RuleRaceInvariantWeather, fmt.Sprintf("%s differs from row %d", col, first+1))
			} else if t.rain[first] != t.rain[i] {
				violation(RuleRaceInvariantWeather, fmt.Sprintf("Rainfall differs from row %d", first+1))
			}
		}

		if t.hasPosition(i) {
			key := slot{race, t.positions[i]}
			if prev, dup := positionRow[key]; dup {
				violation(RuleUniquePosition, fmt.Sprintf("position %g already taken by row %d", t.positions[i], prev+1))
			} else {
				positionRow[key] = i
			}
		}

		if t.points[i] < 0 {
			violation(RuleNonNegativePoints, fmt.Sprintf("race points %g", t.points[i]))
		}
	}
	return out
}

func weatherDiffers(t *Table, a, b int) (string, bool) {
	for k, col := range domain.WeatherColumns {
		x, y := t.weather[k][a], t.weather[k][b]
		if math.IsNaN(x) && math.IsNaN(y) {
			continue
		}
		if x != y {
			return col, true
		}
	}
	return "", false
}
