package analysis

import (
	"strings"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// RaceWeather returns the five weather values of the named race, read from
// its first row. Weather is race-invariant, so any row would do; Validate
// checks that the table honours this.
func RaceWeather(t *Table, race string) (domain.Weather, error) {
	race = strings.TrimSpace(race)
	for i, r := range t.races {
		if r == race {
			return t.weatherAt(i), nil
		}
	}
	return domain.Weather{}, &MissingDataError{Kind: "race", Name: race}
}
