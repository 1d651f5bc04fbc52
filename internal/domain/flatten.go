package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTestSession marks a non-championship testing session.
	ErrTestSession = errors.New("testing session")
	// ErrNoResults marks a session with no classification yet.
	ErrNoResults = errors.New("session has no results")
)

// ParseRawEvent deserializes a RawEvent's value into a RaceSession.
func ParseRawEvent(raw RawEvent) (RaceSession, error) {
	var s RaceSession
	if err := json.Unmarshal(raw.Value, &s); err != nil {
		return RaceSession{}, fmt.Errorf("parse raw event: %w", err)
	}
	if strings.TrimSpace(s.OfficialEventName) == "" {
		return RaceSession{}, errors.New("parse raw event: missing official_event_name")
	}
	return s, nil
}

// FlattenSession turns a race session into one record per classified driver.
// Testing sessions and sessions without results return ErrTestSession and
// ErrNoResults respectively; callers treat both as skips, not failures.
func FlattenSession(s RaceSession) ([]RaceResultRecord, error) {
	if s.IsTesting {
		return nil, ErrTestSession
	}
	if len(s.Results) == 0 {
		return nil, ErrNoResults
	}

	raceDate, err := time.Parse(time.DateOnly, strings.TrimSpace(s.EventDate))
	if err != nil {
		return nil, fmt.Errorf("flatten %q: event_date: %w", s.OfficialEventName, err)
	}

	weather, rained := SummarizeWeather(s.Weather)
	raceName := strings.TrimSpace(s.OfficialEventName)
	location := fmt.Sprintf("%s,%s", s.Location, s.Country)
	now := clock.Now()

	records := make([]RaceResultRecord, 0, len(s.Results))
	for _, res := range s.Results {
		rec := RaceResultRecord{
			ID:            generateID(raceName, res.DriverNumber),
			RaceName:      raceName,
			RaceLocation:  location,
			RaceDate:      raceDate,
			RaceFormat:    s.EventFormat,
			RaceStartTime: s.SessionStart.UTC(),
			Weather:       weather,
			Rainfall:      rained,
			DriverNumber:  res.DriverNumber,
			DriverName:    res.DriverID,
			DriverTeam:    res.TeamName,
			Position:      roundedInt(res.Position),
			RaceTime:      secondsToDuration(res.TimeSeconds),
			RacePoints:    math.Max(res.Points, 0),
			GridPosition:  int(math.Round(res.GridPosition)),
			IngestedAt:    now,
		}
		records = append(records, rec)
	}
	return records, nil
}

// SummarizeWeather averages each numeric weather field over the samples and
// reports whether rain fell in any of them. With no samples every average is NaN.
func SummarizeWeather(samples []WeatherSample) (Weather, bool) {
	if len(samples) == 0 {
		nan := math.NaN()
		return Weather{nan, nan, nan, nan, nan}, false
	}

	n := len(samples)
	air := make([]float64, n)
	hum := make([]float64, n)
	press := make([]float64, n)
	track := make([]float64, n)
	wind := make([]float64, n)
	rained := false
	for i, s := range samples {
		air[i] = s.AirTemp
		hum[i] = s.Humidity
		press[i] = s.Pressure
		track[i] = s.TrackTemp
		wind[i] = s.WindSpeed
		rained = rained || s.Rainfall
	}

	return Weather{
		AirTemperature:   stat.Mean(air, nil),
		RelativeHumidity: stat.Mean(hum, nil),
		AirPressure:      stat.Mean(press, nil),
		TrackTemperature: stat.Mean(track, nil),
		WindSpeed:        stat.Mean(wind, nil),
	}, rained
}

func roundedInt(v *float64) *int {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func secondsToDuration(v *float64) *time.Duration {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	d := time.Duration(*v * float64(time.Second)).Round(time.Millisecond)
	return &d
}

// generateID produces a deterministic ID from the race name and driver number.
func generateID(raceName, driverNumber string) string {
	hash := sha256.Sum256([]byte(raceName + "|" + driverNumber))
	return "result-" + hex.EncodeToString(hash[:8])
}
