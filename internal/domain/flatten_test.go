package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func bahrainSession() RaceSession {
	return RaceSession{
		Season:            2024,
		Round:             1,
		OfficialEventName: "FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2024",
		Country:           "Bahrain",
		Location:          "Sakhir",
		EventFormat:       "conventional",
		EventDate:         "2024-03-02",
		SessionStart:      time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC),
		Results: []DriverResult{
			{DriverNumber: "1", DriverID: "max_verstappen", TeamName: "Red Bull Racing", Position: floatPtr(1), TimeSeconds: floatPtr(5504.742), Points: 26, GridPosition: 1},
			{DriverNumber: "11", DriverID: "perez", TeamName: "Red Bull Racing", Position: floatPtr(2), TimeSeconds: floatPtr(22.457), Points: 18, GridPosition: 5},
			{DriverNumber: "2", DriverID: "sargeant", TeamName: "Williams", Position: nil, TimeSeconds: nil, Points: 0, GridPosition: 20},
		},
		Weather: []WeatherSample{
			{AirTemp: 18, Humidity: 46, Pressure: 1017, TrackTemp: 26, WindSpeed: 1.0},
			{AirTemp: 20, Humidity: 44, Pressure: 1015, Rainfall: true, TrackTemp: 28, WindSpeed: 2.0},
		},
	}
}

func TestFlattenSession_OneRowPerDriver(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	records, err := FlattenSession(bahrainSession())
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2024", first.RaceName)
	assert.Equal(t, "Sakhir,Bahrain", first.RaceLocation)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), first.RaceDate)
	assert.Equal(t, "max_verstappen", first.DriverName)
	require.NotNil(t, first.Position)
	assert.Equal(t, 1, *first.Position)
	require.NotNil(t, first.RaceTime)
	assert.Equal(t, 5504742*time.Millisecond, *first.RaceTime)
	assert.Equal(t, fake.Now(), first.IngestedAt)
	assert.Equal(t, "1 : FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2024", first.DriverRaceKey())

	unclassified := records[2]
	assert.Nil(t, unclassified.Position)
	assert.Nil(t, unclassified.RaceTime)
	assert.Equal(t, 20, unclassified.GridPosition)
}

func TestFlattenSession_WeatherIsRaceInvariant(t *testing.T) {
	records, err := FlattenSession(bahrainSession())
	require.NoError(t, err)

	want := Weather{AirTemperature: 19, RelativeHumidity: 45, AirPressure: 1016, TrackTemperature: 27, WindSpeed: 1.5}
	for _, r := range records {
		assert.Equal(t, want, r.Weather)
		assert.True(t, r.Rainfall, "rain in any sample marks the race wet")
	}
}

func TestFlattenSession_Skips(t *testing.T) {
	practice := bahrainSession()
	practice.IsTesting = true
	_, err := FlattenSession(practice)
	assert.ErrorIs(t, err, ErrTestSession)

	empty := bahrainSession()
	empty.Results = nil
	_, err = FlattenSession(empty)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestFlattenSession_BadDate(t *testing.T) {
	s := bahrainSession()
	s.EventDate = "02/03/2024"

	_, err := FlattenSession(s)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoResults))
	assert.Contains(t, err.Error(), "event_date")
}

func TestFlattenSession_NegativePointsClamped(t *testing.T) {
	s := bahrainSession()
	s.Results[0].Points = -5

	records, err := FlattenSession(s)
	require.NoError(t, err)
	assert.Zero(t, records[0].RacePoints)
}

func TestFlattenSession_DeterministicIDs(t *testing.T) {
	a, err := FlattenSession(bahrainSession())
	require.NoError(t, err)
	b, err := FlattenSession(bahrainSession())
	require.NoError(t, err)

	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].ID, a[1].ID)
	assert.Regexp(t, `^result-[0-9a-f]{16}$`, a[0].ID)
}

func TestSummarizeWeather_NoSamples(t *testing.T) {
	w, rained := SummarizeWeather(nil)

	assert.False(t, rained)
	for _, v := range w.Values() {
		assert.True(t, math.IsNaN(v))
	}
}

func TestParseRawEvent(t *testing.T) {
	raw := RawEvent{Value: []byte(`{"official_event_name":"X GP","event_date":"2024-01-01","results":[{"driver_number":"4","position":3}]}`)}

	s, err := ParseRawEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "X GP", s.OfficialEventName)
	require.Len(t, s.Results, 1)
	assert.Equal(t, 3.0, *s.Results[0].Position)

	_, err = ParseRawEvent(RawEvent{Value: []byte(`{"country":"Italy"}`)})
	assert.Error(t, err)

	_, err = ParseRawEvent(RawEvent{Value: []byte(`not json`)})
	assert.Error(t, err)
}

func TestCSVRow(t *testing.T) {
	records, err := FlattenSession(bahrainSession())
	require.NoError(t, err)

	row := records[0].CSVRow()
	require.Len(t, row, len(TableColumns))
	assert.Equal(t, "2024-03-02", row[2])
	assert.Equal(t, "2024-03-02T15:00:00Z", row[4])
	assert.Equal(t, "19", row[5])
	assert.Equal(t, "True", row[8])
	assert.Equal(t, "1", row[11])
	assert.Equal(t, "max_verstappen", row[12])
	assert.Equal(t, "1", row[15])
	assert.Equal(t, "26", row[17])

	unclassified := records[2].CSVRow()
	assert.Empty(t, unclassified[15])
	assert.Empty(t, unclassified[16])

	nan := RaceResultRecord{Weather: Weather{AirTemperature: math.NaN()}}
	assert.Equal(t, "NaN", nan.CSVRow()[5])
}
