package domain

import (
	"context"
	"math"
	"strconv"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// RaceSession is the JSON document the collector publishes for one race session.
type RaceSession struct {
	Season            int             `json:"season"`
	Round             int             `json:"round"`
	OfficialEventName string          `json:"official_event_name"`
	Country           string          `json:"country"`
	Location          string          `json:"location"`
	EventFormat       string          `json:"event_format"`
	EventDate         string          `json:"event_date"` // YYYY-MM-DD
	SessionStart      time.Time       `json:"session_start"`
	IsTesting         bool            `json:"is_testing"`
	Results           []DriverResult  `json:"results"`
	Weather           []WeatherSample `json:"weather"`
}

// DriverResult is one line of a session's classification.
type DriverResult struct {
	DriverNumber string   `json:"driver_number"`
	DriverID     string   `json:"driver_id"`
	TeamName     string   `json:"team_name"`
	Position     *float64 `json:"position"`     // null when unclassified
	TimeSeconds  *float64 `json:"time_seconds"` // null when not finished
	Points       float64  `json:"points"`
	GridPosition float64  `json:"grid_position"`
}

// WeatherSample is a single weather observation taken during a session.
type WeatherSample struct {
	AirTemp   float64 `json:"air_temp"`
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
	Rainfall  bool    `json:"rainfall"`
	TrackTemp float64 `json:"track_temp"`
	WindSpeed float64 `json:"wind_speed"`
}

// Weather holds the five numeric race-level weather values.
type Weather struct {
	AirTemperature   float64 `json:"air_temperature"`
	RelativeHumidity float64 `json:"relative_humidity"`
	AirPressure      float64 `json:"air_pressure"`
	TrackTemperature float64 `json:"track_temperature"`
	WindSpeed        float64 `json:"wind_speed"`
}

// Values returns the weather values in WeatherColumns order.
func (w Weather) Values() [5]float64 {
	return [5]float64{w.AirTemperature, w.RelativeHumidity, w.AirPressure, w.TrackTemperature, w.WindSpeed}
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// RaceResultRecord is one flattened row: a single driver's result in a single race.
type RaceResultRecord struct {
	ID            string         `json:"id"`
	RaceName      string         `json:"race_name"`
	RaceLocation  string         `json:"race_location"`
	RaceDate      time.Time      `json:"race_date"`
	RaceFormat    string         `json:"race_format"`
	RaceStartTime time.Time      `json:"race_start_time"`
	Weather       Weather        `json:"weather"`
	Rainfall      bool           `json:"rainfall"`
	DriverNumber  string         `json:"driver_number"`
	DriverName    string         `json:"driver_name"`
	DriverTeam    string         `json:"driver_team"`
	Position      *int           `json:"position"`
	RaceTime      *time.Duration `json:"race_time"`
	RacePoints    float64        `json:"race_points"`
	GridPosition  int            `json:"grid_position"`

	// Circuit geocoding enrichment.
	Circuit   Geo    `json:"circuit,omitempty"`
	GeoSource string `json:"geo_source,omitempty"` // "forward", "original", "failed"

	IngestedAt time.Time `json:"ingested_at"`
}

// DriverRaceKey is the natural key of a row, "<driver number> : <race name>".
func (r RaceResultRecord) DriverRaceKey() string {
	return r.DriverNumber + " : " + r.RaceName
}

// CSVRow renders the record in TableColumns order.
func (r RaceResultRecord) CSVRow() []string {
	position := ""
	if r.Position != nil {
		position = strconv.Itoa(*r.Position)
	}
	raceTime := ""
	if r.RaceTime != nil {
		raceTime = r.RaceTime.String()
	}
	startTime := ""
	if !r.RaceStartTime.IsZero() {
		startTime = r.RaceStartTime.UTC().Format(time.RFC3339)
	}

	return []string{
		r.RaceName,
		r.RaceLocation,
		r.RaceDate.Format(time.DateOnly),
		r.RaceFormat,
		startTime,
		formatFloat(r.Weather.AirTemperature),
		formatFloat(r.Weather.RelativeHumidity),
		formatFloat(r.Weather.AirPressure),
		formatBool(r.Rainfall),
		formatFloat(r.Weather.TrackTemperature),
		formatFloat(r.Weather.WindSpeed),
		r.DriverNumber,
		r.DriverName,
		r.DriverRaceKey(),
		r.DriverTeam,
		position,
		raceTime,
		formatFloat(r.RacePoints),
		strconv.Itoa(r.GridPosition),
		formatFloat(r.Circuit.Lat),
		formatFloat(r.Circuit.Lon),
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatBool writes the tokens the provider-side tooling emits.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
