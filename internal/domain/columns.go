package domain

// Column names of the flat result table. Ingestion writes them and the
// analysis pipeline reads them; keep both sides on these constants.
const (
	ColRaceName         = "Race Name"
	ColRaceLocation     = "Race Location"
	ColRaceDate         = "Race Date"
	ColRaceFormat       = "Race Format"
	ColRaceStartTime    = "Race Start Time"
	ColAirTemperature   = "Air Temperature"
	ColRelativeHumidity = "Relative Humidity"
	ColAirPressure      = "Air Pressure"
	ColRainfall         = "Rainfall"
	ColTrackTemperature = "Track Temperature"
	ColWindSpeed        = "Wind Speed"
	ColDriverID         = "Driver ID"
	ColDriverName       = "Driver Name"
	ColDriverRaceKey    = "Driver Number and Race Name"
	ColDriverTeam       = "Driver Team"
	ColPosition         = "Position"
	ColRaceTime         = "Race Time"
	ColRacePoint        = "Race Point"
	ColGridPosition     = "Race Grid Position"
	ColCircuitLat       = "Circuit Latitude"
	ColCircuitLon       = "Circuit Longitude"
)

// WeatherColumns lists the numeric race-level weather columns in display order.
var WeatherColumns = []string{
	ColAirTemperature,
	ColRelativeHumidity,
	ColAirPressure,
	ColTrackTemperature,
	ColWindSpeed,
}

// RequiredColumns are the columns the analysis pipeline cannot run without.
var RequiredColumns = []string{
	ColDriverName,
	ColRacePoint,
	ColPosition,
	ColRaceName,
	ColRaceDate,
	ColRainfall,
	ColAirTemperature,
	ColRelativeHumidity,
	ColAirPressure,
	ColTrackTemperature,
	ColWindSpeed,
}

// TableColumns is the full header written by the ingestion sinks, in order.
var TableColumns = []string{
	ColRaceName,
	ColRaceLocation,
	ColRaceDate,
	ColRaceFormat,
	ColRaceStartTime,
	ColAirTemperature,
	ColRelativeHumidity,
	ColAirPressure,
	ColRainfall,
	ColTrackTemperature,
	ColWindSpeed,
	ColDriverID,
	ColDriverName,
	ColDriverRaceKey,
	ColDriverTeam,
	ColPosition,
	ColRaceTime,
	ColRacePoint,
	ColGridPosition,
	ColCircuitLat,
	ColCircuitLon,
}
