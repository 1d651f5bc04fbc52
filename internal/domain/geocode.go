package domain

import (
	"context"
	"log/slog"
	"strings"
)

// EnrichWithGeocoding resolves the session's circuit once and stamps the
// coordinates on every record of that session. If geocoder is nil the records
// are returned untouched; if geocoding fails they are marked "failed" and keep
// zero coordinates (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, s RaceSession, records []RaceResultRecord, geocoder Geocoder, logger *slog.Logger) []RaceResultRecord {
	if geocoder == nil || len(records) == 0 {
		return records
	}

	locality := strings.TrimSpace(s.Location)
	if locality == "" {
		return stampGeo(records, Geo{}, "original")
	}

	result, err := geocoder.ForwardGeocode(ctx, locality, strings.TrimSpace(s.Country))
	if err != nil {
		logger.Warn("circuit geocoding failed",
			"race", s.OfficialEventName,
			"location", locality,
			"country", s.Country,
			"error", err,
		)
		return stampGeo(records, Geo{}, "failed")
	}
	if result.Lat == 0 && result.Lon == 0 {
		return stampGeo(records, Geo{}, "original")
	}
	return stampGeo(records, Geo{Lat: result.Lat, Lon: result.Lon}, "forward")
}

func stampGeo(records []RaceResultRecord, geo Geo, source string) []RaceResultRecord {
	for i := range records {
		records[i].Circuit = geo
		records[i].GeoSource = source
	}
	return records
}
