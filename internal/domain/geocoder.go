package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves a circuit's locality to coordinates.
type Geocoder interface {
	// ForwardGeocode converts a locality and country to coordinates.
	ForwardGeocode(ctx context.Context, locality, country string) (GeocodingResult, error)
}
