package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
	last   [2]string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, locality, country string) (GeocodingResult, error) {
	m.calls++
	m.last = [2]string{locality, country}
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoRecords() []RaceResultRecord {
	return []RaceResultRecord{{ID: "r-1"}, {ID: "r-2"}}
}

// --- tests ---

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	s := RaceSession{Location: "Sakhir", Country: "Bahrain"}

	result := EnrichWithGeocoding(context.Background(), s, twoRecords(), nil, discardLogger())

	for _, r := range result {
		assert.Empty(t, r.GeoSource)
		assert.Zero(t, r.Circuit.Lat)
	}
}

func TestEnrichWithGeocoding_Forward(t *testing.T) {
	geo := &mockGeocoder{
		result: GeocodingResult{Lat: 26.0325, Lon: 50.5106, PlaceName: "Sakhir", FormattedAddress: "Sakhir, Bahrain"},
	}
	s := RaceSession{Location: "Sakhir", Country: "Bahrain"}

	result := EnrichWithGeocoding(context.Background(), s, twoRecords(), geo, discardLogger())

	assert.Equal(t, 1, geo.calls, "one lookup per session, not per row")
	assert.Equal(t, [2]string{"Sakhir", "Bahrain"}, geo.last)
	for _, r := range result {
		assert.Equal(t, "forward", r.GeoSource)
		assert.Equal(t, 26.0325, r.Circuit.Lat)
		assert.Equal(t, 50.5106, r.Circuit.Lon)
	}
}

func TestEnrichWithGeocoding_Error_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("rate limited")}
	s := RaceSession{Location: "Monza", Country: "Italy"}

	result := EnrichWithGeocoding(context.Background(), s, twoRecords(), geo, discardLogger())

	for _, r := range result {
		assert.Equal(t, "failed", r.GeoSource)
		assert.Zero(t, r.Circuit.Lat)
	}
}

func TestEnrichWithGeocoding_NoLocation(t *testing.T) {
	geo := &mockGeocoder{}

	result := EnrichWithGeocoding(context.Background(), RaceSession{}, twoRecords(), geo, discardLogger())

	assert.Equal(t, 0, geo.calls)
	assert.Equal(t, "original", result[0].GeoSource)
}

func TestEnrichWithGeocoding_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	s := RaceSession{Location: "Nowhere", Country: "XX"}

	result := EnrichWithGeocoding(context.Background(), s, twoRecords(), geo, discardLogger())

	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, "original", result[1].GeoSource)
}

func TestEnrichWithGeocoding_NoRecords(t *testing.T) {
	geo := &mockGeocoder{}
	s := RaceSession{Location: "Sakhir", Country: "Bahrain"}

	result := EnrichWithGeocoding(context.Background(), s, nil, geo, discardLogger())

	assert.Empty(t, result)
	assert.Equal(t, 0, geo.calls)
}
