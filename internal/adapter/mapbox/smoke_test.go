//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/f1-weather-etl/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode_Circuit(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Silverstone", "United Kingdom")
	require.NoError(t, err)

	assert.InDelta(t, 52.07, result.Lat, 0.2, "lat should be near Silverstone")
	assert.InDelta(t, -1.02, result.Lon, 0.2, "lon should be near Silverstone")
	assert.Contains(t, result.FormattedAddress, "Silverstone")
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "Spa-Francorchamps", "Belgium")
	require.NoError(t, err)

	r2, err := cached.ForwardGeocode(context.Background(), "Spa-Francorchamps", "Belgium")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
