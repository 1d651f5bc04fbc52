package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherOverlay_Union(t *testing.T) {
	o, err := WeatherOverlay(seasonTable(t), []string{"alonso", "verstappen"}, OverlayUnion)
	require.NoError(t, err)

	assert.Equal(t, []string{saudi, bahrain, australia}, o.Races)
	assert.Equal(t, []Placing{{1, true}, {2, true}, {4, true}}, o.Drivers[0].Placings)
	assert.Equal(t, []Placing{{}, {1, true}, {}}, o.Drivers[1].Placings)
	assert.Equal(t, []float64{25, 18, 22}, o.Weather[0])
}

func TestWeatherOverlay_Common(t *testing.T) {
	o, err := WeatherOverlay(seasonTable(t), []string{"alonso", "sainz"}, OverlayCommon)
	require.NoError(t, err)

	// Sainz took part in Saudi without being classified; the race counts as common.
	assert.Equal(t, []string{saudi, bahrain}, o.Races)
	assert.Equal(t, []Placing{{}, {3, true}}, o.Drivers[1].Placings)
}

func TestWeatherOverlay_FirstDriver(t *testing.T) {
	o, err := WeatherOverlay(seasonTable(t), []string{"verstappen", "alonso"}, OverlayFirstDriver)
	require.NoError(t, err)

	assert.Equal(t, []string{bahrain}, o.Races)
	assert.Equal(t, []Placing{{2, true}}, o.Drivers[1].Placings)
}

func TestWeatherOverlay_AllSeriesAligned(t *testing.T) {
	tbl := seasonTable(t)
	drivers := TopDrivers(tbl, TopN)
	for _, mode := range []OverlayMode{OverlayUnion, OverlayCommon, OverlayFirstDriver} {
		o, err := WeatherOverlay(tbl, drivers, mode)
		require.NoError(t, err, mode)
		for k := range o.Weather {
			assert.Len(t, o.Weather[k], len(o.Races), mode)
		}
		for _, tr := range o.Drivers {
			assert.Len(t, tr.Placings, len(o.Races), mode)
		}
	}
}

func TestWeatherOverlay_NormalizedWeather(t *testing.T) {
	norm, err := Normalize(seasonTable(t), NormalizeOptions{})
	require.NoError(t, err)

	o, err := WeatherOverlay(norm, []string{"alonso"}, OverlayUnion)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0}, o.Weather[0][:2])
}

func TestWeatherOverlay_UnknownDriver(t *testing.T) {
	_, err := WeatherOverlay(seasonTable(t), []string{"alonso", "nobody"}, OverlayUnion)

	var missing *MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "driver", missing.Kind)
}

func TestWeatherOverlay_NoDrivers(t *testing.T) {
	o, err := WeatherOverlay(seasonTable(t), nil, OverlayUnion)
	require.NoError(t, err)
	assert.Empty(t, o.Races)
}

func TestParseOverlayMode(t *testing.T) {
	for in, want := range map[string]OverlayMode{"": OverlayUnion, "UNION": OverlayUnion, "common": OverlayCommon, "first": OverlayFirstDriver} {
		got, err := ParseOverlayMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseOverlayMode("intersection")
	assert.Error(t, err)
}

func TestPlacing_JSON(t *testing.T) {
	b, err := json.Marshal([]Placing{{3, true}, {}})
	require.NoError(t, err)
	assert.JSONEq(t, `[3,null]`, string(b))
}
