package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OverlayMode selects which races a multi-driver overlay covers.
type OverlayMode int

const (
	// OverlayUnion covers every race any listed driver took part in.
	OverlayUnion OverlayMode = iota
	// OverlayCommon covers only races every listed driver took part in.
	OverlayCommon
	// OverlayFirstDriver covers the first listed driver's races only.
	OverlayFirstDriver
)

func (m OverlayMode) String() string {
	switch m {
	case OverlayUnion:
		return "union"
	case OverlayCommon:
		return "common"
	case OverlayFirstDriver:
		return "first"
	default:
		return fmt.Sprintf("OverlayMode(%d)", int(m))
	}
}

// MarshalJSON encodes the mode by name.
func (m OverlayMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// ParseOverlayMode accepts "union", "common" or "first". Empty means union.
func ParseOverlayMode(s string) (OverlayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "union":
		return OverlayUnion, nil
	case "common":
		return OverlayCommon, nil
	case "first", "first-driver":
		return OverlayFirstDriver, nil
	}
	return 0, fmt.Errorf("unknown overlay mode %q (want union, common or first)", s)
}

// Placing is a driver's position in one overlay race. Valid is false when the
// driver has no classified result there.
type Placing struct {
	Position float64
	Valid    bool
}

// MarshalJSON renders an invalid placing as null.
func (p Placing) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Position)
}

// Track is one driver's placings, aligned to Overlay.Races.
type Track struct {
	Driver   string    `json:"driver"`
	Placings []Placing `json:"placings"`
}

// Overlay is the aligned data behind a weather-vs-position chart. Weather
// holds one slice per domain.WeatherColumns entry and every slice, weather
// and tracks alike, has len(Races) entries.
type Overlay struct {
	Mode    OverlayMode
	Races   []string
	Weather [5][]float64
	Drivers []Track
}

// WeatherOverlay aligns the drivers' positions and the per-race weather on a
// shared race axis chosen by mode. Races are in table order. Pass a
// normalized table to get weather on a [0,1] scale. A driver with no rows at
// all is reported as *MissingDataError rather than drawn as an empty line.
func WeatherOverlay(t *Table, drivers []string, mode OverlayMode) (Overlay, error) {
	names := make([]string, len(drivers))
	for i, d := range drivers {
		names[i] = canonicalName(d)
	}

	// rowOf[driver][race] is the driver's first row in that race.
	rowOf := make(map[string]map[string]int, len(names))
	for _, d := range names {
		rowOf[d] = make(map[string]int)
	}
	for i, d := range t.drivers {
		races, ok := rowOf[d]
		if !ok {
			continue
		}
		if _, seen := races[t.races[i]]; !seen {
			races[t.races[i]] = i
		}
	}
	for _, d := range names {
		if len(rowOf[d]) == 0 {
			return Overlay{}, &MissingDataError{Kind: "driver", Name: d}
		}
	}

	races := overlayRaces(t, names, rowOf, mode)

	out := Overlay{Mode: mode, Races: races, Drivers: make([]Track, len(names))}
	for k := range out.Weather {
		out.Weather[k] = make([]float64, len(races))
	}
	for j, race := range races {
		w, err := RaceWeather(t, race)
		if err != nil {
			return Overlay{}, err
		}
		for k, v := range w.Values() {
			out.Weather[k][j] = v
		}
	}

	for i, d := range names {
		track := Track{Driver: d, Placings: make([]Placing, len(races))}
		for j, race := range races {
			if row, ok := rowOf[d][race]; ok && t.hasPosition(row) {
				track.Placings[j] = Placing{Position: t.positions[row], Valid: true}
			}
		}
		out.Drivers[i] = track
	}
	return out, nil
}

func overlayRaces(t *Table, names []string, rowOf map[string]map[string]int, mode OverlayMode) []string {
	races := []string{}
	if len(names) == 0 {
		return races
	}
	for _, race := range t.Races() {
		switch mode {
		case OverlayFirstDriver:
			if _, ok := rowOf[names[0]][race]; ok {
				races = append(races, race)
			}
		case OverlayCommon:
			all := true
			for _, d := range names {
				if _, ok := rowOf[d][race]; !ok {
					all = false
					break
				}
			}
			if all {
				races = append(races, race)
			}
		default:
			for _, d := range names {
				if _, ok := rowOf[d][race]; ok {
					races = append(races, race)
					break
				}
			}
		}
	}
	return races
}
