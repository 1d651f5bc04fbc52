package analysis

import (
	"encoding/json"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Mean is an average position over Races races. A Mean with zero races has
// no value; it is distinct from an average of 0.
type Mean struct {
	Value float64
	Races int
}

// Valid reports whether the mean was computed from at least one race.
func (m Mean) Valid() bool { return m.Races > 0 }

// MarshalJSON renders an invalid mean as null.
func (m Mean) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Value float64 `json:"value"`
		Races int     `json:"races"`
	}{m.Value, m.Races})
}

func (m Mean) String() string {
	if !m.Valid() {
		return "—"
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}

// RainDryStat is a driver's mean position in wet and in dry races.
type RainDryStat struct {
	Driver string `json:"driver"`
	Rain   Mean   `json:"rain"`
	Dry    Mean   `json:"dry"`
}

// RainDry splits the table on Rainfall and averages each driver's classified
// positions within each half. Results follow the order of drivers.
func RainDry(t *Table, drivers []string) []RainDryStat {
	stats := make([]RainDryStat, 0, len(drivers))
	for _, d := range drivers {
		d = canonicalName(d)
		var wet, dry []float64
		for i, name := range t.drivers {
			if name != d || math.IsNaN(t.positions[i]) {
				continue
			}
			if t.rain[i] {
				wet = append(wet, t.positions[i])
			} else {
				dry = append(dry, t.positions[i])
			}
		}
		stats = append(stats, RainDryStat{Driver: d, Rain: meanOf(wet), Dry: meanOf(dry)})
	}
	return stats
}

func meanOf(xs []float64) Mean {
	if len(xs) == 0 {
		return Mean{}
	}
	return Mean{Value: stat.Mean(xs, nil), Races: len(xs)}
}
