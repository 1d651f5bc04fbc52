package analysis

import (
	"math"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// NormalizeOptions controls min-max scaling.
type NormalizeOptions struct {
	// Strict rejects constant columns with *DegenerateColumnError instead of
	// mapping them to zero.
	Strict bool
}

// Normalize rescales the five weather columns to [0,1], each by its own min
// and max. The input table is left unchanged.
func Normalize(t *Table, opts NormalizeOptions) (*Table, error) {
	return NormalizeColumns(t, opts, domain.WeatherColumns...)
}

// NormalizeColumns rescales the named numeric columns to [0,1] and returns a
// new table. NaN cells are ignored when finding min and max and stay NaN.
// A constant column maps to 0 unless opts.Strict is set.
func NormalizeColumns(t *Table, opts NormalizeOptions, cols ...string) (*Table, error) {
	df := t.df.Copy()
	for _, col := range cols {
		if !t.Has(col) {
			return nil, &SchemaError{Column: col, Reason: "column to normalize is missing"}
		}
		scaled, err := minMaxScale(col, df.Col(col).Float(), opts.Strict)
		if err != nil {
			return nil, err
		}
		df = df.Mutate(series.New(scaled, series.Float, col))
	}
	return newTable(df)
}

func minMaxScale(col string, values []float64, strict bool) ([]float64, error) {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	out := make([]float64, len(values))
	copy(out, values)
	if len(present) == 0 {
		return out, nil
	}

	lo, hi := floats.Min(present), floats.Max(present)
	if hi == lo {
		if strict {
			return nil, &DegenerateColumnError{Column: col, Value: lo}
		}
		for i, v := range out {
			if !math.IsNaN(v) {
				out[i] = 0
			}
		}
		return out, nil
	}

	span := hi - lo
	for i, v := range out {
		if !math.IsNaN(v) {
			out[i] = (v - lo) / span
		}
	}
	return out, nil
}
