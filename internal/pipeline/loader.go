package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
	"github.com/couchcryptid/f1-weather-etl/internal/observability"
)

// Sink is a named BatchLoader.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// RowCounter is implemented by sinks that may write fewer rows than given,
// for example by skipping keys they already hold.
type RowCounter interface {
	LoadBatchRows(ctx context.Context, records []domain.RaceResultRecord) (int, error)
}

// MultiLoader writes every batch to each sink in order. A failing sink fails
// the whole batch so offsets are not committed; sinks are expected to be
// idempotent on the record ID so the retry is safe.
type MultiLoader struct {
	sinks   []Sink
	metrics *observability.Metrics
}

// NewMultiLoader fans batches out to sinks.
func NewMultiLoader(metrics *observability.Metrics, sinks ...Sink) *MultiLoader {
	return &MultiLoader{sinks: sinks, metrics: metrics}
}

func (m *MultiLoader) LoadBatch(ctx context.Context, records []domain.RaceResultRecord) error {
	for _, s := range m.sinks {
		n, err := loadSink(ctx, s.Loader, records)
		if n > 0 {
			m.metrics.RowsWritten.WithLabelValues(s.Name).Add(float64(n))
		}
		if err != nil {
			return fmt.Errorf("%s sink: %w", s.Name, err)
		}
	}
	return nil
}

func loadSink(ctx context.Context, l BatchLoader, records []domain.RaceResultRecord) (int, error) {
	if c, ok := l.(RowCounter); ok {
		return c.LoadBatchRows(ctx, records)
	}
	if err := l.LoadBatch(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Names lists the configured sinks.
func (m *MultiLoader) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}
