package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// RaceTransformer implements Transformer: parse, flatten, then optionally
// geocode the circuit.
type RaceTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a RaceTransformer. Pass a nil geocoder to disable
// circuit geocoding.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *RaceTransformer {
	return &RaceTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *RaceTransformer) Transform(ctx context.Context, raw domain.RawEvent) ([]domain.RaceResultRecord, error) {
	session, err := domain.ParseRawEvent(raw)
	if err != nil {
		return nil, err
	}

	records, err := domain.FlattenSession(session)
	if err != nil {
		return nil, fmt.Errorf("%s round %d: %w", session.OfficialEventName, session.Round, err)
	}

	return domain.EnrichWithGeocoding(ctx, session, records, t.geocoder, t.logger), nil
}
