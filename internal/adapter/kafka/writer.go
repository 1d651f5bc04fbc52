package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/f1-weather-etl/internal/config"
	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// Writer publishes flattened result rows to the sink topic, one message per
// row keyed by record ID. It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes all rows in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.RaceResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RaceResultRecord into a Kafka message.
// Hash balancing on the ID keeps replays of a row on one partition.
func serializeToMessage(rec domain.RaceResultRecord) (kafkago.Message, error) {
	data, err := json.Marshal(newRecordMessage(rec))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize race result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "race_name", Value: []byte(rec.RaceName)},
			{Key: "ingested_at", Value: []byte(rec.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}

// recordMessage is the wire shape of a row. Weather averages of a session
// with no samples are NaN, which JSON cannot carry, so they become null.
type recordMessage struct {
	domain.RaceResultRecord
	Weather weatherMessage `json:"weather"`
}

type weatherMessage struct {
	AirTemperature   *float64 `json:"air_temperature"`
	RelativeHumidity *float64 `json:"relative_humidity"`
	AirPressure      *float64 `json:"air_pressure"`
	TrackTemperature *float64 `json:"track_temperature"`
	WindSpeed        *float64 `json:"wind_speed"`
}

func newRecordMessage(rec domain.RaceResultRecord) recordMessage {
	w := rec.Weather
	return recordMessage{
		RaceResultRecord: rec,
		Weather: weatherMessage{
			AirTemperature:   finite(w.AirTemperature),
			RelativeHumidity: finite(w.RelativeHumidity),
			AirPressure:      finite(w.AirPressure),
			TrackTemperature: finite(w.TrackTemperature),
			WindSpeed:        finite(w.WindSpeed),
		},
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
