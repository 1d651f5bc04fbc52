package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
	"github.com/couchcryptid/f1-weather-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer flattens one raw race session into result rows. It returns
// domain.ErrTestSession or domain.ErrNoResults (possibly wrapped) for sessions
// that are valid but produce no rows.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) ([]domain.RaceResultRecord, error)
}

// BatchLoader writes flattened rows to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.RaceResultRecord) error
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int

	sessionsLoaded atomic.Int64
	rowsLoaded     atomic.Int64
	lastBatchAt    atomic.Int64 // unix nanos, 0 before the first load
}

// Stats is a point-in-time summary of what the pipeline has loaded.
type Stats struct {
	SessionsLoaded int64      `json:"sessions_loaded"`
	RowsLoaded     int64      `json:"rows_loaded"`
	LastBatchAt    *time.Time `json:"last_batch_at"`
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has loaded at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Stats reports the sessions and rows loaded since start.
func (p *Pipeline) Stats() Stats {
	st := Stats{
		SessionsLoaded: p.sessionsLoaded.Load(),
		RowsLoaded:     p.rowsLoaded.Load(),
	}
	if ns := p.lastBatchAt.Load(); ns != 0 {
		t := time.Unix(0, ns).UTC()
		st.LastBatchAt = &t
	}
	return st
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.SessionsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad flattens each session in the batch, loads all resulting
// rows in one call, and commits offsets. Skipped and malformed sessions are
// committed straight away. Returns the number of loaded rows and false if the
// pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	rows := make([]domain.RaceResultRecord, 0, len(rawBatch)*20)
	successfulRaws := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		records, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.handleTransformError(ctx, raw, err)
			continue
		}
		rows = append(rows, records...)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(rows) == 0 {
		for _, raw := range successfulRaws {
			p.commitOffset(ctx, raw)
		}
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, rows); err != nil {
		p.logger.Error("load batch failed", "error", err, "rows", len(rows), "sessions", len(successfulRaws))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}
	p.sessionsLoaded.Add(int64(len(successfulRaws)))
	p.rowsLoaded.Add(int64(len(rows)))
	p.lastBatchAt.Store(time.Now().UnixNano())

	p.logger.Debug("batch loaded", "rows", len(rows), "sessions", len(successfulRaws))
	return len(rows), true
}

// handleTransformError counts and commits a session that produced no rows.
// Testing sessions and sessions without results are expected skips; anything
// else is a poison message.
func (p *Pipeline) handleTransformError(ctx context.Context, raw domain.RawEvent, err error) {
	switch {
	case errors.Is(err, domain.ErrTestSession):
		p.metrics.SessionsSkipped.WithLabelValues("testing").Inc()
		p.logger.Info("skipping testing session", "key", string(raw.Key), "offset", raw.Offset)
	case errors.Is(err, domain.ErrNoResults):
		p.metrics.SessionsSkipped.WithLabelValues("no_results").Inc()
		p.logger.Info("skipping session without results", "key", string(raw.Key), "offset", raw.Offset)
	default:
		p.logger.Warn("transform failed, skipping message",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.TransformErrors.Inc()
	}
	p.commitOffset(ctx, raw)
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
