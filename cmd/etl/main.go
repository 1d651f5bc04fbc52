package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/f1-weather-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/f1-weather-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/f1-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/f1-weather-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/f1-weather-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/f1-weather-etl/internal/config"
	"github.com/couchcryptid/f1-weather-etl/internal/domain"
	"github.com/couchcryptid/f1-weather-etl/internal/observability"
	"github.com/couchcryptid/f1-weather-etl/internal/pipeline"
)

// serviceStatus backs the /status endpoint.
type serviceStatus struct {
	runID    string
	sinks    []string
	pipeline *pipeline.Pipeline
}

func (s serviceStatus) Status() any {
	return struct {
		RunID string   `json:"run_id"`
		Sinks []string `json:"sinks"`
		pipeline.Stats
	}{s.runID, s.sinks, s.pipeline.Stats()}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat).With("run_id", runID)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Circuit geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	table, err := csvfile.Open(cfg.TablePath, cfg.RowLimit, logger)
	if err != nil {
		logger.Error("failed to open csv table", "error", err)
		os.Exit(1)
	}
	closers := []namedCloser{{"csv table", table}}
	sinks := []pipeline.Sink{{Name: "csv", Loader: table}}

	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, runID, logger)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err)
			closeAll(logger, closers)
			os.Exit(1)
		}
		closers = append(closers, namedCloser{"sqlite store", store})
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Loader: store})
	}

	if cfg.KafkaSinkTopic != "" {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, namedCloser{"kafka writer", writer})
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	closers = append([]namedCloser{{"kafka reader", reader}}, closers...)

	loader := pipeline.NewMultiLoader(metrics, sinks...)
	transformer := pipeline.NewTransformer(geocoder, logger)
	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)
	logger.Info("sinks configured", "sinks", loader.Names())

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:   cfg.HTTPAddr,
		Ready:  p,
		Status: serviceStatus{runID: runID, sinks: loader.Names(), pipeline: p},
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	closeAll(logger, closers)

	logger.Info("shutdown complete", "stats", p.Stats())
}

type namedCloser struct {
	name   string
	closer interface{ Close() error }
}

func closeAll(logger *slog.Logger, closers []namedCloser) {
	for _, c := range closers {
		if err := c.closer.Close(); err != nil {
			logger.Error(c.name+" close error", "error", err)
		}
	}
}
