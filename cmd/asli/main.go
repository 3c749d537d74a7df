// Command asli detects the Amundsen Sea Low in monthly mean sea level
// pressure fields and writes its location and depth time series as CSV,
// optionally publishing each record to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/asl-index-service/internal/adapter/fixture"
	"github.com/couchcryptid/asl-index-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/asl-index-service/internal/adapter/kafka"
	netcdfadapter "github.com/couchcryptid/asl-index-service/internal/adapter/netcdf"
	"github.com/couchcryptid/asl-index-service/internal/adapter/report"
	"github.com/couchcryptid/asl-index-service/internal/config"
	"github.com/couchcryptid/asl-index-service/internal/domain"
	"github.com/couchcryptid/asl-index-service/internal/observability"
	"github.com/couchcryptid/asl-index-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	source, mask, cleanup, err := openSource(cfg, logger)
	if err != nil {
		logger.Error("failed to open dataset", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	runner := pipeline.New(source, mask, pipeline.Options{
		Sector:      cfg.Sector(),
		Border:      cfg.WindowBorder,
		ContourStep: cfg.ContourStep,
		Workers:     cfg.Workers,
		StepTimeout: cfg.StepTimeout,
		Policy:      cfg.MissingPolicy,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, cfg, runner, logger, metrics)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, logger *slog.Logger, metrics *observability.Metrics) int {
	table, err := runner.Run(ctx)
	if err != nil {
		logger.Error("detection run failed", "error", err)
		return 1
	}
	if err := table.Validate(); err != nil {
		logger.Error("result table failed validation", "error", err)
		return 1
	}

	if err := report.WriteFile(cfg.OutputCSV, table); err != nil {
		logger.Error("failed to write csv", "error", err)
		return 1
	}
	logger.Info("csv written", "path", cfg.OutputCSV, "rows", len(table))

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		if err := writer.PublishTable(ctx, table); err != nil {
			logger.Error("failed to publish records", "error", err)
			return 1
		}
		metrics.RecordsPublished.Add(float64(len(table)))
		logger.Info("records published", "topic", cfg.KafkaSinkTopic, "count", len(table))
	}

	return 0
}

// openSource picks the dataset adapter by input type: a .json path is a
// self-contained fixture, anything else is treated as a glob of files with a
// separate mask file.
func openSource(cfg *config.Config, logger *slog.Logger) (pipeline.FieldSource, *domain.Mask, func(), error) {
	if strings.HasSuffix(cfg.MSLGlob, ".json") {
		src, err := fixture.Load(cfg.MSLGlob)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("fixture dataset loaded", "path", cfg.MSLGlob, "timesteps", len(src.Times()))
		return src, src.Mask(), func() {}, nil
	}

	src, err := netcdfadapter.Open(cfg.MSLGlob)
	if err != nil {
		return nil, nil, nil, err
	}
	mask, err := netcdfadapter.LoadMask(cfg.MaskPath, 0.5)
	if err != nil {
		src.Close()
		return nil, nil, nil, err
	}
	logger.Info("dataset opened", "glob", cfg.MSLGlob, "timesteps", len(src.Times()))
	return src, mask, src.Close, nil
}
