package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/couchcryptid/precip-data-etl/internal/adapter/cptec"
	httpadapter "github.com/couchcryptid/precip-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/precip-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/precip-data-etl/internal/adapter/mongosink"
	"github.com/couchcryptid/precip-data-etl/internal/adapter/parquetsink"
	"github.com/couchcryptid/precip-data-etl/internal/catalog"
	"github.com/couchcryptid/precip-data-etl/internal/config"
	"github.com/couchcryptid/precip-data-etl/internal/observability"
	"github.com/couchcryptid/precip-data-etl/internal/pipeline"
)

func main() {
	startFlag := flag.String("start", "", "range start, RFC 3339 (e.g. 2025-01-02T23:00:00Z)")
	endFlag := flag.String("end", "", "range end, RFC 3339")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	params, err := parseRange(*startFlag, *endFlag)
	if err != nil {
		logger.Error("invalid time range", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger, params); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// parseRange turns the -start/-end flags into pipeline parameters. When both
// flags are empty the range defaults to the window ending at the most recent
// 12:00 UTC boundary.
func parseRange(start, end string) (pipeline.Params, error) {
	if start == "" && end == "" {
		now := time.Now().UTC()
		anchor := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)
		if now.Before(anchor) {
			anchor = anchor.Add(-24 * time.Hour)
		}
		return pipeline.Params{Start: anchor.Add(-24 * time.Hour), End: anchor}, nil
	}
	if start == "" || end == "" {
		return pipeline.Params{}, errors.New("-start and -end must be given together")
	}
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("parse -start: %w", err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("parse -end: %w", err)
	}
	return pipeline.Params{Start: s.UTC(), End: e.UTC()}, nil
}

func run(cfg *config.Config, logger *slog.Logger, params pipeline.Params) error {
	metrics := observability.NewMetrics()

	locations, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "path", cfg.CatalogPath, "locations", len(locations))

	client := cptec.NewClient(cfg, logger)
	source := cptec.NewSource(client, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks := []pipeline.Sink{parquetsink.NewWriter(cfg.ParquetPath, logger)}

	if cfg.MongoEnabled {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
		mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		cancel()
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.Error("mongo disconnect error", "error", err)
			}
		}()
		sinks = append(sinks, mongosink.NewWriter(mongoClient, cfg.MongoDatabase, cfg.MongoCollection, logger))
		logger.Info("mongo sink enabled", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
	} else {
		logger.Info("mongo sink disabled")
	}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(source, locations, sinks, logger, metrics, cfg.WindowConcurrency)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}()

	logger.Info("starting run", "start", params.Start, "end", params.End)
	table, err := p.Run(ctx, params)
	if err != nil {
		return err
	}
	logger.Info("run complete", "windows", len(table.Rows), "locations", len(table.Locations))
	return nil
}
