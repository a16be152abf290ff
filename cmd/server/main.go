package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fieldsync/internal/canvass/store"
	"fieldsync/internal/export"
	exportHandler "fieldsync/internal/export/handler"
	"fieldsync/internal/ingest"
	ingestHandler "fieldsync/internal/ingest/handler"
	ingestMetrics "fieldsync/internal/ingest/metrics"
	"fieldsync/internal/platform/config"
	"fieldsync/internal/platform/httpserver"
	"fieldsync/internal/platform/kafka"
	"fieldsync/internal/platform/logger"
	"fieldsync/internal/platform/metrics"
	"fieldsync/internal/platform/otel"
	"fieldsync/internal/platform/redis"
	"fieldsync/internal/rollup"
	"fieldsync/internal/rollup/cache"
	rollupHandler "fieldsync/internal/rollup/handler"
	rollupMetrics "fieldsync/internal/rollup/metrics"
	"fieldsync/internal/survey"
	surveyHandler "fieldsync/internal/survey/handler"
	httptransport "fieldsync/internal/transport/http"
	"fieldsync/internal/visits"
	visitsHandler "fieldsync/internal/visits/handler"
	visitsMetrics "fieldsync/internal/visits/metrics"
	"fieldsync/internal/visits/stream"
	"fieldsync/pkg/platform/circuit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fieldsync stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, cfg.Tracing, cfg.Metadata.Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info("store opened", "driver", cfg.Store.Driver)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	kc, err := kafka.New(cfg.Kafka)
	if err != nil {
		return err
	}
	if kc != nil {
		defer kc.Close()
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.Topic, int32(cfg.Kafka.Partitions)); err != nil {
			log.Warn("kafka topic not ensured", "topic", cfg.Kafka.Topic, "error", err)
		}
	}

	surveyCfg, err := survey.Load(cfg.Metadata.SurveyConfigPath)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	vm := visitsMetrics.New(reg)

	rollupOpts := []rollup.Option{
		rollup.WithLimits(cfg.Rollup.DefaultLimit, cfg.Rollup.MaxLimit),
		rollup.WithMetrics(rollupMetrics.New(reg)),
	}
	visitOpts := []visits.Option{
		visits.WithSuspectThreshold(cfg.Canvass.SuspectDistanceMeters),
		visits.WithMetrics(vm),
	}
	importOpts := []ingest.Option{
		ingest.WithMaxRowErrors(cfg.Ingest.MaxRowErrors),
		ingest.WithMetrics(ingestMetrics.New(reg)),
	}
	checks := map[string]httptransport.Check{"store": st.Ping}

	if rdb != nil {
		households := cache.NewHouseholdCache(rdb.Client, cfg.Redis.HouseholdTTL,
			cache.WithBreaker(circuit.New("household-cache", circuit.WithSuccessThreshold(1))),
		)
		rollupOpts = append(rollupOpts, rollup.WithMemberCache(households))
		visitOpts = append(visitOpts, visits.WithHouseholdCache(households))
		importOpts = append(importOpts, ingest.WithHouseholdCache(households))
		checks["redis"] = rdb.Health
	}

	var publisher *stream.Publisher
	if kc != nil {
		publisher = stream.NewPublisher(kc, log,
			stream.WithTopic(cfg.Kafka.Topic),
			stream.WithAsyncBuffer(cfg.Kafka.AsyncBuffer),
			stream.WithMetrics(vm),
		)
		visitOpts = append(visitOpts, visits.WithStream(publisher))
		checks["kafka"] = func(ctx context.Context) error { return kafka.Health(ctx, kc) }
	}

	importer := ingest.New(st, ingest.DefaultAliases(), log, importOpts...)
	visitService := visits.New(st, log, visitOpts...)
	rollupService := rollup.New(st, log, rollupOpts...)
	exporter := export.New(st, log, 0)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Registry:       reg,
		Metrics:        metrics.New(reg),
		RequestTimeout: cfg.Server.RequestTimeout,
		Checks:         checks,
		API: []httptransport.Registrar{
			surveyHandler.New(surveyCfg.JSON(), cfg.Metadata.Version),
			ingestHandler.New(importer, log, cfg.Ingest.MaxBytes),
			visitsHandler.New(visitService, log),
			rollupHandler.New(rollupService, log),
			exportHandler.New(exporter, log),
		},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	err = g.Wait()

	if publisher != nil {
		publisher.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("fieldsync stopped cleanly")
	return nil
}
