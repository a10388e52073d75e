package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/availability/internal/availability"
	"github.com/hamed0406/availability/internal/config"
	"github.com/hamed0406/availability/internal/endpoint"
	"github.com/hamed0406/availability/internal/httpapi"
	"github.com/hamed0406/availability/internal/logging"
	"github.com/hamed0406/availability/internal/metrics"
	"github.com/hamed0406/availability/internal/probe"
	"github.com/hamed0406/availability/internal/report"
	"github.com/hamed0406/availability/internal/scheduler"
)

func main() {
	// configured through CONFIG_FILE and LOG_LEVEL
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: cfg.Level, Console: os.Stderr})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	if cfg.LevelFallback {
		logger.Warn("unknown_log_level", zap.String("level", cfg.LogLevel), zap.String("using", "info"))
	}

	descs, err := endpoint.Load(cfg.ConfigFile)
	if err != nil {
		logger.Error("config_load_failed", zap.String("file", cfg.ConfigFile), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agg := availability.New()
	exporter := metrics.NewExporter(logger)

	opts := []scheduler.Option{scheduler.WithInterval(cfg.Interval)}
	if cfg.Level == zap.DebugLevel {
		opts = append(opts, scheduler.WithDiagnoser(probe.NewDNSDiagnoser()))
	}
	sched := scheduler.New(logger, descs,
		probe.NewHTTPProber(cfg.Timeout),
		agg,
		report.Multi{report.NewLines(nil, logger), exporter},
		opts...,
	)
	api := httpapi.NewServer(logger, agg, exporter.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return api.ListenAndServe(gctx, cfg.Addr)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server_failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown_complete")
}
