// Command healthcheck probes the endpoints listed in a YAML file every 15
// seconds and prints the cumulative availability of each domain.
//
//	healthcheck --f sample.yaml --log debug
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/availability/internal/availability"
	"github.com/hamed0406/availability/internal/config"
	"github.com/hamed0406/availability/internal/endpoint"
	"github.com/hamed0406/availability/internal/logging"
	"github.com/hamed0406/availability/internal/probe"
	"github.com/hamed0406/availability/internal/report"
	"github.com/hamed0406/availability/internal/scheduler"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: cfg.Level})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if cfg.LevelFallback {
		logger.Warn("unknown_log_level", zap.String("level", cfg.LogLevel), zap.String("using", "info"))
	}

	descs, err := endpoint.Load(cfg.ConfigFile)
	if err != nil {
		logger.Error("config_load_failed", zap.String("file", cfg.ConfigFile), zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("config_loaded", zap.String("file", cfg.ConfigFile), zap.Int("endpoints", len(descs)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []scheduler.Option{scheduler.WithInterval(cfg.Interval)}
	if cfg.Level == zap.DebugLevel {
		opts = append(opts, scheduler.WithDiagnoser(probe.NewDNSDiagnoser()))
	}
	sched := scheduler.New(logger, descs,
		probe.NewHTTPProber(cfg.Timeout),
		availability.New(),
		report.NewLines(os.Stdout, logger),
		opts...,
	)
	sched.Run(ctx)
}
