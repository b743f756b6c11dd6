// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command camprobe periodically checks IP cameras over ONVIF and RTSP and
// exports the results as Prometheus gauges.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/camprobe/internal/config"
	"github.com/ManuGH/camprobe/internal/daemon"
	"github.com/ManuGH/camprobe/internal/health"
	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", defaultConfigPath(), "path to config file (YAML or JSON)")
	once := flag.Bool("once", false, "run a single check round, print a summary and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: config.DefaultServiceName,
		Version: version.Version,
	})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewLoader(strings.TrimSpace(*configPath), version.Version).Load()
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldConfigPath, *configPath).Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Service: cfg.Log.Service,
		Version: version.Version,
	})
	logger = xglog.WithComponent("main")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("startup checks failed")
	}

	svc, err := daemon.Build(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}

	if *once {
		report := svc.RunOnce(ctx)
		printSummary(os.Stdout, report)
		return
	}

	app, err := svc.NewDaemon()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise daemon")
	}

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str(xglog.FieldListen, cfg.MetricsListen).
		Msg("starting camprobe")

	if err := app.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("daemon failed")
	}
	logger.Info().Str(xglog.FieldEvent, "shutdown.complete").Msg("camprobe stopped")
}

func defaultConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(config.EnvConfigPath)); p != "" {
		return p
	}
	return "config.yaml"
}
