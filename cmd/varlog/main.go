// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Command varlog runs the conversation-variance logging gateway as an
// MCP server over stdio or streamable HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jllopis/varlog/pkg/config"
	"github.com/jllopis/varlog/pkg/dispatcher"
	"github.com/jllopis/varlog/pkg/insights"
	"github.com/jllopis/varlog/pkg/mcp"
	"github.com/jllopis/varlog/pkg/store"
	"github.com/jllopis/varlog/pkg/telemetry"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		configPath = flag.String("config", "", "path to YAML config file")
		initConfig = flag.Bool("init-config", false, "write a default config file to -config and exit")
		logLevel   = flag.String("log-level", "", "override log level (debug, info, warn, error)")
		transport  = flag.String("transport", "", "override transport (stdio, http)")
		showVer    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("varlog %s\n", version)
		return
	}

	if *initConfig {
		path := *configPath
		if path == "" {
			path = "varlog.yaml"
		}
		if err := config.WriteDefault(path); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s\n", path)
		return
	}

	if err := run(ctx, *configPath, *logLevel, *transport); err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, configPath, logLevel, transport string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if transport != "" {
		cfg.Server.Transport = transport
	}

	// Stdout carries protocol framing on the stdio transport, so every
	// diagnostic stream goes to stderr.
	logger, levelVar := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.Init(cfg.Server.Name, cfg.Server.Version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := telemetry.NewDispatchMetrics()
	if err != nil {
		return fmt.Errorf("metrics init: %w", err)
	}

	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}

	agg := insights.New()

	disp, err := dispatcher.NewDefault(st, agg,
		dispatcher.WithLogger(logger),
		dispatcher.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("dispatcher init: %w", err)
	}

	srv := mcp.NewServer(cfg.Server.Name, cfg.Server.Version, disp, agg, mcp.WithLogger(logger))

	// Re-read log level on config file changes without a restart.
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, config.WithWatchLogger(logger))
		if err != nil {
			return fmt.Errorf("config watcher: %w", err)
		}
		watcher.OnChange(func(updated *config.Config) {
			levelVar.Set(telemetry.ParseLogLevel(updated.Log.Level))
			logger.Info("configuration reloaded", "log_level", updated.Log.Level)
		})
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	logger.Info("varlog starting",
		"version", cfg.Server.Version,
		"transport", cfg.Server.Transport,
		"store", st.Path(),
	)

	errCh := make(chan error, 1)
	go func() {
		switch cfg.Server.Transport {
		case "stdio":
			errCh <- srv.ServeStdio()
		case "http":
			errCh <- srv.ServeHTTP(cfg.Server.HTTPAddr)
		default:
			errCh <- fmt.Errorf("unknown transport %q", cfg.Server.Transport)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "varlog: %v\n", err)
	os.Exit(1)
}
