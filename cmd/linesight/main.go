// Linesight - Decision support for manufacturing plant operations.
// Copyright (c) 2026 plantops
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plantops/linesight/internal/analysis"
	"github.com/plantops/linesight/internal/api"
	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/predict"
	"github.com/plantops/linesight/internal/rules"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Load configuration before the logger so logging settings apply.
	cfg, err := loadConfig(os.Getenv("LINESIGHT_CONFIG"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging)

	slog.Info("starting linesight",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Rule Engine
	engine, err := rules.NewEngine(cfg.Rules)
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized")

	// Initialize Predictor, training from file when configured
	predictor := predict.NewPredictor()
	if cfg.Predictor.TrainingDataPath != "" {
		if err := trainFromFile(predictor, cfg.Predictor.TrainingDataPath); err != nil {
			slog.Warn("startup training skipped", "path", cfg.Predictor.TrainingDataPath, "error", err)
		}
	}
	slog.Info("predictor initialized", "models_trained", predictor.Trained())

	// Initialize Analysis Processor
	processor := analysis.NewProcessor(engine, predictor, "linesight-"+Version)

	// Initialize Server
	srv := api.NewServer(cfg.Server, engine, predictor, processor, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("linesight is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("linesight shutdown complete")
}

// loadConfig reads the YAML config at path on top of the defaults. An empty
// path returns the defaults unchanged.
func loadConfig(path string) (*domain.Config, error) {
	cfg := domain.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func setupLogger(cfg domain.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if os.Getenv("LINESIGHT_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// trainFromFile trains the predictor on a JSON array of historical plant
// records.
func trainFromFile(p *predict.Predictor, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read training data: %w", err)
	}

	var records []domain.PlantRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse training data: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("training data %s contains no records", path)
	}

	p.Train(records)
	slog.Info("startup training complete", "records", len(records), "models_trained", p.Trained())
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  LINESIGHT - Plant Decision Support")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /analyze         - Run scenario analysis")
	fmt.Println("    POST /analyze/export  - Run analysis, export decision log CSV")
	fmt.Println("    POST /train           - Train prediction models")
	fmt.Println("    GET  /thresholds      - Active rule thresholds")
	fmt.Println("    GET  /health          - Health check")
	fmt.Println()
}
