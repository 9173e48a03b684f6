package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiolink/audiolink-service/internal/config"
	"github.com/audiolink/audiolink-service/internal/metrics"
	"github.com/audiolink/audiolink-service/internal/modem"
	"github.com/audiolink/audiolink-service/internal/pipeline"
	"github.com/audiolink/audiolink-service/internal/server"
	"github.com/audiolink/audiolink-service/internal/transceiver"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audiolink-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("address", cfg.Server.Address),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.String("default_profile", cfg.Modem.DefaultProfile),
		slog.Int("pool_size", cfg.Modem.PoolSize),
		slog.Int("max_payload_bytes", cfg.Modem.MaxPayloadBytes),
		slog.Int64("max_upload_bytes", cfg.Limits.MaxUploadBytes),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize the modem pool
	tr, err := transceiver.New(transceiver.Config{
		PoolSize:       cfg.Modem.PoolSize,
		AcquireTimeout: cfg.Modem.GetAcquireTimeout(),
		DecodeTimeout:  cfg.Modem.GetDecodeTimeout(),
	}, logger)
	if err != nil {
		logger.Error("Failed to create modem pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Modem pool initialized",
		slog.Int("pool_size", cfg.Modem.PoolSize),
		slog.Duration("acquire_timeout", cfg.Modem.GetAcquireTimeout()),
		slog.Duration("decode_timeout", cfg.Modem.GetDecodeTimeout()),
	)

	// Resolve the default transmission profile
	defaultProfile, err := modem.ParseProfile(cfg.Modem.DefaultProfile)
	if err != nil {
		logger.Error("Invalid default profile", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire the encode/decode pipelines
	encoder := pipeline.NewEncoder(tr, cfg.Modem.MaxPayloadBytes, defaultProfile)
	decoder := pipeline.NewDecoder(tr, cfg.Limits.MaxUploadBytes)

	// Initialize HTTP gateway
	httpServer := server.NewHTTPServer(cfg, logger, encoder, decoder, tr, appMetrics)
	logger.Info("HTTP gateway initialized",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)),
	)

	// Start HTTP server
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Close the modem pool once no request holds an instance
	if err := tr.Close(); err != nil {
		logger.Error("Error closing modem pool", slog.String("error", err.Error()))
	}

	// Get final statistics
	stats := tr.GetStats()
	logger.Info("Final transceiver statistics",
		slog.Uint64("modulations", stats.Modulations),
		slog.Uint64("demodulations", stats.Demodulations),
		slog.Uint64("frames_decoded", stats.FramesDecoded),
		slog.Uint64("no_signal", stats.NoSignal),
		slog.Uint64("timeouts", stats.Timeouts),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
