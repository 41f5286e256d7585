package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/memo/internal/chat"
	"github.com/rx3lixir/memo/internal/config"
	"github.com/rx3lixir/memo/internal/db"
	"github.com/rx3lixir/memo/internal/device"
	"github.com/rx3lixir/memo/internal/http-server"
	"github.com/rx3lixir/memo/internal/player"
	"github.com/rx3lixir/memo/internal/recorder"
	"github.com/rx3lixir/memo/pkg/notify"
)

func main() {
	// Setting up logger
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           log.DebugLevel,
	})

	// Initializing global context instance
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initializing config manager
	cm, err := config.NewConfigManager("internal/config/config.yaml")
	if err != nil {
		logger.Error("Error getting config file", "error", err)
		os.Exit(1)
	}

	c := cm.GetConfig()

	// Validating configuration
	if err := c.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info(
		"Configuration loaded",
		"env", c.GeneralParams.Env,
		"http_addr", c.GeneralParams.HTTPaddress,
		"database", c.MainDBParams.Name,
		"notify", c.NotifyParams.Mode,
		"recordings", c.AudioParams.RecordingsDir,
	)

	// Creating database connection pool
	pool, err := db.CreatePostgresPool(ctx, c.MainDBParams.GetDSN())
	if err != nil {
		logger.Error(
			"Failed to create postgres pool",
			"error", err,
			"db", c.MainDBParams.Name,
		)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("Database connection established", "db", c.MainDBParams.Name)

	// Making sure the messages table exists
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("Failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// Picking the change notifier: in-process by default, valkey pub/sub
	// when several gateway processes share the database
	var notifier notify.Notifier
	switch c.NotifyParams.Mode {
	case "valkey":
		valkeyNotifier, err := notify.NewValkey(
			c.NotifyParams.Host,
			c.NotifyParams.Password,
			logger,
		)
		if err != nil {
			logger.Error("Failed to create valkey notifier", "error", err)
			os.Exit(1)
		}
		defer valkeyNotifier.Close()
		notifier = valkeyNotifier

		logger.Info("Valkey change notifier initialized", "host", c.NotifyParams.Host)
	default:
		notifier = notify.NewLocal()
	}

	// Creates database store and its live watcher
	store := db.NewPostgresStore(pool, notifier)
	watcher := db.NewWatcher(store, notifier, logger)

	// Recordings live in an app-private directory
	if err := os.MkdirAll(c.AudioParams.RecordingsDir, 0o755); err != nil {
		logger.Error("Failed to create recordings directory", "error", err)
		os.Exit(1)
	}

	// Creates the audio controllers over the simulated devices
	rec := recorder.New(
		device.NewCapture,
		recorder.Config{Dir: c.AudioParams.RecordingsDir},
		logger,
	)
	pl := player.New(
		device.NewPlayback,
		player.Config{},
		logger,
	)

	// Creates the chat coordinator
	coordinator := chat.New(store, watcher, rec, pl, logger)
	defer coordinator.Close()

	logger.Info("Chat coordinator initialized")

	// Creates HTTP server
	HTTPserver := httpserver.New(
		c.GeneralParams.HTTPaddress,
		coordinator,
		logger,
	)

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the HTTP server in a gorutine
	go func() {
		serverErrors <- HTTPserver.Start()
	}()

	logger.Info("Server started successfully")

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we recieve a signal or error
	select {
	case err := <-serverErrors:
		logger.Error("Server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig)

		// Give outstanding requests 10s to complete
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Shutting down server
		logger.Info("Shutting down HTTP server...")
		if err := HTTPserver.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}

		logger.Info("Server stopped gracefully")
	}
}
