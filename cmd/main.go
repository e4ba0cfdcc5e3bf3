package main

import (
	"context"
	"os"

	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	if err := shared.ApplyEnv(config, ".env"); err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	store, err := storage.Open(ctx, config.Storage)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	apiService := services.NewAPIService(services.APIOpts{
		BaseURL:      config.API.BaseURL,
		ImageBaseURL: config.API.ImageBaseURL,
		Placeholder:  config.API.PlaceholderImage,
		Timeout:      config.API.Timeout(),
		Store:        store,
		Logger:       shared.WithLogger(logger, "component", "api"),
	})
	manager := session.NewManager(apiService, store, session.Options{
		Logger: shared.WithLogger(logger, "component", "session"),
	})

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		API:        apiService,
		Session:    manager,
		Store:      store,
		Logger:     logger,
	})

	if err := runner.app().Run(ctx, os.Args); err != nil {
		store.Close()
		logger.Fatalf("%v", err)
	}
}
