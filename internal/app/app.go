// Package app provides the application initialization and lifecycle management
package app

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chisel/internal/cache"
	"github.com/tildaslashalef/chisel/internal/chunker"
	"github.com/tildaslashalef/chisel/internal/config"
	"github.com/tildaslashalef/chisel/internal/database"
	"github.com/tildaslashalef/chisel/internal/git"
	"github.com/tildaslashalef/chisel/internal/indexer"
	"github.com/tildaslashalef/chisel/internal/language"
	"github.com/tildaslashalef/chisel/internal/loggy"
)

// App represents the application instance with its dependencies
type App struct {
	Config   *config.Config
	Chunker  *chunker.Service
	Detector *language.Detector
	Cache    cache.Repository
	Git      *git.Service
	Indexer  *indexer.Service
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing", "log_level", cfg.Logging.Level)

	if err := database.InitDB(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if _, err := database.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	logger := loggy.GetGlobalLogger()

	registry := language.DefaultRegistry()
	selector := language.NewSelector(registry, cfg.Chunking.ParseTimeout, logger)
	chunkService := chunker.NewService(chunker.Config{
		MaxChunkChars:        cfg.Chunking.MaxChunkChars,
		FallbackWindowLines:  cfg.Chunking.FallbackWindowLines,
		FallbackOverlapLines: cfg.Chunking.FallbackOverlapLines,
	}, selector, logger)

	detector := language.NewDetector(logger)
	cacheRepo := cache.NewSQLRepository(db, logger)
	gitService := git.NewService(logger)

	indexService := indexer.NewService(cfg, chunkService, detector, cacheRepo, gitService, logger)

	loggy.Info("Application initialized successfully")
	return &App{
		Config:   cfg,
		Chunker:  chunkService,
		Detector: detector,
		Cache:    cacheRepo,
		Git:      gitService,
		Indexer:  indexService,
	}, nil
}

// initConfig loads and sets up the application configuration
func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")

	if err := database.CloseDB(); err != nil {
		loggy.Error("Error closing database connection", "error", err)
	}

	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
