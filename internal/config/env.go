package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables
// Parameters:
// - configDir: Directory containing config files (or empty for default)
// - configFilePath: Path to .env file (or empty for default)
func LoadFromEnv(configDir string, configFilePath string) (*Config, error) {
	cfg := New()

	// If configDir is empty, use the default
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".chisel")

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	cfg.configDir = configDir

	// Default database and log paths live in the config directory
	defaultDBPath := filepath.Join(configDir, "chisel.db")
	defaultLogPath := filepath.Join(configDir, "chisel.log")

	// Use provided config file path or default
	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	// Check if ENV_FILE_PATH is set to load from a custom .env file
	envFilePath := getEnvString("ENV_FILE_PATH", "")
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(configFilePath); err != nil {
			// Then try current directory as fallback
			_ = godotenv.Load() // Ignore errors if file doesn't exist
		}
	}

	cfg.Chunking = ChunkingConfig{
		MaxChunkChars:        getEnvInt("CHISEL_MAX_CHUNK_CHARS", 1500),
		FallbackWindowLines:  getEnvInt("CHISEL_FALLBACK_WINDOW_LINES", 40),
		FallbackOverlapLines: getEnvInt("CHISEL_FALLBACK_OVERLAP_LINES", 15),
		ParseTimeout:         getEnvDuration("CHISEL_PARSE_TIMEOUT", 5*time.Second),
	}

	cfg.Indexer = IndexerConfig{
		Workers:     getEnvInt("CHISEL_INDEXER_WORKERS", runtime.NumCPU()),
		MaxFileSize: getEnvInt64("CHISEL_INDEXER_MAX_FILE_SIZE", 2*1024*1024),
	}

	cfg.Database = DatabaseConfig{
		Path:            getEnvString("CHISEL_DB_PATH", defaultDBPath),
		JournalMode:     getEnvString("CHISEL_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("CHISEL_DB_SYNCHRONOUS_MODE", "NORMAL"),
		BusyTimeout:     getEnvInt("CHISEL_DB_BUSY_TIMEOUT", 5000),
		CacheSize:       getEnvInt("CHISEL_DB_CACHE_SIZE", -64000),
		ForeignKeys:     getEnvBool("CHISEL_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("CHISEL_DB_CONN_MAX_LIFE", 30*time.Minute),
		QueryTimeout:    getEnvDuration("CHISEL_DB_QUERY_TIMEOUT", 30*time.Second),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("CHISEL_LOG_LEVEL", "info"),
		Format:     getEnvString("CHISEL_LOG_FORMAT", "text"),
		Output:     getEnvString("CHISEL_LOG_OUTPUT", defaultLogPath),
		AddSource:  getEnvBool("CHISEL_LOG_ADD_SOURCE", false),
		TimeFormat: getEnvString("CHISEL_LOG_TIME_FORMAT", ""),
	}

	return cfg, nil
}
