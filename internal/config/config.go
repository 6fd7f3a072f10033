// Package config provides configuration management for the reelcut server.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// Default values
	DefaultPort             = 8990
	DefaultLogLevel         = "info"
	DefaultDataDir          = ".reelcut"
	DefaultStageConcurrency = 4

	// Environment variable names
	EnvPort             = "REELCUT_PORT"
	EnvLogLevel         = "REELCUT_LOG_LEVEL"
	EnvDataDir          = "REELCUT_DATA_DIR"
	EnvAuthToken        = "REELCUT_AUTH_TOKEN"
	EnvStorageURL       = "REELCUT_STORAGE_URL"
	EnvStorageToken     = "REELCUT_STORAGE_TOKEN"
	EnvOracleURL        = "REELCUT_ORACLE_URL"
	EnvOracleKey        = "REELCUT_ORACLE_KEY"
	EnvFFmpegPath       = "REELCUT_FFMPEG"
	EnvFFprobePath      = "REELCUT_FFPROBE"
	EnvStageConcurrency = "REELCUT_STAGE_CONCURRENCY"

	// Database filename
	DBFilename = "reelcut.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	AuthToken() string
	StorageURL() string
	StorageToken() string
	OracleURL() string
	OracleKey() string
	FFmpegPath() string
	FFprobePath() string
	StageConcurrency() int
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port             int
	logLevel         string
	dataDir          string
	authToken        string
	storageURL       string
	storageToken     string
	oracleURL        string
	oracleKey        string
	ffmpegPath       string
	ffprobePath      string
	stageConcurrency int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:             DefaultPort,
		logLevel:         DefaultLogLevel,
		dataDir:          defaultDataDir(),
		stageConcurrency: DefaultStageConcurrency,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if sc := os.Getenv(EnvStageConcurrency); sc != "" {
		n, err := strconv.Atoi(sc)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvStageConcurrency)
		}
		cfg.stageConcurrency = n
	}

	cfg.authToken = os.Getenv(EnvAuthToken)
	cfg.storageURL = os.Getenv(EnvStorageURL)
	cfg.storageToken = os.Getenv(EnvStorageToken)
	cfg.oracleURL = os.Getenv(EnvOracleURL)
	cfg.oracleKey = os.Getenv(EnvOracleKey)
	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)
	cfg.ffprobePath = os.Getenv(EnvFFprobePath)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// AuthToken returns the API bearer token; empty disables authentication.
func (c *EnvConfig) AuthToken() string {
	return c.authToken
}

// StorageURL returns the blob store base URL; empty selects the local
// filesystem store under DataDir.
func (c *EnvConfig) StorageURL() string {
	return c.storageURL
}

// StorageToken returns the blob store bearer token
func (c *EnvConfig) StorageToken() string {
	return c.storageToken
}

// OracleURL returns the captioning oracle base URL; empty selects the stub.
func (c *EnvConfig) OracleURL() string {
	return c.oracleURL
}

// OracleKey returns the oracle API key
func (c *EnvConfig) OracleKey() string {
	return c.oracleKey
}

// FFmpegPath returns the ffmpeg binary path; empty means $PATH lookup.
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// FFprobePath returns the ffprobe binary path; empty means $PATH lookup.
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// StageConcurrency returns the parallel fetch bound for clip staging
func (c *EnvConfig) StageConcurrency() int {
	return c.stageConcurrency
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
