// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the estimates database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	Estimation EstimationConfig
	Sweep      SweepConfig
}

// EstimationConfig holds estimation defaults applied when a request
// leaves a knob unset.
type EstimationConfig struct {
	DefaultEpsilon      float64
	DefaultConfidence   float64
	ShotsPerRound       int
	MaxClassicalSamples int64   // 0 = unlimited
}

// SweepConfig holds the nightly calibration sweep settings.
type SweepConfig struct {
	Enabled  bool
	Schedule string // cron expression with seconds field
	Workers  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TAILRISK_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("TAILRISK_PORT", 8001),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Estimation: EstimationConfig{
			DefaultEpsilon:      getEnvAsFloat("TAILRISK_DEFAULT_EPSILON", 0.01),
			DefaultConfidence:   getEnvAsFloat("TAILRISK_DEFAULT_CONFIDENCE", 0.95),
			ShotsPerRound:       getEnvAsInt("TAILRISK_SHOTS_PER_ROUND", 128),
			MaxClassicalSamples: int64(getEnvAsInt("TAILRISK_MAX_CLASSICAL_SAMPLES", 0)),
		},
		Sweep: SweepConfig{
			Enabled:  getEnvAsBool("TAILRISK_SWEEP_ENABLED", true),
			Schedule: getEnv("TAILRISK_SWEEP_SCHEDULE", "0 0 2 * * *"), // 2 AM nightly
			Workers:  getEnvAsInt("TAILRISK_SWEEP_WORKERS", 4),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if e := c.Estimation.DefaultEpsilon; e <= 0 || e >= 0.5 {
		return fmt.Errorf("invalid default epsilon: %v", e)
	}
	if conf := c.Estimation.DefaultConfidence; conf <= 0 || conf >= 1 {
		return fmt.Errorf("invalid default confidence: %v", conf)
	}
	if c.Estimation.ShotsPerRound < 1 {
		return fmt.Errorf("invalid shots per round: %d", c.Estimation.ShotsPerRound)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
