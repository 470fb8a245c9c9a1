package config

import (
	"os"
	"strconv"

	"evpi/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Data       DataConfig
	Simulation SimulationConfig
}

// DatabaseConfig holds database connection settings. Optional: the database
// is only one of the dataset sources.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DataConfig holds dataset source settings
type DataConfig struct {
	File          string // .xlsx or .csv dataset file
	OutcomeColumn string
}

// SimulationConfig holds Monte Carlo defaults
type SimulationConfig struct {
	Iterations   int
	Thresholds   int
	GridMax      float64
	Strategy     string
	Seed         int64
	Workers      int // 0 selects GOMAXPROCS
	RatioCeiling float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Data: DataConfig{
			File:          getEnvOrDefault("DATA_FILE", ""),
			OutcomeColumn: getEnvOrDefault("OUTCOME_COLUMN", "outcome"),
		},
		Simulation: SimulationConfig{
			Iterations:   getEnvIntOrDefault("SIM_ITERATIONS", 1000),
			Thresholds:   getEnvIntOrDefault("SIM_THRESHOLDS", 99),
			GridMax:      getEnvFloatOrDefault("SIM_GRID_MAX", 0.99),
			Strategy:     getEnvOrDefault("SIM_STRATEGY", "case_resampling"),
			Seed:         int64(getEnvIntOrDefault("SIM_SEED", 42)),
			Workers:      getEnvIntOrDefault("SIM_WORKERS", 0),
			RatioCeiling: getEnvFloatOrDefault("SIM_RATIO_CEILING", 10),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Simulation.Iterations < 1 {
		return errors.ConfigInvalid("SIM_ITERATIONS must be >= 1")
	}
	if config.Simulation.Thresholds < 1 {
		return errors.ConfigInvalid("SIM_THRESHOLDS must be >= 1")
	}
	if config.Simulation.GridMax <= 0 || config.Simulation.GridMax >= 1 {
		return errors.ConfigInvalid("SIM_GRID_MAX must be in (0,1)")
	}
	if config.Simulation.Workers < 0 {
		return errors.ConfigInvalid("SIM_WORKERS must be >= 0")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
