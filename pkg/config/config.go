// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Input
	InputPattern string
	CSVDelimiter rune
	NaNValues    []string // cell contents read as missing; nil keeps the loader defaults

	// Output
	OutputPath string
	ChartDir   string

	// Optional Postgres sink
	Postgres  *PostgresConfig
	BatchSize int

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory, or the files named in envFiles, is read first;
// values already set in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		// Default values
		InputPattern: getEnv("INPUT_PATTERN", "states*.csv"),
		CSVDelimiter: getEnvAsRune("CSV_DELIMITER", ','),
		NaNValues:    nanValues(getEnvAsStringSlice("NAN_VALUES", nil)),
		OutputPath:   getEnv("OUTPUT_PATH", "census_clean.csv"),
		ChartDir:     getEnv("CHART_DIR", ""),
		BatchSize:    getEnvAsInt("BATCH_SIZE", 1000),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
	}

	if getEnvAsBool("POSTGRES_ENABLED", false) {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputPattern) == "" {
		return errors.New("input pattern is required")
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return errors.New("log format must be json or console")
	}

	if c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' || c.CSVDelimiter == '"' {
		return errors.New("invalid CSV delimiter")
	}

	return nil
}

// loadEnvFiles reads .env style files without overriding the environment.
// The default .env is optional; explicitly named files must exist.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			return godotenv.Load()
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.New("failed to load env file: " + err.Error())
	}
	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsRune(key string, defaultValue rune) rune {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if valueStr == `\t` {
		return '\t'
	}
	return []rune(valueStr)[0]
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// nanValues adds the empty cell, which a comma list cannot express
func nanValues(tokens []string) []string {
	if tokens == nil {
		return nil
	}
	return append([]string{""}, tokens...)
}
