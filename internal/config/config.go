// internal/config/config.go
package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config stores all the configuration settings for the application.
// It uses `mapstructure` tags for automatic unmarshaling from Viper configurations.
// This struct is designed to hold environment-specific and application-wide settings,
// loaded from environment variables and/or a .env file.
type Config struct {
	Environment       string `mapstructure:"ENVIRONMENT"`         // "development", "staging", "production"
	HTTPServerAddress string `mapstructure:"PORT"`                // Address (host:port) for the ingest process's HTTP server
	LogLevel          string `mapstructure:"LOG_LEVEL"`           // Logging level for Zap logger (debug, info, warn, error, fatal). Default: "info"
	LogFormat         string `mapstructure:"LOG_FORMAT"`          // Logging format ("console" or "json"). Default: "console"

	DatabaseURL string `mapstructure:"DATABASE_URL"` // Postgres connection string for the metadata store
	RedisURL    string `mapstructure:"REDIS_URL"`    // Redis connection string backing the cache, queue and event bus

	BlobEndpoint  string `mapstructure:"BLOB_ENDPOINT"`   // S3-compatible endpoint; empty uses the default AWS resolver
	BlobAccessKey string `mapstructure:"BLOB_ACCESS_KEY"` // Blob store access key
	BlobSecretKey string `mapstructure:"BLOB_SECRET_KEY"` // Blob store secret key (sensitive)
	BlobUseSSL    bool   `mapstructure:"BLOB_USE_SSL"`    // Loaded but not read by the blob client; TLS follows the scheme given in BLOB_ENDPOINT
	BlobBucket    string `mapstructure:"BLOB_BUCKET"`     // Bucket holding original/processed receipt images
	AWSRegion     string `mapstructure:"AWS_REGION"`      // Region for the blob store's S3 client

	AlignerURL   string `mapstructure:"ALIGNER_URL"`   // Base URL of the aligner engine
	PaddleOCRURL string `mapstructure:"PADDLEOCR_URL"` // Base URL of the PaddleOCR engine
	TesseractURL string `mapstructure:"TESSERACT_URL"` // Base URL of the Tesseract engine

	OCREngineTimeout        time.Duration `mapstructure:"OCR_ENGINE_TIMEOUT"`          // Per-request timeout applied to every C1 engine call
	ConfidenceThresholdHigh float64       `mapstructure:"CONFIDENCE_THRESHOLD_HIGH"`   // T_high: passed to the processor; the OCR chain accepts on T_low only and does not consult it
	ConfidenceThresholdLow  float64       `mapstructure:"CONFIDENCE_THRESHOLD_LOW"`    // T_low: acceptance threshold for the OCR fallback chain

	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"` // Number of concurrent job executors in the worker process
}

const DevelopmentEnvironment = "development" // Constant defining the "development" environment string

// LoadConfig reads configuration from environment variables and/or a .env file using Viper.
// It populates the Config struct with values from environment variables, falling back to defaults or values from a .env file if set.
// Returns a Config struct containing the loaded configuration and an error if configuration loading fails.
func LoadConfig(ctx context.Context, path string) (config Config, err error) {
	viper.AddConfigPath(path)   // Add the config path to Viper's lookup paths
	viper.SetConfigName(".env") // Set the base name of the config file (without extension) to ".env"
	viper.SetConfigType("env")  // Set the config file type to "env" for .env file format

	viper.AutomaticEnv()      // Enable automatic reading of environment variables
	viper.AllowEmptyEnv(true) // Allow empty environment variables to be read without error

	if err = viper.ReadInConfig(); err != nil { // Attempt to read config from the configured paths and file name
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// .env file not found; not a fatal error, proceed with environment variables or defaults
			log.Println("No .env file found, relying on environment variables.")
		} else {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- Configuration Validation (with specific error messages for required variables) ---
	if config.HTTPServerAddress == "" {
		return Config{}, fmt.Errorf("environment variable PORT is required")
	}
	if config.DatabaseURL == "" {
		return Config{}, fmt.Errorf("environment variable DATABASE_URL is required")
	}
	if config.RedisURL == "" {
		return Config{}, fmt.Errorf("environment variable REDIS_URL is required")
	}
	if config.BlobBucket == "" {
		return Config{}, fmt.Errorf("environment variable BLOB_BUCKET is required")
	}
	if config.AlignerURL == "" {
		return Config{}, fmt.Errorf("environment variable ALIGNER_URL is required")
	}
	if config.TesseractURL == "" {
		return Config{}, fmt.Errorf("environment variable TESSERACT_URL is required")
	}
	if config.PaddleOCRURL == "" {
		return Config{}, fmt.Errorf("environment variable PADDLEOCR_URL is required")
	}

	// Duration/numeric defaults, logged as applied.
	if config.OCREngineTimeout == 0 {
		config.OCREngineTimeout = 15 * time.Second
		log.Println("OCR_ENGINE_TIMEOUT not set, defaulting to 15s")
	}
	if config.ConfidenceThresholdHigh == 0 {
		config.ConfidenceThresholdHigh = 0.70
		log.Println("CONFIDENCE_THRESHOLD_HIGH not set, defaulting to 0.70")
	}
	if config.ConfidenceThresholdLow == 0 {
		config.ConfidenceThresholdLow = 0.60
		log.Println("CONFIDENCE_THRESHOLD_LOW not set, defaulting to 0.60")
	}
	if config.WorkerConcurrency == 0 {
		config.WorkerConcurrency = 4
		log.Println("WORKER_CONCURRENCY not set, defaulting to 4")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
		log.Println("LOG_LEVEL not set, defaulting to 'info'")
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
		log.Println("LOG_FORMAT not set, defaulting to 'console'")
	}

	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	return
}
