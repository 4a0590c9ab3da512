package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	AI        AIConfig        `json:"ai"`
	Storage   StorageConfig   `json:"storage"`
	Log       LogConfig       `json:"log"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Addr      string          `json:"addr" validate:"required"`
}

type AIConfig struct {
	Provider   string        `json:"provider" validate:"oneof=gemini openai claude mock"`
	APIKey     string        `json:"api_key" validate:"required_unless=Provider mock"`
	Model      string        `json:"model"`
	ImageModel string        `json:"image_model"`
	BaseURL    string        `json:"base_url" validate:"omitempty,url"`
	Timeout    time.Duration `json:"timeout" validate:"gt=0"`
}

type StorageConfig struct {
	Backend    string `json:"backend" validate:"oneof=file memory sqlite redis azure"`
	Dir        string `json:"dir" validate:"required_if=Backend file"`
	SQLitePath string `json:"sqlite_path" validate:"required_if=Backend sqlite"`
	RedisURL   string `json:"redis_url" validate:"required_if=Backend redis"`
	// AzureAccountKey may be empty, DefaultAzureCredential is used then.
	AzureAccount    string `json:"azure_account" validate:"required_if=Backend azure"`
	AzureAccountKey string `json:"-"`
	AzureContainer  string `json:"azure_container"`
	Passphrase      string `json:"-"`
}

type LogConfig struct {
	Level string `json:"level" validate:"oneof=debug info warn error"`
	File  string `json:"file"`
	// BlobContainer turns on the append blob sink, using the storage account.
	BlobContainer string `json:"blob_container"`
}

type TelemetryConfig struct {
	Endpoint    string `json:"endpoint"`
	ServiceName string `json:"service_name"`
}

var providerKeys = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
}

func Load() (*Config, error) {
	provider := getEnvOrDefault("AI_PROVIDER", "gemini")
	apiKey := os.Getenv("AI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv(providerKeys[provider])
	}

	timeout, err := time.ParseDuration(getEnvOrDefault("AI_TIMEOUT", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AI_TIMEOUT: %w", err)
	}

	config := &Config{
		AI: AIConfig{
			Provider:   provider,
			APIKey:     apiKey,
			Model:      os.Getenv("AI_MODEL"),
			ImageModel: os.Getenv("AI_IMAGE_MODEL"),
			BaseURL:    os.Getenv("AI_BASE_URL"),
			Timeout:    timeout,
		},
		Storage: StorageConfig{
			Backend:         getEnvOrDefault("STORAGE_BACKEND", "file"),
			Dir:             getEnvOrDefault("STORAGE_DIR", "./data"),
			SQLitePath:      getEnvOrDefault("SQLITE_PATH", "./data/donaprenda.db"),
			RedisURL:        os.Getenv("REDIS_URL"),
			AzureAccount:    os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AzureAccountKey: os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			AzureContainer:  getEnvOrDefault("AZURE_STORAGE_CONTAINER", "donaprenda"),
			Passphrase:      os.Getenv("STORAGE_PASSPHRASE"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),

			BlobContainer: os.Getenv("LOG_AZURE_CONTAINER"),
		},
		Telemetry: TelemetryConfig{
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "donaprenda"),
		},
		Addr: getEnvOrDefault("ADDR", ":8080"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
