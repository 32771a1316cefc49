package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigSource defines an interface for loading configuration from various sources.
type ConfigSource interface {
	Get(key string) (string, bool)
	GetWithDefault(key, defaultValue string) string
}

// EnvConfigSource loads configuration from environment variables.
type EnvConfigSource struct{}

// Get retrieves an environment variable.
func (e *EnvConfigSource) Get(key string) (string, bool) {
	val := os.Getenv(key)
	return val, val != ""
}

// GetWithDefault retrieves an environment variable or returns a default value.
func (e *EnvConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := e.Get(key); ok {
		return val
	}
	return defaultValue
}

// FileConfigSource loads configuration from a JSON or YAML file.
type FileConfigSource struct {
	data map[string]interface{}
}

// NewFileConfigSource creates a new file-based config source.
// Supports both JSON and YAML files based on file extension.
func NewFileConfigSource(filePath string) (*FileConfigSource, error) {
	data := make(map[string]interface{})

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.HasSuffix(filePath, ".yaml") || strings.HasSuffix(filePath, ".yml") {
		if err := yaml.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	} else if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		return nil, fmt.Errorf("unsupported config file format, use .json, .yaml, or .yml")
	}

	return &FileConfigSource{data: data}, nil
}

// Get retrieves a value from the config file using dot notation (e.g., "converter.max_file_size_mb").
func (f *FileConfigSource) Get(key string) (string, bool) {
	keys := strings.Split(key, ".")
	var current interface{} = f.data

	for _, k := range keys {
		if m, ok := current.(map[string]interface{}); ok {
			if val, exists := m[k]; exists {
				current = val
			} else {
				return "", false
			}
		} else {
			return "", false
		}
	}

	if str, ok := current.(string); ok {
		return str, true
	}
	return fmt.Sprintf("%v", current), true
}

// GetWithDefault retrieves a value from the config file or returns a default.
func (f *FileConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := f.Get(key); ok {
		return val
	}
	return defaultValue
}

// CompositeConfigSource checks multiple sources in order.
type CompositeConfigSource struct {
	sources []ConfigSource
}

// Get retrieves a value from the first source that has it.
func (c *CompositeConfigSource) Get(key string) (string, bool) {
	for _, s := range c.sources {
		if val, ok := s.Get(key); ok {
			return val, true
		}
	}
	return "", false
}

// GetWithDefault retrieves a value from the first source that has it, or the default.
func (c *CompositeConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := c.Get(key); ok {
		return val
	}
	return defaultValue
}

// Config holds converter configuration.
type Config struct {
	// Conversion limits and defaults. The two historical size ceilings
	// (100MB single-format, 50MB multi-format) are collapsed into one
	// configured value; 50MB is the default.
	MaxFileSizeMB       int
	DefaultRenderScale  float64 // PDF page render magnification
	DefaultImageQuality float64 // 0-1, applied to lossy encoders
	DefaultPageSize     string  // page format for image-to-PDF output

	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Application configuration
	AppName     string
	AppVersion  string
	Environment string // dev, staging, prod
}

// MaxFileSizeBytes returns the configured ceiling in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// LoadConfig loads configuration from the provided source.
// Environment variables take precedence over file config.
func LoadConfig(source ConfigSource) (*Config, error) {
	cfg := &Config{}

	getInt := func(key string, defaultValue int) int {
		str := source.GetWithDefault(key, fmt.Sprintf("%d", defaultValue))
		val, err := strconv.Atoi(str)
		if err != nil {
			return defaultValue
		}
		return val
	}

	getFloat := func(key string, defaultValue float64) float64 {
		str := source.GetWithDefault(key, fmt.Sprintf("%g", defaultValue))
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return defaultValue
		}
		return val
	}

	cfg.MaxFileSizeMB = getInt("MAX_FILE_SIZE_MB", 50)
	cfg.DefaultRenderScale = getFloat("DEFAULT_RENDER_SCALE", 2.0)
	cfg.DefaultImageQuality = getFloat("DEFAULT_IMAGE_QUALITY", 0.95)
	cfg.DefaultPageSize = source.GetWithDefault("DEFAULT_PAGE_SIZE", "A4")

	cfg.LogLevel = source.GetWithDefault("LOG_LEVEL", "info")
	cfg.LogFormat = source.GetWithDefault("LOG_FORMAT", "json")

	cfg.AppName = source.GetWithDefault("APP_NAME", "go-convert-kit")
	cfg.AppVersion = source.GetWithDefault("APP_VERSION", "1.0.0")
	cfg.Environment = source.GetWithDefault("ENVIRONMENT", "dev")

	if cfg.MaxFileSizeMB <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE_MB must be positive, got %d", cfg.MaxFileSizeMB)
	}

	return cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
func LoadConfigFromEnv() (*Config, error) {
	return LoadConfig(&EnvConfigSource{})
}

// LoadConfigFromFile loads configuration from a JSON or YAML file.
// Environment variables will override file values if both are set.
func LoadConfigFromFile(filePath string) (*Config, error) {
	fileSource, err := NewFileConfigSource(filePath)
	if err != nil {
		return nil, err
	}

	composite := &CompositeConfigSource{
		sources: []ConfigSource{&EnvConfigSource{}, fileSource},
	}

	return LoadConfig(composite)
}

// DefaultConfig returns a config with all defaults, no external sources.
func DefaultConfig() *Config {
	cfg, _ := LoadConfig(&staticSource{})
	return cfg
}

// staticSource is an empty source; every lookup falls back to the default.
type staticSource struct{}

func (s *staticSource) Get(key string) (string, bool) { return "", false }
func (s *staticSource) GetWithDefault(key, defaultValue string) string {
	return defaultValue
}
