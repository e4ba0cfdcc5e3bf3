package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api" envPrefix:"CINEX_API_"`
	Storage StorageConfig `toml:"storage" envPrefix:"CINEX_STORAGE_"`
	Log     LogConfig     `toml:"log" envPrefix:"CINEX_LOG_"`
}

// APIConfig contains the backend and image origins.
type APIConfig struct {
	BaseURL          string `toml:"base_url" env:"BASE_URL"`
	ImageBaseURL     string `toml:"image_base_url" env:"IMAGE_BASE_URL"`
	PlaceholderImage string `toml:"placeholder_image" env:"PLACEHOLDER_IMAGE"`
	TimeoutMS        int    `toml:"timeout_ms" env:"TIMEOUT_MS"`
}

// Timeout returns the request timeout, defaulting to 10 seconds.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// StorageConfig selects and configures the durable client storage driver.
type StorageConfig struct {
	Driver       string `toml:"driver" env:"DRIVER"`
	Path         string `toml:"path" env:"PATH"`
	RedisURL     string `toml:"redis_url" env:"REDIS_URL"`
	Prefix       string `toml:"prefix" env:"PREFIX"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overlays CINEX_* environment variables onto c.
//
// A .env file at envFile is loaded first when it exists; variables already set in the environment win.
func ApplyEnv(c *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
