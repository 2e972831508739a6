package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dineshxr/submithunt/pkg/core/model"
)

// Config represents the application configuration
type Config struct {
	DatabaseURL   string `yaml:"databaseURL" validate:"required"`
	RedisURL      string `yaml:"redisURL,omitempty"`
	ListenAddr    string `yaml:"listenAddr,omitempty"`
	BaseURL       string `yaml:"baseURL,omitempty" validate:"omitempty,url"`
	AllowedOrigin string `yaml:"allowedOrigin,omitempty"`
	Timezone      string `yaml:"timezone,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from submithunt_config.yaml
// It looks for the config file in the current directory first, then in
// the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration with an environment suffix.
// For example, env="test" will look for "submithunt_config.test.yaml".
// A .env file, when present, is applied first; DATABASE_URL and
// REDIS_URL environment variables override the file values so secrets
// can stay out of the config file.
func LoadWithEnv(env string) (*Config, error) {
	// Best effort: deployments often carry env vars instead of a file
	_ = godotenv.Load()

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks the timezone
// is loadable
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = model.SchedulingTimezone
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
}

// findConfigFile searches for submithunt_config.yaml in the current
// directory and home directory. If env is provided it is added as an
// extension (e.g. "submithunt_config.test.yaml").
func findConfigFile(env string) (string, error) {
	configFileName := "submithunt_config.yaml"
	if env != "" {
		configFileName = "submithunt_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
