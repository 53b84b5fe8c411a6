// Package config handles configuration loading and management for InfoQuest.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for InfoQuest.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Search    SearchConfig    `mapstructure:"search"`
	Limits    Limits          `mapstructure:"limits"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. Supports ${VAR} expansion.
	APIKey string `mapstructure:"api_key"`
	// Model is the model identifier for decomposition, judging, and executors.
	Model string `mapstructure:"model"`
	// UseAWSBedrock routes requests through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is an optional AWS shared config profile name.
	AWSProfile string `mapstructure:"aws_profile"`
}

// SearchConfig holds web search settings for research tasks.
type SearchConfig struct {
	// APIKey authenticates against the search endpoint.
	APIKey string `mapstructure:"api_key"`
	// Endpoint is the search API base URL.
	Endpoint string `mapstructure:"endpoint"`
	// MaxResults caps results per query.
	MaxResults int `mapstructure:"max_results"`
}

// Limits bounds the orchestration state machine. Passed by value into the
// orchestrator constructor so the state machine never reads ambient state.
type Limits struct {
	// MaxTasks caps the number of sub-tasks a decomposition may return.
	MaxTasks int `mapstructure:"max_tasks"`
	// MaxRounds caps judge-triggered re-planning rounds.
	MaxRounds int `mapstructure:"max_rounds"`
	// MaxWorkers bounds concurrent task executions within one generation.
	MaxWorkers int `mapstructure:"max_workers"`
	// TaskTimeout is the per-task execution timeout.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// DefaultsConfig holds default run settings.
type DefaultsConfig struct {
	// Locale is the output locale, e.g. "en-US".
	Locale string `mapstructure:"locale"`
	// OutputDir is where final reports are written.
	OutputDir string `mapstructure:"output_dir"`
	// BackgroundInvestigation enables the pre-decomposition search pass.
	BackgroundInvestigation bool `mapstructure:"background_investigation"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY, INFOQUEST_SEARCH_API_KEY)
//  2. Project config (.infoquest.yaml in current directory or parent)
//  3. User config (~/.config/infoquest/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config overrides user config
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("search.api_key", "INFOQUEST_SEARCH_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Search.APIKey = os.ExpandEnv(cfg.Search.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Search.APIKey = os.ExpandEnv(cfg.Search.APIKey)

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("search.endpoint", "https://api.tavily.com")
	v.SetDefault("search.max_results", 5)

	v.SetDefault("limits.max_tasks", 5)
	v.SetDefault("limits.max_rounds", 3)
	v.SetDefault("limits.max_workers", 3)
	v.SetDefault("limits.task_timeout", "5m")

	v.SetDefault("defaults.locale", "en-US")
	v.SetDefault("defaults.output_dir", "outputs")
	v.SetDefault("defaults.background_investigation", true)
}

// getUserConfigDir returns the XDG config directory for InfoQuest.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "infoquest")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "infoquest")
	}
	return filepath.Join(home, ".config", "infoquest")
}

// findProjectConfig searches for .infoquest.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".infoquest.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Endpoint:   "https://api.tavily.com",
			MaxResults: 5,
		},
		Limits: Limits{
			MaxTasks:    5,
			MaxRounds:   3,
			MaxWorkers:  3,
			TaskTimeout: 5 * time.Minute,
		},
		Defaults: DefaultsConfig{
			Locale:                  "en-US",
			OutputDir:               "outputs",
			BackgroundInvestigation: true,
		},
	}
}
