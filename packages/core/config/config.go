package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the hitfake configuration
type Config struct {
	Port        int            `json:"port,omitempty"`
	Routes      string         `json:"routes,omitempty"`   // YAML routes file
	Metadata    map[string]any `json:"metadata,omitempty"` // Seeds every request environment
	EnvFile     string         `json:"envFile,omitempty"`
	EnvPrefix   string         `json:"envPrefix,omitempty"` // Process variables imported into metadata
	Delay       int            `json:"delay,omitempty"`     // milliseconds
	RateLimit   float64        `json:"rateLimit,omitempty"` // requests per second, 0 disables
	Burst       int            `json:"burst,omitempty"`
	JournalPath string         `json:"journalPath,omitempty"`
	Verbose     *bool          `json:"verbose,omitempty"`
	NoColor     *bool          `json:"noColor,omitempty"`
	Watch       *bool          `json:"watch,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetWatch returns the watch setting, defaulting to false
func (c *Config) GetWatch() bool {
	return getBool(c.Watch, false)
}

// DelayDuration returns Delay as a duration.
func (c *Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay) * time.Millisecond
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitfake.config.json",
	"hitfake.config.json",
	".hitfakerc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Port > 0 {
		result.Port = other.Port
	}
	if other.Routes != "" {
		result.Routes = other.Routes
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.EnvPrefix != "" {
		result.EnvPrefix = other.EnvPrefix
	}
	if other.Delay > 0 {
		result.Delay = other.Delay
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.Burst > 0 {
		result.Burst = other.Burst
	}
	if other.JournalPath != "" {
		result.JournalPath = other.JournalPath
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Watch != nil {
		result.Watch = other.Watch
	}

	if len(other.Metadata) > 0 {
		merged := make(map[string]any, len(c.Metadata)+len(other.Metadata))
		for k, v := range c.Metadata {
			merged[k] = v
		}
		for k, v := range other.Metadata {
			merged[k] = v
		}
		result.Metadata = merged
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
