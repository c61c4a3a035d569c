package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Primary briefing feed: a local JSON document, or a URL if set
	FeedPath string `json:"feed_path"`
	FeedURL  string `json:"feed_url,omitempty"`

	// Extra RSS subscriptions merged into the briefing
	Sources []SourceConfig `json:"sources,omitempty"`

	// Whether story completion starts the next countdown immediately
	AutoAdvance bool `json:"auto_advance"`

	// Overrides the feed's dailyGoalMinutes when > 0
	DailyGoalMinutes int `json:"daily_goal_minutes,omitempty"`

	// Database location; defaults under the data dir
	DatabasePath string `json:"database_path,omitempty"`
}

// SourceConfig is one subscribed RSS/Atom feed
type SourceConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FeedPath:    filepath.Join(DataDir(), "feed.json"),
		AutoAdvance: true,
	}
}

// DataDir returns the directory holding all Brief state
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".brief")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return loadFrom(ConfigPath())
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}

	if cfg.FeedPath == "" && cfg.FeedURL == "" {
		cfg.FeedPath = DefaultConfig().FeedPath
	}
	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.saveTo(ConfigPath())
}

func (c *Config) saveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
