package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	YouTube   YouTube   `yaml:"youtube"`
	Search    Search    `yaml:"search"`
	Recommend Recommend `yaml:"recommend"`
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type YouTube struct {
	APIKeyEnv         string  `yaml:"api_key_env"`
	BaseURL           string  `yaml:"base_url"`
	FeedBaseURL       string  `yaml:"feed_base_url"`
	PublishedAfter    string  `yaml:"published_after"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	Timeout           string  `yaml:"timeout"`
}

type Search struct {
	Queries             []string `yaml:"queries"`
	Channels            []string `yaml:"channels"`
	BootstrapQueries    int      `yaml:"bootstrap_queries"`
	ReplenishMaxQueries int      `yaml:"replenish_max_queries"`
	PerQueryLimit       int      `yaml:"per_query_limit"`
}

type Recommend struct {
	TrainThreshold int `yaml:"train_threshold"`
	PoolCheckLimit int `yaml:"pool_check_limit"`
	PoolMinimum    int `yaml:"pool_minimum"`
	MaxResults     int `yaml:"max_results"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port           int    `yaml:"port"`
	RequestTimeout string `yaml:"request_timeout"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultQueries is used when the config file lists no search queries.
var DefaultQueries = []string{
	"tutorial", "how to", "guide", "tips", "review",
	"explained", "basics", "beginner", "learn", "course",
}

// ConfigDir returns the XDG config directory for mytube.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "mytube")
}

// DataDir returns the XDG data directory for mytube.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "mytube")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/mytube/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'mytube init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		YouTube: YouTube{
			APIKeyEnv:         "YOUTUBE_API_KEY",
			BaseURL:           "https://www.googleapis.com/youtube/v3",
			FeedBaseURL:       "https://www.youtube.com/feeds/videos.xml",
			PublishedAfter:    "2020-01-01T00:00:00Z",
			RequestsPerSecond: 5,
			Burst:             5,
			Timeout:           "30s",
		},
		Search: Search{
			BootstrapQueries:    5,
			ReplenishMaxQueries: 3,
			PerQueryLimit:       10,
		},
		Recommend: Recommend{
			TrainThreshold: 3,
			PoolCheckLimit: 20,
			PoolMinimum:    5,
			MaxResults:     12,
		},
		Server:  Server{Port: 5000, RequestTimeout: "2m"},
		Logging: Logging{Level: "info", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Search.Queries) == 0 {
		cfg.Search.Queries = append([]string(nil), DefaultQueries...)
	}
	if _, err := time.Parse(time.RFC3339, cfg.YouTube.PublishedAfter); err != nil {
		return nil, fmt.Errorf("parsing youtube.published_after: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// APIKey reads the YouTube API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.YouTube.APIKeyEnv)
}

// PublishedAfterTime returns the recency cutoff for search results.
func (c *Config) PublishedAfterTime() time.Time {
	t, _ := time.Parse(time.RFC3339, c.YouTube.PublishedAfter)
	return t
}

// ClientTimeout returns the HTTP timeout for provider calls.
func (c *Config) ClientTimeout() time.Duration {
	return parseDuration(c.YouTube.Timeout, 30*time.Second)
}

// RequestTimeout returns the per-request deadline applied by the server.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Server.RequestTimeout, 2*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
