package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig     `yaml:"database"`
	Schedule ScheduleConfig     `yaml:"schedule"`
	Sources  SourcesConfig      `yaml:"sources"`
	Engine   reliability.Params `yaml:"engine"`
	Alerts   AlertsConfig       `yaml:"alerts"`
	Server   ServerConfig       `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures collection and rescoring intervals.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
	RescoreInterval string `yaml:"rescore_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ParseRescoreInterval returns the rescore interval as time.Duration.
func (s ScheduleConfig) ParseRescoreInterval() time.Duration {
	d, err := time.ParseDuration(s.RescoreInterval)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

// SourcesConfig holds configuration for all data sources.
type SourcesConfig struct {
	Reddit RedditConfig `yaml:"reddit"`
	CPSC   CPSCConfig   `yaml:"cpsc"`
	IFixit IFixitConfig `yaml:"ifixit"`
	RSS    RSSConfig    `yaml:"rss"`
	Mock   MockConfig   `yaml:"mock"`
}

// RedditConfig for the Reddit complaint collector.
type RedditConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Subreddits   []string `yaml:"subreddits"`
}

// CPSCConfig for the CPSC recall collector.
type CPSCConfig struct {
	Enabled bool `yaml:"enabled"`
}

// IFixitConfig for the iFixit repairability collector.
type IFixitConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RSSConfig for the review-feed collector.
type RSSConfig struct {
	Enabled bool       `yaml:"enabled"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// MockConfig for the deterministic offline collector.
type MockConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`

	// ScoreDropThreshold is the score decrease between rescoring passes
	// that triggers a notification.
	ScoreDropThreshold int `yaml:"score_drop_threshold"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./relfeed.db"},
		Schedule: ScheduleConfig{
			CollectInterval: "6h",
			RescoreInterval: "12h",
		},
		Sources: SourcesConfig{
			Reddit: RedditConfig{
				Enabled: false,
				Subreddits: []string{
					"Monitors", "ultrawidemasterrace", "buildapc", "OLED_Gaming",
				},
			},
			CPSC:   CPSCConfig{Enabled: true},
			IFixit: IFixitConfig{Enabled: true},
			RSS: RSSConfig{
				Enabled: true,
				Feeds: []FeedItem{
					{Name: "RTINGS", URL: "https://www.rtings.com/rss/monitor"},
					{Name: "TFT Central", URL: "https://tftcentral.co.uk/feed"},
					{Name: "Monitors Unboxed", URL: "https://www.techspot.com/backend.xml"},
				},
			},
			Mock: MockConfig{Enabled: false},
		},
		Engine:  reliability.DefaultParams(),
		Alerts:  AlertsConfig{ScoreDropThreshold: 10},
		Server:  ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
// Inconsistent configuration is a startup error, never a silent fallback.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Alerts.ScoreDropThreshold < 0 {
		return fmt.Errorf("alerts score_drop_threshold must be >= 0, got %d", c.Alerts.ScoreDropThreshold)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RELFEED_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Sources.Reddit.ClientID = v
		cfg.Sources.Reddit.Enabled = true
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Sources.Reddit.ClientSecret = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
