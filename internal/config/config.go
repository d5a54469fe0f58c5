// Package config loads and validates application configuration from a
// YAML file with environment variable overrides. Config objects are
// constructed once in main and injected; nothing in this package is
// global state.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	GoogleAds    GoogleAdsConfig    `yaml:"google_ads"`
	MetaAds      MetaAdsConfig      `yaml:"meta_ads"`
	WebAnalytics WebAnalyticsConfig `yaml:"web_analytics"`
	Optimizer    OptimizerConfig    `yaml:"optimizer"`
	Automation   AutomationConfig   `yaml:"automation"`
	AdCopy       AdCopyConfig       `yaml:"ad_copy"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// RateLimitConfig holds one platform's token bucket parameters.
type RateLimitConfig struct {
	Capacity          float64 `yaml:"capacity"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// GoogleAdsConfig holds paid-search platform credentials and limits.
type GoogleAdsConfig struct {
	Enabled        bool            `yaml:"enabled"`
	BaseURL        string          `yaml:"base_url"`
	ClientID       string          `yaml:"client_id"`
	ClientSecret   string          `yaml:"client_secret"`
	RefreshToken   string          `yaml:"refresh_token"`
	TokenURL       string          `yaml:"token_url"`
	DeveloperToken string          `yaml:"developer_token"`
	CustomerID     string          `yaml:"customer_id"`
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// Timeout returns the configured timeout as a duration.
func (c GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MetaAdsConfig holds paid-social platform credentials and limits.
type MetaAdsConfig struct {
	Enabled        bool            `yaml:"enabled"`
	BaseURL        string          `yaml:"base_url"`
	AccessToken    string          `yaml:"access_token"`
	AdAccountID    string          `yaml:"ad_account_id"`
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// Timeout returns the configured timeout as a duration.
func (c MetaAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WebAnalyticsConfig holds the read-only analytics platform settings.
type WebAnalyticsConfig struct {
	Enabled        bool            `yaml:"enabled"`
	BaseURL        string          `yaml:"base_url"`
	APIKey         string          `yaml:"api_key"`
	PropertyID     string          `yaml:"property_id"`
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// Timeout returns the configured timeout as a duration.
func (c WebAnalyticsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OptimizerConfig tunes the budget optimizer's confidence model.
type OptimizerConfig struct {
	MinSampleDays     int     `yaml:"min_sample_days"`
	LowConfidenceCap  float64 `yaml:"low_confidence_cap"`
	RoundingTolerance float64 `yaml:"rounding_tolerance"`
}

// AutomationConfig holds ROI tracking defaults.
type AutomationConfig struct {
	DefaultHourlyRate float64 `yaml:"default_hourly_rate"`
	MonthlyCostBasis  float64 `yaml:"monthly_cost_basis"`
	CounterWindowDays int     `yaml:"counter_window_days"`
}

// AdCopyConfig selects and configures the text-generation backend.
type AdCopyConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Backend        string `yaml:"backend"` // "openai" or "bedrock"
	OpenAIKey      string `yaml:"openai_api_key"`
	OpenAIModel    string `yaml:"openai_model"`
	BedrockModelID string `yaml:"bedrock_model_id"`
	AWSRegion      string `yaml:"aws_region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c AdCopyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis connection settings for rolling counters.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	DB      int    `yaml:"db"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.GoogleAds.TimeoutSeconds == 0 {
		cfg.GoogleAds.TimeoutSeconds = 30
	}
	if cfg.GoogleAds.TokenURL == "" {
		cfg.GoogleAds.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.GoogleAds.RateLimit.Capacity == 0 {
		cfg.GoogleAds.RateLimit = RateLimitConfig{Capacity: 10, RequestsPerSecond: 5}
	}
	if cfg.MetaAds.TimeoutSeconds == 0 {
		cfg.MetaAds.TimeoutSeconds = 30
	}
	if cfg.MetaAds.RateLimit.Capacity == 0 {
		cfg.MetaAds.RateLimit = RateLimitConfig{Capacity: 10, RequestsPerSecond: 3}
	}
	if cfg.WebAnalytics.TimeoutSeconds == 0 {
		cfg.WebAnalytics.TimeoutSeconds = 30
	}
	if cfg.WebAnalytics.RateLimit.Capacity == 0 {
		cfg.WebAnalytics.RateLimit = RateLimitConfig{Capacity: 20, RequestsPerSecond: 10}
	}
	if cfg.Optimizer.MinSampleDays == 0 {
		cfg.Optimizer.MinSampleDays = 7
	}
	if cfg.Optimizer.LowConfidenceCap == 0 {
		cfg.Optimizer.LowConfidenceCap = 0.4
	}
	if cfg.Optimizer.RoundingTolerance == 0 {
		cfg.Optimizer.RoundingTolerance = 0.01
	}
	if cfg.Automation.DefaultHourlyRate == 0 {
		cfg.Automation.DefaultHourlyRate = 50
	}
	if cfg.Automation.CounterWindowDays == 0 {
		cfg.Automation.CounterWindowDays = 30
	}
	if cfg.AdCopy.Backend == "" {
		cfg.AdCopy.Backend = "openai"
	}
	if cfg.AdCopy.OpenAIModel == "" {
		cfg.AdCopy.OpenAIModel = "gpt-4o"
	}
	if cfg.AdCopy.AWSRegion == "" {
		cfg.AdCopy.AWSRegion = "us-east-1"
	}
	if cfg.AdCopy.TimeoutSeconds == 0 {
		cfg.AdCopy.TimeoutSeconds = 60
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GOOGLE_ADS_CLIENT_ID"); v != "" {
		cfg.GoogleAds.ClientID = v
	}
	if v := os.Getenv("GOOGLE_ADS_CLIENT_SECRET"); v != "" {
		cfg.GoogleAds.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_ADS_REFRESH_TOKEN"); v != "" {
		cfg.GoogleAds.RefreshToken = v
	}
	if v := os.Getenv("GOOGLE_ADS_DEVELOPER_TOKEN"); v != "" {
		cfg.GoogleAds.DeveloperToken = v
	}
	if v := os.Getenv("META_ADS_ACCESS_TOKEN"); v != "" {
		cfg.MetaAds.AccessToken = v
	}
	if v := os.Getenv("WEB_ANALYTICS_API_KEY"); v != "" {
		cfg.WebAnalytics.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AdCopy.OpenAIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}

	return cfg, nil
}
