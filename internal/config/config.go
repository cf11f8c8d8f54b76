package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/founder-insights/internal/insights"
)

// Config holds all configuration for the founder insights service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Polling  PollingConfig  `yaml:"polling"`
	Insights InsightsConfig `yaml:"insights"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the configured host, defaulting to localhost.
func (c ServerConfig) GetHost() string {
	if c.Host == "" {
		return "localhost"
	}
	return c.Host
}

// DatabaseConfig holds the analytics postgres connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeMins int    `yaml:"conn_max_life_mins"`
}

// RedisConfig holds the aggregate-cache settings. The cache holds raw
// upstream aggregates only; computed dashboard results are never persisted.
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the cache entry lifetime.
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// PollingConfig holds the background signal collector settings.
type PollingConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// Interval returns the polling interval as a duration.
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// InsightsConfig exposes every engine constant as named, overridable
// configuration. The defaults are documented assumptions chosen to keep the
// engine implementable and testable; they are not measured product truths and
// should be revisited against real requirements.
type InsightsConfig struct {
	Confidence ConfidenceWeights  `yaml:"confidence"`
	Blockers   BlockerThresholds  `yaml:"blockers"`
	Simulator  SimulatorConstants `yaml:"simulator"`
}

// ConfidenceWeights mirrors insights.ConfidenceConfig in yaml form.
type ConfidenceWeights struct {
	CoveragePenaltyPerDay  float64 `yaml:"coverage_penalty_per_day"`
	EstimatedMetricPenalty float64 `yaml:"estimated_metric_penalty"`
	LowVolumePenalty       float64 `yaml:"low_volume_penalty"`
	MinSessions30d         int64   `yaml:"min_sessions_30d"`
	MinEvents30d           int64   `yaml:"min_events_30d"`
	LowVolumeFlatPenalty   float64 `yaml:"low_volume_flat_penalty"`
	HighThreshold          int     `yaml:"high_threshold"`
	MediumThreshold        int     `yaml:"medium_threshold"`
}

// BlockerThresholds mirrors insights.BlockerConfig in yaml form.
type BlockerThresholds struct {
	HighDropOffPct         int     `yaml:"high_drop_off_pct"`
	MediumDropOffPct       int     `yaml:"medium_drop_off_pct"`
	MinPageViewsPerSession float64 `yaml:"min_page_views_per_session"`
	HighRiskSessionRatio   float64 `yaml:"high_risk_session_ratio"`
	MinReturnVisitorRatio  float64 `yaml:"min_return_visitor_ratio"`
	MaxPaymentFailureRate  float64 `yaml:"max_payment_failure_rate"`
	MinEnquiriesPerListing float64 `yaml:"min_enquiries_per_listing"`
}

// SimulatorConstants mirrors insights.SimulatorConfig in yaml form.
type SimulatorConstants struct {
	SupplyElasticity float64 `yaml:"supply_elasticity"`
	BandBaseSpread   float64 `yaml:"band_base_spread"`
	BandMinSpread    float64 `yaml:"band_min_spread"`
	BandMaxSpread    float64 `yaml:"band_max_spread"`
	MaxListingsPct   float64 `yaml:"max_listings_pct"`
	MaxNDAUpliftPts  float64 `yaml:"max_nda_uplift_pts"`
	MaxPaidUpliftPts float64 `yaml:"max_paid_uplift_pts"`
	MaxPartnerPct    float64 `yaml:"max_partner_pct"`
}

// ConfidenceConfig builds the engine config, falling back to the documented
// defaults for any zero-valued field.
func (c InsightsConfig) ConfidenceConfig() insights.ConfidenceConfig {
	cfg := insights.DefaultConfidenceConfig()
	w := c.Confidence
	if w.CoveragePenaltyPerDay > 0 {
		cfg.CoveragePenaltyPerDay = w.CoveragePenaltyPerDay
	}
	if w.EstimatedMetricPenalty > 0 {
		cfg.EstimatedMetricPenalty = w.EstimatedMetricPenalty
	}
	if w.LowVolumePenalty > 0 {
		cfg.LowVolumePenalty = w.LowVolumePenalty
	}
	if w.MinSessions30d > 0 {
		cfg.MinSessions30d = w.MinSessions30d
	}
	if w.MinEvents30d > 0 {
		cfg.MinEvents30d = w.MinEvents30d
	}
	if w.LowVolumeFlatPenalty > 0 {
		cfg.LowVolumeFlatPenalty = w.LowVolumeFlatPenalty
	}
	if w.HighThreshold > 0 {
		cfg.HighThreshold = w.HighThreshold
	}
	if w.MediumThreshold > 0 {
		cfg.MediumThreshold = w.MediumThreshold
	}
	return cfg
}

// BlockerConfig builds the engine config with defaults for zero fields.
func (c InsightsConfig) BlockerConfig() insights.BlockerConfig {
	cfg := insights.DefaultBlockerConfig()
	b := c.Blockers
	if b.HighDropOffPct > 0 {
		cfg.HighDropOffPct = b.HighDropOffPct
	}
	if b.MediumDropOffPct > 0 {
		cfg.MediumDropOffPct = b.MediumDropOffPct
	}
	if b.MinPageViewsPerSession > 0 {
		cfg.MinPageViewsPerSession = b.MinPageViewsPerSession
	}
	if b.HighRiskSessionRatio > 0 {
		cfg.HighRiskSessionRatio = b.HighRiskSessionRatio
	}
	if b.MinReturnVisitorRatio > 0 {
		cfg.MinReturnVisitorRatio = b.MinReturnVisitorRatio
	}
	if b.MaxPaymentFailureRate > 0 {
		cfg.MaxPaymentFailureRate = b.MaxPaymentFailureRate
	}
	if b.MinEnquiriesPerListing > 0 {
		cfg.MinEnquiriesPerListing = b.MinEnquiriesPerListing
	}
	return cfg
}

// SimulatorConfig builds the engine config with defaults for zero fields.
func (c InsightsConfig) SimulatorConfig() insights.SimulatorConfig {
	cfg := insights.DefaultSimulatorConfig()
	s := c.Simulator
	if s.SupplyElasticity > 0 {
		cfg.SupplyElasticity = s.SupplyElasticity
	}
	if s.BandBaseSpread > 0 {
		cfg.BandBaseSpread = s.BandBaseSpread
	}
	if s.BandMinSpread > 0 {
		cfg.BandMinSpread = s.BandMinSpread
	}
	if s.BandMaxSpread > 0 {
		cfg.BandMaxSpread = s.BandMaxSpread
	}
	if s.MaxListingsPct > 0 {
		cfg.MaxListingsPct = s.MaxListingsPct
	}
	if s.MaxNDAUpliftPts > 0 {
		cfg.MaxNDAUpliftPts = s.MaxNDAUpliftPts
	}
	if s.MaxPaidUpliftPts > 0 {
		cfg.MaxPaidUpliftPts = s.MaxPaidUpliftPts
	}
	if s.MaxPartnerPct > 0 {
		cfg.MaxPartnerPct = s.MaxPartnerPct
	}
	return cfg
}

// Load reads and parses the configuration file, then applies defaults.
// A missing file is not an error; the service can run on defaults plus env.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
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
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifeMins == 0 {
		cfg.Database.ConnMaxLifeMins = 30
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 300
	}
	if cfg.Polling.IntervalSeconds == 0 {
		cfg.Polling.IntervalSeconds = 300
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}

	return cfg, nil
}
