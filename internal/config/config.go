package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/hcp-engage/internal/warehouse"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	Warehouse  warehouse.Config `yaml:"warehouse"`
	Health     HealthConfig     `yaml:"health"`
	NBA        NBAConfig        `yaml:"nba"`
	Saturation SaturationConfig `yaml:"saturation"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds Redis settings for capacity guards and plan locks.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// StorageConfig holds S3 report archiving settings.
type StorageConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	AWSProfile string `yaml:"aws_profile"`
}

// HealthConfig holds channel health classification thresholds.
type HealthConfig struct {
	StaleDays               int     `yaml:"stale_days"`
	BlockedResponseRate     float64 `yaml:"blocked_response_rate"`
	BlockedMinTouches       int     `yaml:"blocked_min_touches"`
	OpportunityMinScore     float64 `yaml:"opportunity_min_score"`
	OpportunityMaxTouches   int     `yaml:"opportunity_max_touches"`
	ActiveMinResponseRate   float64 `yaml:"active_min_response_rate"`
	ActiveMaxDaysSinceContact int   `yaml:"active_max_days_since_contact"`
}

// NBAConfig holds decision engine settings.
type NBAConfig struct {
	PrioritizeOpportunities bool    `yaml:"prioritize_opportunities"`
	AddressBlocked          bool    `yaml:"address_blocked"`
	ReEngageThresholdDays   int     `yaml:"re_engage_threshold_days"`
	MinConfidenceThreshold  float64 `yaml:"min_confidence_threshold"`
}

// SaturationConfig holds message-saturation settings.
type SaturationConfig struct {
	TargetMSI float64 `yaml:"target_msi"`
}

// SchedulerConfig holds plan scheduler settings.
type SchedulerConfig struct {
	Enabled             bool `yaml:"enabled"`
	PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
}

// Load reads and parses the YAML config at path, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Health.StaleDays == 0 {
		cfg.Health.StaleDays = 90
	}
	if cfg.Health.BlockedResponseRate == 0 {
		cfg.Health.BlockedResponseRate = 2.0
	}
	if cfg.Health.BlockedMinTouches == 0 {
		cfg.Health.BlockedMinTouches = 5
	}
	if cfg.Health.OpportunityMinScore == 0 {
		cfg.Health.OpportunityMinScore = 70
	}
	if cfg.Health.OpportunityMaxTouches == 0 {
		cfg.Health.OpportunityMaxTouches = 3
	}
	if cfg.Health.ActiveMinResponseRate == 0 {
		cfg.Health.ActiveMinResponseRate = 10.0
	}
	if cfg.Health.ActiveMaxDaysSinceContact == 0 {
		cfg.Health.ActiveMaxDaysSinceContact = 30
	}
	if cfg.NBA.ReEngageThresholdDays == 0 {
		cfg.NBA.ReEngageThresholdDays = 60
	}
	if cfg.NBA.MinConfidenceThreshold == 0 {
		cfg.NBA.MinConfidenceThreshold = 40
	}
	if cfg.Saturation.TargetMSI == 0 {
		cfg.Saturation.TargetMSI = 40
	}
	if cfg.Scheduler.PollIntervalSeconds == 0 {
		cfg.Scheduler.PollIntervalSeconds = 30
	}
	return &cfg, nil
}

// LoadFromEnv loads config from path, then overrides fields from the
// environment. A .env file is honored if present.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
		cfg.Redis.Enabled = true
	}
	if bucket := os.Getenv("REPORTS_S3_BUCKET"); bucket != "" {
		cfg.Storage.S3Bucket = bucket
		cfg.Storage.Enabled = true
	}
	if region := os.Getenv("REPORTS_S3_REGION"); region != "" {
		cfg.Storage.S3Region = region
	}
	if profile := os.Getenv("AWS_PROFILE_OVERRIDE"); profile != "" {
		cfg.Storage.AWSProfile = profile
	}
	if account := os.Getenv("SNOWFLAKE_ACCOUNT"); account != "" {
		cfg.Warehouse.Account = account
	}
	if user := os.Getenv("SNOWFLAKE_USER"); user != "" {
		cfg.Warehouse.User = user
	}
	if password := os.Getenv("SNOWFLAKE_PASSWORD"); password != "" {
		cfg.Warehouse.Password = password
	}
	if db := os.Getenv("SNOWFLAKE_DATABASE"); db != "" {
		cfg.Warehouse.Database = db
	}
	if schema := os.Getenv("SNOWFLAKE_SCHEMA"); schema != "" {
		cfg.Warehouse.Schema = schema
	}
	if wh := os.Getenv("SNOWFLAKE_WAREHOUSE"); wh != "" {
		cfg.Warehouse.Warehouse = wh
	}
	return cfg, nil
}
