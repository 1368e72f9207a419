package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Token authenticates the gateway session.
	Token string `yaml:"token"`

	// Gateway names the registered gateway adapter to connect with.
	Gateway string `yaml:"gateway"`

	// CommandPrefix introduces chat commands, e.g. "/analytics top".
	CommandPrefix string `yaml:"command_prefix"`

	// DatabaseRoot is the directory holding one SQLite file per guild.
	DatabaseRoot string `yaml:"database_root"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// OpsAddr is the listen address for health, metrics, and the
	// read-only stats API.
	OpsAddr string `yaml:"ops_addr"`

	// StatsCacheTTL bounds staleness of cached ranking results. Zero
	// disables the cache.
	StatsCacheTTL time.Duration `yaml:"stats_cache_ttl"`

	// ResyncSchedule is a cron expression for the periodic full catalog
	// resync. Empty disables it.
	ResyncSchedule string `yaml:"resync_schedule"`

	// RedisURL enables the reaction dedup window when set.
	RedisURL string `yaml:"redis_url"`

	// DedupWindow is how long an identical reaction delivery is
	// suppressed. Only meaningful with RedisURL set.
	DedupWindow time.Duration `yaml:"dedup_window"`

	// Backup configures optional off-box upload of rotated store files.
	Backup BackupConfig `yaml:"backup"`
}

// BackupConfig holds the S3 upload settings for rotated backups. An empty
// bucket disables uploads.
type BackupConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Load reads the YAML file at path (skipped when path is empty or absent)
// and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Gateway:        "discord",
		CommandPrefix:  "/analytics",
		DatabaseRoot:   "./data",
		LogLevel:       "info",
		OpsAddr:        ":9090",
		StatsCacheTTL:  15 * time.Second,
		ResyncSchedule: "30 4 * * *",
		DedupWindow:    30 * time.Second,
	}
}

func applyEnv(cfg *Config) {
	cfg.Token = getEnv("GUILDSTATS_TOKEN", cfg.Token)
	cfg.Gateway = getEnv("GUILDSTATS_GATEWAY", cfg.Gateway)
	cfg.CommandPrefix = getEnv("GUILDSTATS_COMMAND_PREFIX", cfg.CommandPrefix)
	cfg.DatabaseRoot = getEnv("GUILDSTATS_DATABASE_ROOT", cfg.DatabaseRoot)
	cfg.LogLevel = getEnv("GUILDSTATS_LOG_LEVEL", cfg.LogLevel)
	cfg.OpsAddr = getEnv("GUILDSTATS_OPS_ADDR", cfg.OpsAddr)
	cfg.StatsCacheTTL = getEnvDuration("GUILDSTATS_STATS_CACHE_TTL", cfg.StatsCacheTTL)
	cfg.ResyncSchedule = getEnv("GUILDSTATS_RESYNC_SCHEDULE", cfg.ResyncSchedule)
	cfg.RedisURL = getEnv("GUILDSTATS_REDIS_URL", cfg.RedisURL)
	cfg.DedupWindow = getEnvDuration("GUILDSTATS_DEDUP_WINDOW", cfg.DedupWindow)
	cfg.Backup.Bucket = getEnv("GUILDSTATS_BACKUP_BUCKET", cfg.Backup.Bucket)
	cfg.Backup.Region = getEnv("GUILDSTATS_BACKUP_REGION", cfg.Backup.Region)
	cfg.Backup.Endpoint = getEnv("GUILDSTATS_BACKUP_ENDPOINT", cfg.Backup.Endpoint)
	cfg.Backup.Prefix = getEnv("GUILDSTATS_BACKUP_PREFIX", cfg.Backup.Prefix)
	cfg.Backup.AccessKey = getEnv("GUILDSTATS_BACKUP_ACCESS_KEY", cfg.Backup.AccessKey)
	cfg.Backup.SecretKey = getEnv("GUILDSTATS_BACKUP_SECRET_KEY", cfg.Backup.SecretKey)
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required (GUILDSTATS_TOKEN or config file)")
	}
	if c.DatabaseRoot == "" {
		return fmt.Errorf("database_root must not be empty")
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("command_prefix must not be empty")
	}
	if c.StatsCacheTTL < 0 {
		return fmt.Errorf("stats_cache_ttl must not be negative")
	}
	if c.DedupWindow < 0 {
		return fmt.Errorf("dedup_window must not be negative")
	}
	if c.Backup.Bucket != "" && c.Backup.Region == "" && c.Backup.Endpoint == "" {
		return fmt.Errorf("backup requires a region or endpoint when a bucket is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare integers are treated as seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
