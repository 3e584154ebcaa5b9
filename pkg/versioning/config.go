package versioning

import (
	"os"
	"strconv"
	"time"
)

// Config controls deployment policy knobs.
type Config struct {
	StaleRollbackWindow time.Duration // Rollback targets older than this are flagged unsafe. Default 30 days.
	DefaultHistoryLimit int           // Applied when a history query passes no limit. Default 50.
	MaxHistoryLimit     int           // Hard cap on history page size. Default 200.
	AuditRetentionDays  int           // Audit events older than this are eligible for the retention sweep. Default 90.
	ComparisonCacheSize int           // Max cached version comparisons. Default 256; 0 disables the cache.
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StaleRollbackWindow: 30 * 24 * time.Hour,
		DefaultHistoryLimit: 50,
		MaxHistoryLimit:     200,
		AuditRetentionDays:  90,
		ComparisonCacheSize: 256,
	}
}

// ConfigFromEnv loads config from environment variables.
// REGISTRY_STALE_ROLLBACK_DAYS, REGISTRY_DEFAULT_HISTORY_LIMIT,
// REGISTRY_MAX_HISTORY_LIMIT, REGISTRY_AUDIT_RETENTION_DAYS,
// REGISTRY_COMPARISON_CACHE_SIZE
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("REGISTRY_STALE_ROLLBACK_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.StaleRollbackWindow = time.Duration(days) * 24 * time.Hour
		}
	}

	if v := os.Getenv("REGISTRY_DEFAULT_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultHistoryLimit = n
		}
	}

	if v := os.Getenv("REGISTRY_MAX_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxHistoryLimit = n
		}
	}

	if v := os.Getenv("REGISTRY_AUDIT_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.AuditRetentionDays = days
		}
	}

	if v := os.Getenv("REGISTRY_COMPARISON_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ComparisonCacheSize = n
		}
	}

	return cfg
}
