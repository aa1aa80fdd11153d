package recurrence

import (
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// Generation bounds, checked before any occurrence is produced
	MaxOccurrences int           // Maximum projected occurrences per rule (0 = unlimited)
	MaxSpan        time.Duration // Maximum distance from start to limit (0 = unlimited)

	// Location used for rules without a start time
	Location *time.Location
}

const year = 365*24*time.Hour + 6*time.Hour

// DefaultEngineConfig comfortably fits the 20-year open-ended daily rule
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: false,

	MaxOccurrences: 10000,
	MaxSpan:        50 * year,
}

// StrictConfig suits request paths where rules come from untrusted input
var StrictConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxOccurrences: 1000,
	MaxSpan:        5 * year,
}

// CachedConfig is DefaultEngineConfig with result caching turned on
var CachedConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute,
		MaxEntries:      5000,
		CleanupInterval: 10 * time.Minute,
	},

	MaxOccurrences: 10000,
	MaxSpan:        50 * year,
}

// UnlimitedConfig disables every bound. Callers own the memory cost.
var UnlimitedConfig = EngineConfig{}
