package config

import (
	"os"
	"time"
)

// CacheConfig defines settings for the availability snapshot cache.
// When Enabled is false the hybrid cache passes every read through to
// the calculator.  TTL bounds how long the shared (Redis) tier may serve
// a snapshot; LocalTTL bounds the in-process fallback tier, which is
// kept shorter because it cannot observe invalidations published while
// the process was partitioned from Redis.  Prefix namespaces the keys.
type CacheConfig struct {
	Enabled  bool
	TTL      time.Duration
	LocalTTL time.Duration
	Prefix   string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  getenv("CACHE_ENABLED", "true") == "true",
		TTL:      parseDur(getenv("CACHE_TTL", "30s")),
		LocalTTL: parseDur(getenv("CACHE_LOCAL_TTL", "10s")),
		Prefix:   getenv("CACHE_PREFIX", "avail"),
	}
}

// Helper functions shared with redis.go.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
