// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// TimeoutCfg drives the per-query timeout heuristic: a base budget, an
// allowance per 30-day backend chunk, an allowance per selected EEZ, and a
// fixed batch overhead.
type TimeoutCfg struct {
	Base          time.Duration
	PerChunk      time.Duration
	PerEEZ        time.Duration
	BatchOverhead time.Duration
	ChunkDays     int
}

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	UpstreamURL   string
	RedisAddr     string
	HistoryDBPath string

	ConfigsTTL     time.Duration
	BoundariesTTL  time.Duration
	CacheOpTimeout time.Duration

	VesselCacheSize int

	ProgressTick  time.Duration
	ToastDuration time.Duration

	Timeout      TimeoutCfg
	Invalidation InvalidationCfg
}

func FromEnv() Config {
	return Config{
		Addr:     getenv("ADDR", ":8070"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		UpstreamURL:   getenv("UPSTREAM_URL", "http://localhost:5000"),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		HistoryDBPath: getenv("HISTORY_DB_PATH", "darkwatch-history.db"),

		ConfigsTTL:     getduration("CONFIGS_TTL", time.Hour),
		BoundariesTTL:  getduration("BOUNDARIES_TTL", 6*time.Hour),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),

		VesselCacheSize: getint("VESSEL_CACHE_SIZE", 512),

		ProgressTick:  getduration("PROGRESS_TICK", 500*time.Millisecond),
		ToastDuration: getduration("TOAST_DURATION", 6*time.Second),

		Timeout: TimeoutCfg{
			Base:          getduration("QUERY_TIMEOUT_BASE", 120*time.Second),
			PerChunk:      getduration("QUERY_TIMEOUT_PER_CHUNK", 30*time.Second),
			PerEEZ:        getduration("QUERY_TIMEOUT_PER_EEZ", 20*time.Second),
			BatchOverhead: getduration("QUERY_TIMEOUT_BATCH_OVERHEAD", 60*time.Second),
			ChunkDays:     getint("QUERY_CHUNK_DAYS", 30),
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "detection-batches"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "darkwatch-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
