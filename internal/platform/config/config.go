// Package config builds runtime configuration from the environment so main
// stays lean. Empty infrastructure URLs select the in-memory implementations,
// which is the local development default.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// PostgresURL selects the PostgreSQL stores when set; empty runs on
	// memory stores.
	PostgresURL string

	Redis  RedisConfig
	Kafka  KafkaConfig
	Outbox OutboxConfig
}

// RedisConfig configures the shared dedup claim store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures event intake and transition publishing.
type KafkaConfig struct {
	// Brokers is empty when Kafka is not configured.
	Brokers          []string
	EventsTopic      string
	TransitionsTopic string
	GroupID          string
}

// Enabled reports whether a Kafka cluster is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// OutboxConfig tunes the command relay.
type OutboxConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          envString("HIREFUNNEL_ADDR", ":8080"),
		JWTSigningKey: envString("HIREFUNNEL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envString("HIREFUNNEL_JWT_ISSUER", "hirefunnel"),
		JWTAudience:   envString("HIREFUNNEL_JWT_AUDIENCE", "hirefunnel-api"),
		PostgresURL:   os.Getenv("HIREFUNNEL_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("HIREFUNNEL_REDIS_URL"),
			PoolSize:     envInt("HIREFUNNEL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("HIREFUNNEL_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("HIREFUNNEL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("HIREFUNNEL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("HIREFUNNEL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:          envList("HIREFUNNEL_KAFKA_BROKERS"),
			EventsTopic:      envString("HIREFUNNEL_KAFKA_EVENTS_TOPIC", "funnel.events"),
			TransitionsTopic: envString("HIREFUNNEL_KAFKA_TRANSITIONS_TOPIC", "funnel.transitions"),
			GroupID:          envString("HIREFUNNEL_KAFKA_GROUP_ID", "hirefunnel-intake"),
		},
		Outbox: OutboxConfig{
			Interval:    envDuration("HIREFUNNEL_OUTBOX_INTERVAL", time.Second),
			BatchSize:   envInt("HIREFUNNEL_OUTBOX_BATCH_SIZE", 64),
			MaxAttempts: envInt("HIREFUNNEL_OUTBOX_MAX_ATTEMPTS", 5),
			BackoffBase: envDuration("HIREFUNNEL_OUTBOX_BACKOFF_BASE", 2*time.Second),
			BackoffCap:  envDuration("HIREFUNNEL_OUTBOX_BACKOFF_CAP", 5*time.Minute),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
