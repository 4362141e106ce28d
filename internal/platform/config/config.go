package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures server-level configuration so main stays lean.
type Config struct {
	Addr          string
	PostgresDSN   string
	JWTSigningKey string

	Redis RedisConfig
	Kafka KafkaConfig

	// TxTimeout bounds one unit of work.
	TxTimeout time.Duration
	// BookingHoldTTL is how long a pending booking holds its slot before
	// a waitlisted party may be promoted into it.
	BookingHoldTTL time.Duration
	// LoginRateLimit caps login attempts per client IP per minute.
	// Zero or negative disables the throttle.
	LoginRateLimit int

	// BootstrapEmail/BootstrapPassword seed one staff credential at start
	// so a fresh deployment can log in. Empty disables seeding.
	BootstrapEmail    string
	BootstrapPassword string
}

// RedisConfig holds connection settings for the realtime broadcast channel.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker and topic settings for the notification and
// audit pipelines.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	AuditTopic        string
	ConsumerGroup     string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("VENDORA_ADDR", ":8080"),
		PostgresDSN:       os.Getenv("VENDORA_POSTGRES_DSN"),
		JWTSigningKey:     envOr("VENDORA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TxTimeout:         5 * time.Second,
		BookingHoldTTL:    15 * time.Minute,
		LoginRateLimit:    intEnvOr("VENDORA_LOGIN_RATE_LIMIT", 10),
		BootstrapEmail:    os.Getenv("VENDORA_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("VENDORA_BOOTSTRAP_PASSWORD"),
		Redis: RedisConfig{
			URL:          os.Getenv("VENDORA_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			NotificationTopic: envOr("VENDORA_KAFKA_NOTIFICATION_TOPIC", "vendora.notifications"),
			AuditTopic:        envOr("VENDORA_KAFKA_AUDIT_TOPIC", "vendora.audit"),
			ConsumerGroup:     envOr("VENDORA_KAFKA_CONSUMER_GROUP", "vendora-audit-worker"),
		},
	}
	if brokers := os.Getenv("VENDORA_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnvOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
