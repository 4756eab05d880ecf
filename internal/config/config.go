// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server and its tools read from the environment.
// Optional integrations are disabled when their settings are empty.
type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	LogLevel    string
	LogFile     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	ElasticsearchURL string

	AWSRegion    string
	AWSBucket    string
	CDNBaseURL   string
	SESFromEmail string
	SESFromName  string
	WebBaseURL   string

	AuthJWTSecret string
	AuthRequired  bool

	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	HeartbeatInterval time.Duration
	CronEnabled       bool

	RequiredServices []string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL(),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "logs/server.log"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),

		AWSRegion:    getEnvOrDefault("AWS_REGION", "eu-south-1"),
		AWSBucket:    os.Getenv("AWS_BUCKET"),
		CDNBaseURL:   os.Getenv("CDN_BASE_URL"),
		SESFromEmail: os.Getenv("SES_FROM_EMAIL"),
		SESFromName:  getEnvOrDefault("SES_FROM_NAME", "Sprinta"),
		WebBaseURL:   getEnvOrDefault("WEB_BASE_URL", "http://localhost:3000"),

		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		AuthRequired:  getBool("AUTH_REQUIRED", false),

		TracingEnabled:    getBool("OTEL_ENABLED", false),
		OTLPEndpoint:      getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		TracingSampleRate: getFloat("OTEL_SAMPLING_RATE", 1.0),

		HeartbeatInterval: getDuration("SSE_HEARTBEAT_INTERVAL", 30*time.Second),
		CronEnabled:       getBool("CRON_ENABLED", true),

		RequiredServices: splitList(os.Getenv("REQUIRED_SERVICES")),
	}

	if cfg.CDNBaseURL == "" && cfg.AWSBucket != "" {
		cfg.CDNBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AWSBucket, cfg.AWSRegion)
	}

	if cfg.AuthRequired && cfg.AuthJWTSecret == "" {
		return nil, fmt.Errorf("AUTH_REQUIRED is set but AUTH_JWT_SECRET is empty")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// S3Enabled reports whether uploads can be forwarded to a bucket.
func (c *Config) S3Enabled() bool {
	return c.AWSBucket != ""
}

// SESEnabled reports whether notification emails can be sent.
func (c *Config) SESEnabled() bool {
	return c.SESFromEmail != ""
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := os.Getenv("DB_PASSWORD")
	name := getEnvOrDefault("DB_NAME", "sprinta")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s", host, port, user, name, sslmode)
	if password != "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, password, name, sslmode)
	}
	return dsn
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
