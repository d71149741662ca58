package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Audit     AuditConfig
	Provision ProvisionConfig
	Reconcile ReconcileConfig
	Telegram  TelegramConfig
	Timezone  string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	OpsPort string
	Env     string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string
	MaxConns int
}

// RedisConfig holds Redis configuration. An empty URL selects the in-process lock.
type RedisConfig struct {
	URL string
}

// AuthConfig holds admin access configuration
type AuthConfig struct {
	JWTSecret     string
	RestrictedIPs string
}

// AuditConfig holds audit delivery configuration
type AuditConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
	QueueSize    int
}

// ProvisionConfig holds slave provisioning configuration
type ProvisionConfig struct {
	HandleRetries int
}

// ReconcileConfig holds membership reconciler configuration
type ReconcileConfig struct {
	Schedule    string
	Grace       time.Duration
	MaxAttempts int
}

// TelegramConfig holds alert configuration
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			OpsPort: getEnv("OPS_PORT", "8081"),
			Env:     getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			RestrictedIPs: getEnv("RESTRICTED_IPS", "0"),
		},
		Audit: AuditConfig{
			KafkaBrokers: getEnvList("KAFKA_BROKERS"),
			KafkaTopic:   getEnv("KAFKA_AUDIT_TOPIC", "copydesk.audit"),
			QueueSize:    getEnvInt("AUDIT_QUEUE_SIZE", 256),
		},
		Provision: ProvisionConfig{
			HandleRetries: getEnvInt("PROVISION_HANDLE_RETRIES", 5),
		},
		Reconcile: ReconcileConfig{
			Schedule:    getEnv("RECONCILE_SCHEDULE", "@every 1m"),
			Grace:       getEnvDuration("RECONCILE_GRACE", 2*time.Minute),
			MaxAttempts: getEnvInt("RECONCILE_MAX_ATTEMPTS", 5),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
		Timezone: getEnv("TZ", "Asia/Kolkata"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("[WARN] Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("[WARN] Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvList splits a comma separated variable, skipping blanks
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
