package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "OPS_PORT", "DB_MAX_CONNS", "GO_ENV", "REDIS_URL", "RESTRICTED_IPS", "KAFKA_BROKERS",
		"AUDIT_QUEUE_SIZE", "PROVISION_HANDLE_RETRIES", "RECONCILE_SCHEDULE",
		"RECONCILE_GRACE", "RECONCILE_MAX_ATTEMPTS", "TZ",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8081", cfg.Server.OpsPort)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, "0", cfg.Auth.RestrictedIPs)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
	assert.Equal(t, 256, cfg.Audit.QueueSize)
	assert.Equal(t, 5, cfg.Provision.HandleRetries)
	assert.Equal(t, "@every 1m", cfg.Reconcile.Schedule)
	assert.Equal(t, 2*time.Minute, cfg.Reconcile.Grace)
	assert.Equal(t, 5, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("PROVISION_HANDLE_RETRIES", "8")
	t.Setenv("RECONCILE_GRACE", "30s")
	t.Setenv("RESTRICTED_IPS", "10.0.0.1,10.0.0.2")

	cfg := Load()
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Audit.KafkaBrokers)
	assert.Equal(t, 8, cfg.Provision.HandleRetries)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Grace)
	assert.Equal(t, "10.0.0.1,10.0.0.2", cfg.Auth.RestrictedIPs)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("AUDIT_QUEUE_SIZE", "lots")
	t.Setenv("RECONCILE_MAX_ATTEMPTS", "-1")
	t.Setenv("RECONCILE_GRACE", "soon")

	cfg := Load()
	assert.Equal(t, 256, cfg.Audit.QueueSize)
	assert.Equal(t, 5, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Reconcile.Grace)
}
