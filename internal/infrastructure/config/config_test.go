package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finbase/paycore/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotEmpty(t, cfg.DatabaseURL)
	require.Equal(t, 25, cfg.DatabaseMaxConns)
	require.Equal(t, 5, cfg.DatabaseMinConns)
	require.Equal(t, "8081", cfg.OpsPort)
	require.Equal(t, 15*time.Second, cfg.LockLeaseTTL)
	require.Equal(t, 30*time.Second, cfg.SnapshotMaxAge)
	require.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, "log", cfg.NotifierBackend)
	require.Equal(t, "paycore.events", cfg.KafkaTopic)
	require.Equal(t, 50, cfg.FraudSuspiciousScore)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("OPS_PORT", "9090")
	t.Setenv("LOCK_LEASE_TTL", "30s")
	t.Setenv("SNAPSHOT_MAX_AGE", "1m")
	t.Setenv("NOTIFIER_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("FRAUD_SUSPICIOUS_SCORE", "70")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "postgres://example", cfg.DatabaseURL)
	require.Equal(t, "redis://example", cfg.RedisURL)
	require.Equal(t, "9090", cfg.OpsPort)
	require.Equal(t, 30*time.Second, cfg.LockLeaseTTL)
	require.Equal(t, time.Minute, cfg.SnapshotMaxAge)
	require.Equal(t, "kafka", cfg.NotifierBackend)
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 70, cfg.FraudSuspiciousScore)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_TIMEOUT", "not-a-duration")

	_, err := config.Load()
	require.Error(t, err)
}
