package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "cartline.sid", cfg.Session.CookieName)
	assert.Equal(t, 5*time.Second, cfg.Order.TxTimeout)
	assert.Equal(t, 3, cfg.Order.MaxRetryAttempts)
	assert.Equal(t, "order-events", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_NAME", "cartline_test")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ORDER_MAX_RETRY_ATTEMPTS", "5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "cartline_test", cfg.Database.Name)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 5, cfg.Order.MaxRetryAttempts)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ORDER_TX_TIMEOUT", "soon")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "ORDER_TX_TIMEOUT")
}

func TestLoad_InvalidRetryAttempts(t *testing.T) {
	t.Setenv("ORDER_MAX_RETRY_ATTEMPTS", "0")

	_, err := Load()
	assert.Error(t, err)
}
