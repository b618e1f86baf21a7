package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Store.UsesMemory())
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "inventario:changes", cfg.Redis.Channel)
	assert.Equal(t, "America/Bogota", cfg.App.Location().String())
	assert.True(t, cfg.DB.PreferIPv4)
	assert.Equal(t, cfg.App.Name, cfg.DB.ApplicationName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_MAX_RETRIES", "9")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_PREFER_IPV4", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Ledger.MaxRetries)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.False(t, cfg.DB.PreferIPv4)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("LEDGER_MAX_RETRIES", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LEDGER_MAX_RETRIES", "3")
	t.Setenv("STORE_DRIVER", "mongo")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "Marte/Olympus")
	_, err = Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapesPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/inv?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
