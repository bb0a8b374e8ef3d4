package config_test

import (
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, config.CartStoreSQL, cfg.CartStore)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "ID", cfg.DefaultCountry)
	assert.False(t, cfg.RabbitMQEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("APP_PORT", ":9090")
	v.Set("CART_STORE", "redis")
	v.Set("TOKEN_TTL", "30m")
	v.Set("DEFAULT_COUNTRY", "NL")

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AppPort)
	assert.Equal(t, config.CartStoreRedis, cfg.CartStore)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "NL", cfg.DefaultCountry)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DEFAULT_COUNTRY", "DE")
	t.Setenv("RABBITMQ_ENABLED", "true")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "DE", cfg.DefaultCountry)
	assert.True(t, cfg.RabbitMQEnabled)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DATABASE_DRIVER", "mysql"},
		{"CART_STORE", "mongo"},
		{"JWT_SECRET", ""},
		{"TOKEN_TTL", "-1h"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			v := viper.New()
			v.Set(tc.key, tc.value)
			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}
