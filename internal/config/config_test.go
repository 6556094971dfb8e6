package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aralis/internal/config"
)

func newViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "ARL", cfg.OrderNumberPrefix)
	assert.Equal(t, 10, cfg.OrderNumberMaxAttempts)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "log", cfg.MailDriver)
}

func TestFromViper_Overrides(t *testing.T) {
	v := newViper()
	v.Set("ORDER_NUMBER_PREFIX", "ped")
	v.Set("FRONTEND_URL", "https://aralis.store/")
	v.Set("DB_DRIVER", "Postgres")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "PED", cfg.OrderNumberPrefix)
	assert.Equal(t, "https://aralis.store", cfg.FrontendURL)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestFromViper_RejectsInvalid(t *testing.T) {
	cases := map[string]any{
		"DB_DRIVER":                 "oracle",
		"CACHE_DRIVER":              "memcached",
		"MAIL_DRIVER":               "queue",
		"ORDER_NUMBER_MAX_ATTEMPTS": 0,
		"RESET_TOKEN_TTL":           "0s",
		"JWT_SECRET":                "",
	}
	for key, value := range cases {
		v := newViper()
		v.Set(key, value)
		_, err := config.FromViper(v)
		assert.Error(t, err, key)
	}
}
