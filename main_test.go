package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aralis/internal/config"
)

func testConfig(t *testing.T, overrides map[string]any) config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DRIVER", "memory")
	v.Set("JWT_SECRET", "test_jwt_secret")
	for key, value := range overrides {
		v.Set(key, value)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestNewApp_MemoryDriver(t *testing.T) {
	app, cleanup, err := NewApp(context.Background(), testConfig(t, nil), zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer cleanup()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.NotEmpty(t, products, "demo catalog is seeded for the memory driver")

	var scarfID any
	for _, p := range products {
		if p["slug"] == "panuelo-de-algodon" {
			scarfID = p["id"]
		}
	}
	require.NotNil(t, scarfID)

	// A guest checkout exercises allocator, notifier and metrics end to end.
	body, _ := json.Marshal(map[string]any{
		"items":          []map[string]any{{"product_id": scarfID, "quantity": 1}},
		"customer_name":  "Ana",
		"customer_email": "ana@example.com",
		"customer_phone": "123",
		"pickup":         true,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "aralis_orders_created_total 1")
}

func TestNewApp_SQLiteDriver(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"DB_DRIVER":    "sqlite",
		"DATABASE_DSN": "file:main_test?mode=memory&cache=shared",
	})
	app, cleanup, err := NewApp(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer cleanup()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewApp_FailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig(t, map[string]any{"CACHE_DRIVER": "redis", "REDIS_ADDR": "127.0.0.1:1"})
	_, cleanup, err := NewApp(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	assert.Error(t, err)
	cleanup()
}
