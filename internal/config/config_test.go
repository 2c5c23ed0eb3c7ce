package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CHECK_TIMEOUT", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.CheckTimeout)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidateStoreBackend(t *testing.T) {
	cfg := &Config{JWTSecret: []byte("x"), StoreBackend: StorePostgres}
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.StoreBackend = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown STORE_BACKEND")

	cfg.StoreBackend = StoreMemory
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CHECK_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "CHECK_TIMEOUT")
}
