package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/billing?sslmode=disable")
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, "30 0 * * *", cfg.Billing.GenerateSchedule)
	assert.Equal(t, "0 1 * * *", cfg.Billing.SweepSchedule)
	assert.True(t, cfg.Billing.SchedulerEnabled)
}

func TestLoadRequiredValues(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_ACCESS_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
