package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("EXPORT_DAYS", "")
	t.Setenv("ADMIN_IDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 30, cfg.ExportDays)
	assert.True(t, cfg.IsAdmin(42))
}

func TestLoad_AdminIDs(t *testing.T) {
	t.Setenv("ADMIN_IDS", "10, 20,,30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 20, 30}, cfg.AdminIDs)
	assert.True(t, cfg.IsAdmin(20))
	assert.False(t, cfg.IsAdmin(21))
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SESSION_TTL", "")
	t.Setenv("ADMIN_IDS", "abc")
	_, err = Load()
	assert.Error(t, err)
}
