// Package dbtest поднимает временную базу для тестов.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Freeeeeet/booking_bot/internal/app"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewSQLite создаёт файл базы во временной папке и применяет все миграции
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := app.OpenStorage(context.Background(), app.StorageConfig{
		Driver: app.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mg, err := app.NewMigrator(db, app.DriverSQLite, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, mg.Run(context.Background()))

	return db
}

// NewRepository базовый репозиторий поверх NewSQLite
func NewRepository(t *testing.T) *base.Repository {
	t.Helper()
	return base.NewRepository(NewSQLite(t), base.DialectSQLite)
}
