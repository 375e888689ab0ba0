package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/Freeeeeet/booking_bot/internal/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// ErrSchemaFault схема не доведена до нужной версии. Работать с такой базой нельзя.
var ErrSchemaFault = errors.New("schema fault")

// goose хранит диалект и FS глобально
var gooseMu sync.Mutex

// Migrator обёртка над goose
type Migrator struct {
	db      *sql.DB
	dialect string
	fsys    fs.FS
	dir     string
	logger  *zap.Logger
}

// NewMigrator создаёт мигратор для указанного диалекта (sqlite3 или postgres)
func NewMigrator(db *sql.DB, dialect string, logger *zap.Logger) (*Migrator, error) {
	mg := &Migrator{db: db, dialect: dialect, logger: logger}

	switch dialect {
	case DriverSQLite:
		mg.fsys, mg.dir = migrations.SQLite, "sqlite"
	case DriverPostgres:
		mg.fsys, mg.dir = migrations.Postgres, "postgres"
	default:
		return nil, fmt.Errorf("%w: unknown dialect %q", ErrSchemaFault, dialect)
	}

	return mg, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	return mg.MigrateTo(ctx, migrations.Latest)
}

// MigrateTo последовательно применяет миграции до version.
// Повторный вызов для уже достигнутой версии ничего не делает.
func (mg *Migrator) MigrateTo(ctx context.Context, version int64) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := mg.setup(); err != nil {
		return err
	}

	mg.logger.Info("Applying database migrations",
		zap.String("dialect", mg.dialect),
		zap.Int64("target_version", version),
	)

	if err := goose.UpToContext(ctx, mg.db, mg.dir, version); err != nil {
		return fmt.Errorf("%w: apply migrations: %v", ErrSchemaFault, err)
	}

	current, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return fmt.Errorf("%w: get version: %v", ErrSchemaFault, err)
	}
	if current != version {
		return fmt.Errorf("%w: expected version %d, got %d", ErrSchemaFault, version, current)
	}

	mg.logger.Info("Migrations applied successfully", zap.Int64("version", current))
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := mg.setup(); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

func (mg *Migrator) setup() error {
	goose.SetBaseFS(mg.fsys)
	goose.SetLogger(gooseLogger{mg.logger.Sugar()})
	if err := goose.SetDialect(mg.dialect); err != nil {
		return fmt.Errorf("%w: set goose dialect: %v", ErrSchemaFault, err)
	}
	return nil
}

// gooseLogger направляет вывод goose в zap
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.s.Debugf(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.s.Errorf(format, v...) }
