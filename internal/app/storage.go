package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// StorageConfig параметры подключения к хранилищу записей
type StorageConfig struct {
	Driver string // sqlite3 | postgres
	DSN    string // для postgres
	Path   string // файл базы для sqlite3
}

// SQLiteDSN строит DSN для файла базы.
// _txlock=immediate берёт блокировку записи в начале транзакции,
// поэтому проверка слота и вставка не разделены чужой записью.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	return "file:" + path + "?" + q.Encode()
}

// OpenStorage открывает *sql.DB для выбранного драйвера и проверяет соединение
func OpenStorage(ctx context.Context, cfg StorageConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("open storage: sqlite path is empty")
		}
		db, err = sql.Open("sqlite3", SQLiteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Один файл, немного соединений: писатель всё равно один
		db.SetMaxOpenConns(4)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("open storage: postgres dsn is empty")
		}
		db, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("open storage: unknown driver %q", cfg.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping storage: %w", err)
	}

	return db, nil
}

// Dialect возвращает имя диалекта для repository/base
func (c StorageConfig) Dialect() string {
	if c.Driver == "" {
		return DriverSQLite
	}
	return c.Driver
}
