package base

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// Querier общий интерфейс *sql.DB и *sql.Tx.
// Репозитории принимают его, чтобы работать и внутри транзакции, и без неё.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository базовый репозиторий с общими методами
type Repository struct {
	db         *sql.DB
	dialect    string
	maxRetries uint64
	backoff    time.Duration
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(db *sql.DB, dialect string) *Repository {
	return &Repository{
		db:         db,
		dialect:    dialect,
		maxRetries: 3,
		backoff:    25 * time.Millisecond,
	}
}

// DB возвращает соединение с базой
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Dialect возвращает диалект хранилища
func (r *Repository) Dialect() string {
	return r.dialect
}

// Read выполняет чтение, повторяя его при временных сбоях соединения
func (r *Repository) Read(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return retry.Do(ctx, r.policy(), func(ctx context.Context) error {
		err := fn(ctx, r.db)
		if err != nil && IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// InTx выполняет fn в транзакции. Ошибка fn откатывает транзакцию целиком.
// Конфликты сериализации (postgres) и занятая база (sqlite) приводят
// к повтору всей транзакции с начала.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error {
	return retry.Do(ctx, r.policy(), func(ctx context.Context) error {
		err := r.runTx(ctx, fn)
		if err != nil && (IsSerializationFailure(err) || IsTransient(err)) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *Repository) runTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error {
	var opts *sql.TxOptions
	if r.dialect == DialectPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}

	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) policy() retry.Backoff {
	return retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.backoff))
}

// ExecAffected выполняет команду и возвращает количество затронутых строк
func ExecAffected(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
