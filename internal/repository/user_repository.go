package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(b *base.Repository) *UserRepository {
	return &UserRepository{Repository: b}
}

// Upsert создаёт профиль или обновляет имя и контакты существующего.
// Пустой телефон не затирает сохранённый.
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = CASE WHEN excluded.phone <> '' THEN excluded.phone ELSE users.phone END
		RETURNING id
	`

	err := r.DB().QueryRowContext(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// GetByTelegramID получает пользователя по Telegram ID. Возвращает nil, nil если его нет.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `
		SELECT id, telegram_id, username, first_name, last_name, phone, created_at
		FROM users
		WHERE telegram_id = $1
	`

	var user model.User
	err := r.Read(ctx, func(ctx context.Context, q base.Querier) error {
		return q.QueryRowContext(ctx, query, telegramID).Scan(
			&user.ID,
			&user.TelegramID,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.Phone,
			&user.CreatedAt,
		)
	})
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return &user, nil
}

// CountCreatedBetween считает профили, созданные в [from, to).
// Нулевое время означает отсутствие границы.
func (r *UserRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var w base.Where
	if !from.IsZero() {
		w.Add("created_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		w.Add("created_at < ?", to.UTC())
	}
	where, args := w.Build(0)

	var count int64
	err := r.Read(ctx, func(ctx context.Context, q base.Querier) error {
		return q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count new users: %w", err)
	}
	return count, nil
}
