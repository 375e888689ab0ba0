package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
)

const reservationColumns = `id, owner_id, master_id, service_id, service_name, price,
	visit_date, visit_time, client_name, phone, comment, status, created_at, updated_at`

// ReservationRepository работает с таблицей reservations.
// Методы принимают base.Querier, поэтому их можно вызывать внутри транзакции.
type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(b *base.Repository) *ReservationRepository {
	return &ReservationRepository{Repository: b}
}

// SlotFilter задаёт слот для проверки занятости
type SlotFilter struct {
	Date      string
	Time      string
	MasterID  *int64
	ExcludeID int64
}

// RangeFilter выборка записей по диапазону дат
type RangeFilter struct {
	From             string
	To               string
	MasterID         *int64
	IncludeCancelled bool
}

// Insert создаёт запись и заполняет её ID
func (r *ReservationRepository) Insert(ctx context.Context, q base.Querier, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (owner_id, master_id, service_id, service_name, price,
			visit_date, visit_time, client_name, phone, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err := q.QueryRowContext(
		ctx, query,
		res.OwnerID,
		nullInt64(res.MasterID),
		res.ServiceID,
		res.ServiceName,
		res.Price,
		res.Date,
		nullString(res.Time),
		res.ClientName,
		res.Phone,
		res.Comment,
		string(res.Status),
		res.CreatedAt,
		res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	return nil
}

// GetByID получает запись по ID. Возвращает nil, nil если записи нет.
func (r *ReservationRepository) GetByID(ctx context.Context, q base.Querier, id int64) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return res, nil
}

// CountActiveAt считает активные записи в слоте, кроме ExcludeID.
// Без мастера проверка глобальная: учитываются записи к любому мастеру.
func (r *ReservationRepository) CountActiveAt(ctx context.Context, q base.Querier, f SlotFilter) (int64, error) {
	var w base.Where
	w.Add("status = 'active'").
		Add("visit_date = ?", f.Date).
		Add("visit_time = ?", f.Time)
	if f.MasterID != nil {
		w.Add("master_id = ?", *f.MasterID)
	}
	if f.ExcludeID != 0 {
		w.Add("id <> ?", f.ExcludeID)
	}
	where, args := w.Build(0)

	var count int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return count, nil
}

// OccupiedTimes возвращает занятые времена на дату
func (r *ReservationRepository) OccupiedTimes(ctx context.Context, q base.Querier, date string, masterID *int64) (map[string]bool, error) {
	var w base.Where
	w.Add("status = 'active'").
		Add("visit_time IS NOT NULL").
		Add("visit_date = ?", date)
	if masterID != nil {
		w.Add("master_id = ?", *masterID)
	}
	where, args := w.Build(0)

	rows, err := q.QueryContext(ctx, `SELECT visit_time FROM reservations`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query occupied times: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan occupied time: %w", err)
		}
		taken[t] = true
	}
	return taken, rows.Err()
}

// UpdateSlot переносит запись на новые дату и время
func (r *ReservationRepository) UpdateSlot(ctx context.Context, q base.Querier, id int64, date, clock string, at time.Time) error {
	query := `UPDATE reservations SET visit_date = $1, visit_time = $2, updated_at = $3 WHERE id = $4`

	if _, err := q.ExecContext(ctx, query, date, clock, at, id); err != nil {
		return fmt.Errorf("update reservation slot: %w", err)
	}
	return nil
}

// SetStatus меняет статус записи, если текущий статус равен from
func (r *ReservationRepository) SetStatus(ctx context.Context, q base.Querier, id int64, from, to model.ReservationStatus, at time.Time) (int64, error) {
	query := `UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	n, err := base.ExecAffected(ctx, q, query, string(to), at, id, string(from))
	if err != nil {
		return 0, fmt.Errorf("set reservation status: %w", err)
	}
	return n, nil
}

// UpdateService меняет услугу и цену, не трогая слот
func (r *ReservationRepository) UpdateService(ctx context.Context, q base.Querier, id int64, serviceID, serviceName string, price int, at time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET service_id = $1, service_name = $2, price = $3, updated_at = $4
		WHERE id = $5
	`

	n, err := base.ExecAffected(ctx, q, query, serviceID, serviceName, price, at, id)
	if err != nil {
		return 0, fmt.Errorf("update reservation service: %w", err)
	}
	return n, nil
}

// CompletePast переводит прошедшие активные записи в completed.
// Записи без времени не трогает.
func (r *ReservationRepository) CompletePast(ctx context.Context, q base.Querier, today, clock string, at time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'completed', updated_at = $1
		WHERE status = 'active' AND visit_time IS NOT NULL
		  AND (visit_date < $2 OR (visit_date = $2 AND visit_time <= $3))
	`

	n, err := base.ExecAffected(ctx, q, query, at, today, clock)
	if err != nil {
		return 0, fmt.Errorf("complete past reservations: %w", err)
	}
	return n, nil
}

// ListUpcomingByOwner активные записи клиента начиная с today, ближайшие первыми
func (r *ReservationRepository) ListUpcomingByOwner(ctx context.Context, q base.Querier, ownerID int64, today string) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE owner_id = $1 AND status = 'active' AND visit_date >= $2
		ORDER BY visit_date, COALESCE(visit_time, ''), id`

	return r.list(ctx, q, query, ownerID, today)
}

// ListByOwner все записи клиента, последние созданные первыми
func (r *ReservationRepository) ListByOwner(ctx context.Context, q base.Querier, ownerID int64) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`

	return r.list(ctx, q, query, ownerID)
}

// ListInRange записи в диапазоне дат, по дате и времени
func (r *ReservationRepository) ListInRange(ctx context.Context, q base.Querier, f RangeFilter) ([]*model.Reservation, error) {
	var w base.Where
	if f.From != "" {
		w.Add("visit_date >= ?", f.From)
	}
	if f.To != "" {
		w.Add("visit_date <= ?", f.To)
	}
	if f.MasterID != nil {
		w.Add("master_id = ?", *f.MasterID)
	}
	if !f.IncludeCancelled {
		w.Add("status <> 'cancelled'")
	}
	where, args := w.Build(0)

	query := `SELECT ` + reservationColumns + ` FROM reservations` + where +
		` ORDER BY visit_date, COALESCE(visit_time, ''), id`

	return r.list(ctx, q, query, args...)
}

// ListCreatedSince все записи, созданные начиная с since, в любом статусе
func (r *ReservationRepository) ListCreatedSince(ctx context.Context, q base.Querier, since time.Time) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE created_at >= $1
		ORDER BY id`

	return r.list(ctx, q, query, since)
}

// PeriodTotals счётчики и выручка за период
type PeriodTotals struct {
	Total          int64
	Cancelled      int64
	DueRevenue     int64
	PlannedRevenue int64
}

// Totals считает записи и выручку за период дат [from, to].
// Total - число неотменённых записей.
// Пустая граница означает отсутствие ограничения.
// Выручка считается по неотменённым записям: due - дата не позже today, planned - позже.
func (r *ReservationRepository) Totals(ctx context.Context, q base.Querier, from, to, today string) (PeriodTotals, error) {
	var w base.Where
	if from != "" {
		w.Add("visit_date >= ?", from)
	}
	if to != "" {
		w.Add("visit_date <= ?", to)
	}
	where, args := w.Build(2)

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status <> 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status <> 'cancelled' AND visit_date <= $1 THEN price ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status <> 'cancelled' AND visit_date > $2 THEN price ELSE 0 END), 0)
		FROM reservations` + where

	var t PeriodTotals
	err := q.QueryRowContext(ctx, query, append([]any{today, today}, args...)...).
		Scan(&t.Total, &t.Cancelled, &t.DueRevenue, &t.PlannedRevenue)
	if err != nil {
		return PeriodTotals{}, fmt.Errorf("aggregate reservations: %w", err)
	}
	return t, nil
}

// TopServices самые частые услуги среди неотменённых записей периода
func (r *ReservationRepository) TopServices(ctx context.Context, q base.Querier, from, to string, limit int) ([]model.ServiceCount, error) {
	var w base.Where
	w.Add("status <> 'cancelled'")
	if from != "" {
		w.Add("visit_date >= ?", from)
	}
	if to != "" {
		w.Add("visit_date <= ?", to)
	}
	where, args := w.Build(0)

	query := `
		SELECT service_id, MAX(service_name), COUNT(*) AS cnt
		FROM reservations` + where + `
		GROUP BY service_id
		ORDER BY cnt DESC, service_id
		LIMIT ` + fmt.Sprint(limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top services: %w", err)
	}
	defer rows.Close()

	var out []model.ServiceCount
	for rows.Next() {
		var sc model.ServiceCount
		if err := rows.Scan(&sc.ServiceID, &sc.ServiceName, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan top service: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *ReservationRepository) list(ctx context.Context, q base.Querier, query string, args ...any) ([]*model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res      model.Reservation
		masterID sql.NullInt64
		clock    sql.NullString
		status   string
	)

	err := row.Scan(
		&res.ID,
		&res.OwnerID,
		&masterID,
		&res.ServiceID,
		&res.ServiceName,
		&res.Price,
		&res.Date,
		&clock,
		&res.ClientName,
		&res.Phone,
		&res.Comment,
		&status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if masterID.Valid {
		id := masterID.Int64
		res.MasterID = &id
	}
	if clock.Valid {
		t := clock.String
		res.Time = &t
	}
	res.Status = model.ReservationStatus(status)
	return &res, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
