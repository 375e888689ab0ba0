package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"go.uber.org/zap"
)

// RangeFilter выборка записей по диапазону дат
type RangeFilter = repository.RangeFilter

// PeriodKind вид отчётного периода
type PeriodKind string

const (
	PeriodToday PeriodKind = "today"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
	PeriodAll   PeriodKind = "all"
)

// Period отчётный период. From/To - даты визитов включительно,
// Start/End - границы времени регистрации клиентов [Start, End).
// Пустые значения означают отсутствие границы.
type Period struct {
	Kind  PeriodKind
	From  string
	To    string
	Start time.Time
	End   time.Time
	Today string
}

// PeriodFor строит период относительно now в часовом поясе loc.
// Неделя начинается с понедельника, месяц календарный.
func PeriodFor(kind PeriodKind, now time.Time, loc *time.Location) Period {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	p := Period{Kind: kind, Today: midnight.Format(schedule.DateLayout)}

	var start, end time.Time
	switch kind {
	case PeriodToday:
		start, end = midnight, midnight.AddDate(0, 0, 1)
	case PeriodWeek:
		offset := (int(midnight.Weekday()) + 6) % 7
		start = midnight.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	default:
		p.Kind = PeriodAll
		return p
	}

	p.Start, p.End = start, end
	p.From = start.Format(schedule.DateLayout)
	p.To = end.AddDate(0, 0, -1).Format(schedule.DateLayout)
	return p
}

const topServicesLimit = 5

// ExportHeader заголовок CSV-выгрузки
var ExportHeader = []string{
	"id", "owner_id", "service_id", "service_name", "price", "client_name",
	"phone", "comment", "date", "time", "status", "created_at",
}

// ReportService чтение записей, статистика и выгрузка
type ReportService struct {
	reservations *repository.ReservationRepository
	users        *UserService
	settings     SettingsSource
	logger       *zap.Logger
	now          func() time.Time
}

func NewReportService(
	reservations *repository.ReservationRepository,
	users *UserService,
	settings SettingsSource,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		reservations: reservations,
		users:        users,
		settings:     settings,
		logger:       logger,
		now:          time.Now,
	}
}

// GetByID возвращает запись или ErrNotFound
func (s *ReportService) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	var res *model.Reservation
	err := s.reservations.Read(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		res, err = s.reservations.GetByID(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if res == nil {
		return nil, ErrNotFound
	}
	return res, nil
}

// GetOwned возвращает запись клиента. Чужая запись неотличима от отсутствующей.
func (s *ReportService) GetOwned(ctx context.Context, id, ownerID int64) (*model.Reservation, error) {
	res, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return res, nil
}

// ListForOwner записи клиента. activeOnly - только предстоящие активные,
// ближайшие первыми; иначе вся история, последние созданные первыми.
func (s *ReportService) ListForOwner(ctx context.Context, ownerID int64, activeOnly bool) ([]*model.Reservation, error) {
	var out []*model.Reservation
	err := s.reservations.Read(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		if activeOnly {
			out, err = s.reservations.ListUpcomingByOwner(ctx, q, ownerID, s.today())
		} else {
			out, err = s.reservations.ListByOwner(ctx, q, ownerID)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list owner reservations: %w", err)
	}
	return out, nil
}

// ListInRange записи в диапазоне дат по порядку визитов
func (s *ReportService) ListInRange(ctx context.Context, f RangeFilter) ([]*model.Reservation, error) {
	var out []*model.Reservation
	err := s.reservations.Read(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		out, err = s.reservations.ListInRange(ctx, q, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations in range: %w", err)
	}
	return out, nil
}

// Aggregate статистика за период. Отменённые записи не входят ни в число, ни в выручку.
func (s *ReportService) Aggregate(ctx context.Context, p Period) (*model.Stats, error) {
	today := p.Today
	if today == "" {
		today = s.today()
	}

	var (
		totals repository.PeriodTotals
		top    []model.ServiceCount
	)
	err := s.reservations.Read(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		if totals, err = s.reservations.Totals(ctx, q, p.From, p.To, today); err != nil {
			return err
		}
		top, err = s.reservations.TopServices(ctx, q, p.From, p.To, topServicesLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	newUsers, err := s.users.CountNew(ctx, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	return &model.Stats{
		Total:          totals.Total,
		Cancelled:      totals.Cancelled,
		Revenue:        totals.DueRevenue + totals.PlannedRevenue,
		DueRevenue:     totals.DueRevenue,
		PlannedRevenue: totals.PlannedRevenue,
		TopServices:    top,
		NewUsers:       newUsers,
	}, nil
}

// Export пишет CSV со всеми записями, созданными за последние lookback.
// Разделитель ";", в начале BOM, чтобы табличные редакторы распознали UTF-8.
func (s *ReportService) Export(ctx context.Context, w io.Writer, lookback time.Duration) (int, error) {
	since := s.now().UTC().Add(-lookback)

	var rows []*model.Reservation
	err := s.reservations.Read(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		rows, err = s.reservations.ListCreatedSince(ctx, q, since)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("export reservations: %w", err)
	}

	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return 0, fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	loc := s.settings.Get().Location()
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.OwnerID, 10),
			r.ServiceID,
			r.ServiceName,
			fmt.Sprintf("%.2f", float64(r.Price)/100),
			r.ClientName,
			r.Phone,
			r.Comment,
			r.Date,
			r.TimeString(),
			string(r.Status),
			r.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}

	s.logger.Info("Reservations exported", zap.Int("rows", len(rows)), zap.Duration("lookback", lookback))
	return len(rows), nil
}

func (s *ReportService) today() string {
	return s.now().In(s.settings.Get().Location()).Format(schedule.DateLayout)
}
