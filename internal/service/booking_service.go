package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// CreateRequest данные новой записи. Услуга и контакты фиксируются как есть.
type CreateRequest struct {
	OwnerID     int64  `validate:"required"`
	MasterID    *int64 `validate:"omitempty,min=1"`
	ServiceID   string `validate:"required"`
	ServiceName string `validate:"required"`
	Price       int    `validate:"min=0"`
	Date        string `validate:"required"`
	Time        string // пусто - запись без времени
	ClientName  string `validate:"max=100"`
	Phone       string `validate:"max=32"`
	Comment     string `validate:"max=500"`

	// Профиль Telegram для обновления карточки клиента
	Username  string
	FirstName string
	LastName  string
}

type BookingService struct {
	repo         *base.Repository
	reservations *repository.ReservationRepository
	users        *UserService
	checker      *Checker
	publisher    events.Publisher
	settings     SettingsSource
	logger       *zap.Logger
	now          func() time.Time
}

func NewBookingService(
	repo *base.Repository,
	reservations *repository.ReservationRepository,
	users *UserService,
	checker *Checker,
	publisher events.Publisher,
	settings SettingsSource,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:         repo,
		reservations: reservations,
		users:        users,
		checker:      checker,
		publisher:    publisher,
		settings:     settings,
		logger:       logger,
		now:          time.Now,
	}
}

// Create проверяет слот и создаёт запись в одной транзакции.
// Занятый слот возвращает ErrSlotTaken.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	date, err := schedule.NormalizeDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}

	var clock *string
	if req.Time != "" {
		t, err := schedule.NormalizeTime(req.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
		}
		clock = &t
	}

	now := s.now().UTC()
	res := &model.Reservation{
		OwnerID:     req.OwnerID,
		MasterID:    req.MasterID,
		ServiceID:   req.ServiceID,
		ServiceName: req.ServiceName,
		Price:       req.Price,
		Date:        date,
		Time:        clock,
		ClientName:  req.ClientName,
		Phone:       req.Phone,
		Comment:     req.Comment,
		Status:      model.ReservationStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.InTx(ctx, func(ctx context.Context, tx base.Querier) error {
		// Запись без времени слот не занимает
		if clock != nil {
			free, err := s.checker.IsFreeIn(ctx, tx, SlotQuery{Date: res.Date, Time: *clock, MasterID: res.MasterID})
			if err != nil {
				return err
			}
			if !free {
				return ErrSlotTaken
			}
		}

		if err := s.reservations.Insert(ctx, tx, res); err != nil {
			if base.IsUniqueViolation(err) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.logger.Info("Slot already taken",
				zap.Int64("owner_id", req.OwnerID),
				zap.String("date", date),
				zap.String("time", req.Time),
			)
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("owner_id", res.OwnerID),
		zap.String("service", res.ServiceID),
		zap.String("date", res.Date),
		zap.String("time", res.TimeString()),
	)

	// Профиль клиента обновляем после коммита, его ошибка запись не отменяет
	if s.users != nil {
		if _, err := s.users.Register(ctx, Profile{
			TelegramID: req.OwnerID,
			Username:   req.Username,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Phone:      req.Phone,
		}); err != nil {
			s.logger.Warn("Failed to upsert user profile", zap.Int64("owner_id", req.OwnerID), zap.Error(err))
		}
	}

	s.publish(ctx, events.TypeCreated, res)
	return res, nil
}

// Reschedule переносит активную запись на новый слот.
// При конфликте запись остаётся без изменений.
func (s *BookingService) Reschedule(ctx context.Context, id int64, newDate, newTime string) (*model.Reservation, error) {
	date, clock, err := normalizeSlot(newDate, newTime)
	if err != nil {
		return nil, err
	}

	var res *model.Reservation
	err = s.repo.InTx(ctx, func(ctx context.Context, tx base.Querier) error {
		var err error
		res, err = s.reservations.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrNotFound
		}
		if !res.IsActive() {
			return ErrNotActive
		}

		free, err := s.checker.IsFreeIn(ctx, tx, SlotQuery{Date: date, Time: clock, MasterID: res.MasterID, ExcludeID: id})
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotTaken
		}

		now := s.now().UTC()
		if err := s.reservations.UpdateSlot(ctx, tx, id, date, clock, now); err != nil {
			if base.IsUniqueViolation(err) {
				return ErrSlotTaken
			}
			return err
		}
		res.Date, res.Time, res.UpdatedAt = date, &clock, now
		return nil
	})
	if err != nil {
		if isLedgerError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reschedule reservation: %w", err)
	}

	s.logger.Info("Reservation rescheduled",
		zap.Int64("reservation_id", id),
		zap.String("date", date),
		zap.String("time", clock),
	)

	s.publish(ctx, events.TypeRescheduled, res)
	return res, nil
}

// Cancel отменяет запись и освобождает слот.
// Повторная отмена ничего не меняет и не считается ошибкой.
func (s *BookingService) Cancel(ctx context.Context, id int64) error {
	var (
		res     *model.Reservation
		changed bool
	)

	err := s.repo.InTx(ctx, func(ctx context.Context, tx base.Querier) error {
		var err error
		res, err = s.reservations.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrNotFound
		}

		switch res.Status {
		case model.ReservationStatusCancelled:
			return nil
		case model.ReservationStatusCompleted:
			return ErrNotActive
		}

		now := s.now().UTC()
		n, err := s.reservations.SetStatus(ctx, tx, id, model.ReservationStatusActive, model.ReservationStatusCancelled, now)
		if err != nil {
			return err
		}
		changed = n > 0
		res.Status, res.UpdatedAt = model.ReservationStatusCancelled, now
		return nil
	})
	if err != nil {
		if isLedgerError(err) {
			return err
		}
		return fmt.Errorf("cancel reservation: %w", err)
	}

	if changed {
		s.logger.Info("Reservation cancelled", zap.Int64("reservation_id", id))
		s.publish(ctx, events.TypeCancelled, res)
	}
	return nil
}

// Complete отмечает активную запись как состоявшийся визит
func (s *BookingService) Complete(ctx context.Context, id int64) error {
	var (
		res     *model.Reservation
		changed bool
	)

	err := s.repo.InTx(ctx, func(ctx context.Context, tx base.Querier) error {
		var err error
		res, err = s.reservations.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrNotFound
		}

		switch res.Status {
		case model.ReservationStatusCompleted:
			return nil
		case model.ReservationStatusCancelled:
			return ErrNotActive
		}

		now := s.now().UTC()
		n, err := s.reservations.SetStatus(ctx, tx, id, model.ReservationStatusActive, model.ReservationStatusCompleted, now)
		if err != nil {
			return err
		}
		changed = n > 0
		res.Status, res.UpdatedAt = model.ReservationStatusCompleted, now
		return nil
	})
	if err != nil {
		if isLedgerError(err) {
			return err
		}
		return fmt.Errorf("complete reservation: %w", err)
	}

	if changed {
		s.logger.Info("Reservation completed", zap.Int64("reservation_id", id))
		s.publish(ctx, events.TypeCompleted, res)
	}
	return nil
}

// UpdateService меняет услугу и цену записи. Слот не проверяется и не меняется.
func (s *BookingService) UpdateService(ctx context.Context, id int64, serviceID, serviceName string, price int) error {
	if serviceID == "" || serviceName == "" || price < 0 {
		return ErrValidation
	}

	var n int64
	err := s.repo.InTx(ctx, func(ctx context.Context, tx base.Querier) error {
		var err error
		n, err = s.reservations.UpdateService(ctx, tx, id, serviceID, serviceName, price, s.now().UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("update reservation service: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("Reservation service updated",
		zap.Int64("reservation_id", id),
		zap.String("service", serviceID),
		zap.Int("price", price),
	)
	return nil
}

// CompletePast переводит в completed все активные записи, время которых уже прошло
func (s *BookingService) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	local := now.In(s.settings.Get().Location())
	today := local.Format(schedule.DateLayout)
	clock := schedule.ClockOf(local).String()

	var n int64
	err := s.repo.InTx(ctx, func(ctx context.Context, tx base.Querier) error {
		var err error
		n, err = s.reservations.CompletePast(ctx, tx, today, clock, now.UTC())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("complete past reservations: %w", err)
	}

	if n > 0 {
		s.logger.Info("Past reservations completed", zap.Int64("count", n))
	}
	return n, nil
}

func (s *BookingService) publish(ctx context.Context, t events.Type, res *model.Reservation) {
	ev := events.NewEvent(t, res, s.now().UTC())
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", string(t)),
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}

func isLedgerError(err error) bool {
	return errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotActive) ||
		errors.Is(err, ErrInvalidSlot)
}
