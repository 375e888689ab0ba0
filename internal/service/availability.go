package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
)

// SlotQuery слот для проверки. MasterID == nil означает проверку по всему салону.
type SlotQuery struct {
	Date      string
	Time      string
	MasterID  *int64
	ExcludeID int64
}

// Checker отвечает на вопрос "свободен ли слот". Побочных эффектов нет.
type Checker struct {
	reservations *repository.ReservationRepository
}

func NewChecker(reservations *repository.ReservationRepository) *Checker {
	return &Checker{reservations: reservations}
}

// IsFree проверяет слот вне транзакции
func (c *Checker) IsFree(ctx context.Context, slot SlotQuery) (bool, error) {
	var free bool
	err := c.reservations.Read(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		free, err = c.IsFreeIn(ctx, q, slot)
		return err
	})
	return free, err
}

// IsFreeIn проверяет слот через переданный Querier, обычно открытую транзакцию
func (c *Checker) IsFreeIn(ctx context.Context, q base.Querier, slot SlotQuery) (bool, error) {
	date, clock, err := normalizeSlot(slot.Date, slot.Time)
	if err != nil {
		return false, err
	}

	count, err := c.reservations.CountActiveAt(ctx, q, repository.SlotFilter{
		Date:      date,
		Time:      clock,
		MasterID:  slot.MasterID,
		ExcludeID: slot.ExcludeID,
	})
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return count == 0, nil
}

// OccupiedTimes занятые времена на дату
func (c *Checker) OccupiedTimes(ctx context.Context, date string, masterID *int64) (map[string]bool, error) {
	var taken map[string]bool
	err := c.reservations.Read(ctx, func(ctx context.Context, q base.Querier) error {
		var err error
		taken, err = c.reservations.OccupiedTimes(ctx, q, date, masterID)
		return err
	})
	return taken, err
}

func normalizeSlot(date, clock string) (string, string, error) {
	d, err := schedule.NormalizeDate(date)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	t, err := schedule.NormalizeTime(clock)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	return d, t, nil
}

// AvailableQuery запрос свободных слотов на дату
type AvailableQuery struct {
	Date            string
	MasterID        *int64
	ServiceDuration int // минуты, 0 - длительность слота
}

// AvailabilityService строит список слотов, которые можно предложить клиенту
type AvailabilityService struct {
	checker  *Checker
	settings SettingsSource
	now      func() time.Time
}

func NewAvailabilityService(checker *Checker, settings SettingsSource) *AvailabilityService {
	return &AvailabilityService{
		checker:  checker,
		settings: settings,
		now:      time.Now,
	}
}

// AvailableSlots возвращает свободные начала слотов на дату.
// Учитываются рабочие часы мастера (или салона), прошедшее время и занятые слоты.
// Даты в прошлом и за горизонтом записи дают пустую последовательность.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, q AvailableQuery) (iter.Seq[schedule.Clock], error) {
	st := s.settings.Get()
	loc := st.Location()

	day, err := schedule.ParseDate(q.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	q.Date = day.Format(schedule.DateLayout)

	now := s.now().In(loc)
	today := now.Format(schedule.DateLayout)
	last := now.AddDate(0, 0, st.HorizonDays).Format(schedule.DateLayout)
	if q.Date < today || q.Date > last {
		return emptySlots, nil
	}

	rules := st.BusinessRules()
	if q.MasterID != nil {
		m, ok := st.Master(*q.MasterID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown master %d", ErrInvalidSlot, *q.MasterID)
		}
		rules = st.RulesFor(m)
	}

	window, working := schedule.WorkingHours(rules, day)
	if !working {
		return emptySlots, nil
	}

	taken, err := s.checker.OccupiedTimes(ctx, q.Date, q.MasterID)
	if err != nil {
		return nil, fmt.Errorf("load occupied slots: %w", err)
	}

	cutoff := schedule.Clock(-1)
	if q.Date == today {
		cutoff = schedule.ClockOf(now)
	}

	slots := schedule.Slots(window, st.SlotDuration, q.ServiceDuration)
	return func(yield func(schedule.Clock) bool) {
		for c := range slots {
			if c <= cutoff || taken[c.String()] {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}, nil
}

// Offered проверяет, что время всё ещё входит в AvailableSlots для запроса
func (s *AvailabilityService) Offered(ctx context.Context, q AvailableQuery, clock string) (bool, error) {
	t, err := schedule.NormalizeTime(clock)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	slots, err := s.AvailableSlots(ctx, q)
	if err != nil {
		return false, err
	}
	for c := range slots {
		if c.String() == t {
			return true, nil
		}
	}
	return false, nil
}

// AvailableDates даты в пределах горизонта, на которые есть хотя бы один свободный слот
func (s *AvailabilityService) AvailableDates(ctx context.Context, masterID *int64, serviceDuration int) ([]string, error) {
	st := s.settings.Get()
	now := s.now().In(st.Location())

	var dates []string
	for i := 0; i <= st.HorizonDays; i++ {
		date := now.AddDate(0, 0, i).Format(schedule.DateLayout)
		slots, err := s.AvailableSlots(ctx, AvailableQuery{Date: date, MasterID: masterID, ServiceDuration: serviceDuration})
		if err != nil {
			return nil, err
		}
		for range slots {
			dates = append(dates, date)
			break
		}
	}
	return dates, nil
}

func emptySlots(func(schedule.Clock) bool) {}
