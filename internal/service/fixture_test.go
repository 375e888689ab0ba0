package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/Freeeeeet/booking_bot/internal/testutil/dbtest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	masterA int64 = 1
	masterB int64 = 2
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	booking  *BookingService
	reports  *ReportService
	avail    *AvailabilityService
	checker  *Checker
	users    *UserService
	events   *recorder
	settings *settings.Settings
	now      time.Time
}

// newFixture поднимает сервисы поверх временной базы.
// Текущее время - пятница 2026-01-09 12:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := settings.Default()
	st.Timezone = "UTC"
	allWeek := map[string]settings.DayHours{}
	for _, d := range []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"} {
		allWeek[d] = settings.DayHours{Start: "10:00", End: "18:00"}
	}
	st.Masters = []settings.Master{
		{ID: masterA, Name: "Анна", ServiceIDs: []string{"haircut"}, Schedule: allWeek},
		{ID: masterB, Name: "Ольга", ServiceIDs: []string{"haircut"}, Schedule: allWeek},
	}
	src := StaticSettings{S: &st}

	b := dbtest.NewRepository(t)
	reservations := repository.NewReservationRepository(b)
	logger := zap.NewNop()

	f := &fixture{
		events:   &recorder{},
		settings: &st,
		now:      time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC),
	}
	f.users = NewUserService(repository.NewUserRepository(b), logger)
	f.checker = NewChecker(reservations)
	f.booking = NewBookingService(b, reservations, f.users, f.checker, f.events, src, logger)
	f.reports = NewReportService(reservations, f.users, src, logger)
	f.avail = NewAvailabilityService(f.checker, src)

	clock := func() time.Time { return f.now }
	f.users.now = clock
	f.booking.now = clock
	f.reports.now = clock
	f.avail.now = clock

	return f
}

func (f *fixture) create(t *testing.T, owner int64, date, clock string, master *int64) int64 {
	t.Helper()
	res, err := f.booking.Create(context.Background(), request(owner, date, clock, master))
	require.NoError(t, err)
	return res.ID
}

func request(owner int64, date, clock string, master *int64) CreateRequest {
	return CreateRequest{
		OwnerID:     owner,
		MasterID:    master,
		ServiceID:   "haircut",
		ServiceName: "Стрижка",
		Price:       150000,
		Date:        date,
		Time:        clock,
		ClientName:  "Клиент",
		Phone:       "+79990000000",
	}
}

func ptr[T any](v T) *T { return &v }
