package client

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/Freeeeeet/booking_bot/internal/testutil/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingController(t *testing.T) *Controller {
	t.Helper()

	st := settings.Default()
	st.Timezone = "UTC"
	allWeek := map[string]settings.DayHours{}
	for _, d := range []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"} {
		allWeek[d] = settings.DayHours{Start: "10:00", End: "18:00"}
	}
	st.Masters = []settings.Master{{ID: 1, Name: "Анна", ServiceIDs: []string{"haircut"}, Schedule: allWeek}}
	src := service.StaticSettings{S: &st}

	b := dbtest.NewRepository(t)
	reservations := repository.NewReservationRepository(b)
	logger := zap.NewNop()
	users := service.NewUserService(repository.NewUserRepository(b), logger)
	checker := service.NewChecker(reservations)

	return NewController(
		service.NewBookingService(b, reservations, users, checker, events.NopPublisher{}, src, logger),
		service.NewReportService(reservations, users, src, logger),
		service.NewAvailabilityService(checker, src),
		users, src, nil, logger,
	)
}

func TestPickTime_RejectsTimeNoLongerOffered(t *testing.T) {
	ctx := context.Background()
	c := newBookingController(t)

	master := int64(1)
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(schedule.DateLayout)
	d := wizard.BookingDraft{ServiceID: "haircut", ServiceName: "Стрижка", MasterID: &master}
	require.NoError(t, d.SetDate(tomorrow))

	require.NoError(t, c.pickTime(ctx, &d, "10:00"))
	assert.Equal(t, "10:00", d.Time)

	// Кто-то занял слот, пока черновик ждал подтверждения
	_, err := c.booking.Create(ctx, service.CreateRequest{
		OwnerID: 2, MasterID: &master, ServiceID: "haircut", ServiceName: "Стрижка",
		Date: tomorrow, Time: "10:00",
	})
	require.NoError(t, err)

	d.Time = ""
	assert.ErrorIs(t, c.pickTime(ctx, &d, "10:00"), service.ErrSlotUnavailable)
	assert.Empty(t, d.Time)

	require.NoError(t, c.pickTime(ctx, &d, "11"))
	assert.Equal(t, "11:00", d.Time)

	// Вне рабочих часов мастера
	assert.ErrorIs(t, c.pickTime(ctx, &d, "19:00"), service.ErrSlotUnavailable)
	assert.Equal(t, "11:00", d.Time)

	past := wizard.BookingDraft{MasterID: &master}
	require.NoError(t, past.SetDate("2020-01-01"))
	assert.ErrorIs(t, c.pickTime(ctx, &past, "10:00"), service.ErrSlotUnavailable)

	assert.ErrorIs(t, c.pickTime(ctx, &d, "noon"), service.ErrInvalidSlot)
}
