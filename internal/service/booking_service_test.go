package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingService_CancelFreesSlotScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.booking.Create(ctx, request(1, "2026-01-10", "14:00", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	_, err = f.booking.Create(ctx, request(2, "2026-01-10", "14:00", nil))
	assert.ErrorIs(t, err, ErrSlotTaken)

	require.NoError(t, f.booking.Cancel(ctx, 1))

	second, err := f.booking.Create(ctx, request(2, "2026-01-10", "14:00", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestBookingService_NoDoubleBookingUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		other     []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(owner int64) {
			defer wg.Done()
			_, err := f.booking.Create(ctx, request(owner, "2026-01-10", "14:00", ptr(masterA)))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSlotTaken):
				conflicts++
			default:
				other = append(other, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	list, err := f.reports.ListInRange(ctx, RangeFilter{From: "2026-01-10", To: "2026-01-10"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBookingService_DifferentMastersSameTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.create(t, 1, "2026-01-12", "10:00", ptr(masterA))
	f.create(t, 2, "2026-01-12", "10:00", ptr(masterB))

	_, err := f.booking.Create(ctx, request(3, "2026-01-12", "10:00", ptr(masterA)))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookingService_GlobalCheckWithoutMaster(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.create(t, 1, "2026-01-12", "10:00", ptr(masterA))

	_, err := f.booking.Create(ctx, request(2, "2026-01-12", "10:00", nil))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookingService_MasterCheckIgnoresUnboundBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.create(t, 1, "2026-01-12", "10:00", nil)

	_, err := f.booking.Create(ctx, request(2, "2026-01-12", "10:00", nil))
	assert.ErrorIs(t, err, ErrSlotTaken)

	bound, err := f.booking.Create(ctx, request(3, "2026-01-12", "10:00", ptr(masterA)))
	require.NoError(t, err)
	assert.Equal(t, masterA, *bound.MasterID)
}

func TestBookingService_HourOnlyTimeIsNormalized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.booking.Create(ctx, request(1, "2026-01-10", "9", nil))
	require.NoError(t, err)
	assert.Equal(t, "09:00", res.TimeString())

	_, err = f.booking.Create(ctx, request(2, "2026-01-10", "09:00", nil))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookingService_PaddedDateIsNormalized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.create(t, 1, "2026-01-10", "14:00", nil)

	_, err := f.booking.Create(ctx, request(2, " 2026-01-10", "14:00", nil))
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = f.booking.Create(ctx, request(3, "2026-01-10\n", "14:00", nil))
	assert.ErrorIs(t, err, ErrSlotTaken)

	other, err := f.booking.Create(ctx, request(4, "2026-01-11\n", "14:00", nil))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-11", other.Date)

	_, err = f.booking.Reschedule(ctx, other.ID, " 2026-01-10 ", "14:00")
	assert.ErrorIs(t, err, ErrSlotTaken)

	moved, err := f.booking.Reschedule(ctx, other.ID, "2026-01-10\t", "15:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10", moved.Date)

	list, err := f.reports.ListInRange(ctx, RangeFilter{From: "2026-01-10", To: "2026-01-10"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, other.ID, list[1].ID)
}

func TestBookingService_UndatedDoesNotOccupySlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.booking.Create(ctx, request(1, "2026-01-10", "", nil))
	require.NoError(t, err)
	assert.Nil(t, a.Time)

	_, err = f.booking.Create(ctx, request(2, "2026-01-10", "", nil))
	require.NoError(t, err)
}

func TestBookingService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := request(1, "2026-01-10", "14:00", nil)
	req.ServiceID = ""
	_, err := f.booking.Create(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.booking.Create(ctx, request(1, "2026-01-10", "25:00", nil))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = f.booking.Create(ctx, request(1, "10.01.2026", "14:00", nil))
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestBookingService_CreateUpsertsProfileAndPublishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := request(77, "2026-01-10", "14:00", nil)
	req.Username = "ira"
	req.FirstName = "Ира"
	_, err := f.booking.Create(ctx, req)
	require.NoError(t, err)

	user, err := f.users.GetByTelegramID(ctx, 77)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ira", user.Username)
	assert.Equal(t, "+79990000000", user.Phone)

	assert.Equal(t, []events.Type{events.TypeCreated}, f.events.types())
}

func TestBookingService_RescheduleConflictLeavesRowUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.create(t, 1, "2026-01-10", "10:00", nil)
	f.create(t, 2, "2026-01-10", "11:00", nil)

	before, err := f.reports.GetByID(ctx, id)
	require.NoError(t, err)

	_, err = f.booking.Reschedule(ctx, id, "2026-01-10", "11:00")
	assert.ErrorIs(t, err, ErrSlotTaken)

	after, err := f.reports.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Date, after.Date)
	assert.Equal(t, before.TimeString(), after.TimeString())
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestBookingService_RescheduleMovesAndFreesOldSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.create(t, 1, "2026-01-10", "10:00", ptr(masterA))

	moved, err := f.booking.Reschedule(ctx, id, "2026-01-11", "12")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-11", moved.Date)
	assert.Equal(t, "12:00", moved.TimeString())

	free, err := f.checker.IsFree(ctx, SlotQuery{Date: "2026-01-10", Time: "10:00", MasterID: ptr(masterA)})
	require.NoError(t, err)
	assert.True(t, free)

	free, err = f.checker.IsFree(ctx, SlotQuery{Date: "2026-01-11", Time: "12:00", MasterID: ptr(masterA)})
	require.NoError(t, err)
	assert.False(t, free)

	assert.Equal(t, []events.Type{events.TypeCreated, events.TypeRescheduled}, f.events.types())
}

func TestBookingService_RescheduleToOwnSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.create(t, 1, "2026-01-10", "10:00", nil)

	res, err := f.booking.Reschedule(ctx, id, "2026-01-10", "10:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00", res.TimeString())
}

func TestBookingService_RescheduleErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.booking.Reschedule(ctx, 404, "2026-01-10", "10:00")
	assert.ErrorIs(t, err, ErrNotFound)

	id := f.create(t, 1, "2026-01-10", "10:00", nil)
	require.NoError(t, f.booking.Cancel(ctx, id))

	_, err = f.booking.Reschedule(ctx, id, "2026-01-10", "12:00")
	assert.ErrorIs(t, err, ErrNotActive)

	_, err = f.booking.Reschedule(ctx, id, "2026-01-10", "noon")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestBookingService_CancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.create(t, 1, "2026-01-10", "10:00", nil)
	require.NoError(t, f.booking.Cancel(ctx, id))

	first, err := f.reports.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusCancelled, first.Status)

	f.now = f.now.Add(time.Hour)
	require.NoError(t, f.booking.Cancel(ctx, id))

	second, err := f.reports.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusCancelled, second.Status)
	assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt))

	assert.Equal(t, []events.Type{events.TypeCreated, events.TypeCancelled}, f.events.types())
}

func TestBookingService_CancelErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.booking.Cancel(ctx, 404), ErrNotFound)

	id := f.create(t, 1, "2026-01-08", "10:00", nil)
	require.NoError(t, f.booking.Complete(ctx, id))
	assert.ErrorIs(t, f.booking.Cancel(ctx, id), ErrNotActive)
}

func TestBookingService_UpdateServiceKeepsSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.create(t, 1, "2026-01-10", "10:00", nil)

	require.NoError(t, f.booking.UpdateService(ctx, id, "color", "Окрашивание", 300000))

	res, err := f.reports.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "color", res.ServiceID)
	assert.Equal(t, 300000, res.Price)
	assert.Equal(t, "2026-01-10", res.Date)
	assert.Equal(t, "10:00", res.TimeString())

	assert.ErrorIs(t, f.booking.UpdateService(ctx, 404, "color", "Окрашивание", 1), ErrNotFound)
	assert.ErrorIs(t, f.booking.UpdateService(ctx, id, "", "Окрашивание", 1), ErrValidation)
}

func TestBookingService_Complete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.create(t, 1, "2026-01-08", "10:00", nil)
	require.NoError(t, f.booking.Complete(ctx, id))
	require.NoError(t, f.booking.Complete(ctx, id))

	res, err := f.reports.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusCompleted, res.Status)

	cancelled := f.create(t, 1, "2026-01-08", "11:00", nil)
	require.NoError(t, f.booking.Cancel(ctx, cancelled))
	assert.ErrorIs(t, f.booking.Complete(ctx, cancelled), ErrNotActive)
}

func TestBookingService_CompletePast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	past := f.create(t, 1, "2026-01-08", "10:00", nil)
	earlierToday := f.create(t, 1, "2026-01-09", "11:00", nil)
	laterToday := f.create(t, 1, "2026-01-09", "15:00", nil)

	n, err := f.booking.CompletePast(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for id, want := range map[int64]model.ReservationStatus{
		past:         model.ReservationStatusCompleted,
		earlierToday: model.ReservationStatusCompleted,
		laterToday:   model.ReservationStatusActive,
	} {
		res, err := f.reports.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, res.Status)
	}
}
