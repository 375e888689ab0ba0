package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/testutil/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func insert(t *testing.T, repo *repository.ReservationRepository, r model.Reservation) *model.Reservation {
	t.Helper()
	if r.Status == "" {
		r.Status = model.ReservationStatusActive
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	r.UpdatedAt = r.CreatedAt
	require.NoError(t, repo.Insert(context.Background(), repo.DB(), &r))
	return &r
}

func TestReservationRepository_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReservationRepository(dbtest.NewRepository(t))

	created := insert(t, repo, model.Reservation{
		OwnerID: 7, MasterID: ptr(int64(3)), ServiceID: "cut", ServiceName: "Стрижка",
		Price: 150000, Date: "2026-01-10", Time: ptr("14:00"), ClientName: "Ира", Phone: "+79990000000",
	})
	assert.Equal(t, int64(1), created.ID)

	got, err := repo.GetByID(ctx, repo.DB(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "14:00", got.TimeString())
	require.NotNil(t, got.MasterID)
	assert.Equal(t, int64(3), *got.MasterID)
	assert.Equal(t, model.ReservationStatusActive, got.Status)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))

	missing, err := repo.GetByID(ctx, repo.DB(), 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReservationRepository_UniqueIndexBackstop(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReservationRepository(dbtest.NewRepository(t))

	insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "cut", ServiceName: "Стрижка", Date: "2026-01-10", Time: ptr("14:00")})

	dup := model.Reservation{
		OwnerID: 2, ServiceID: "cut", ServiceName: "Стрижка", Date: "2026-01-10", Time: ptr("14:00"),
		Status: model.ReservationStatusActive, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	err := repo.Insert(ctx, repo.DB(), &dup)
	require.Error(t, err)
	assert.True(t, base.IsUniqueViolation(err))

	// Без времени слот не занимается
	insert(t, repo, model.Reservation{OwnerID: 3, ServiceID: "cut", ServiceName: "Стрижка", Date: "2026-01-10"})
	insert(t, repo, model.Reservation{OwnerID: 4, ServiceID: "cut", ServiceName: "Стрижка", Date: "2026-01-10"})
}

func TestReservationRepository_CountActiveAt(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReservationRepository(dbtest.NewRepository(t))

	a := insert(t, repo, model.Reservation{OwnerID: 1, MasterID: ptr(int64(1)), ServiceID: "cut", ServiceName: "Стрижка", Date: "2026-01-10", Time: ptr("10:00")})

	count := func(f repository.SlotFilter) int64 {
		n, err := repo.CountActiveAt(ctx, repo.DB(), f)
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, int64(1), count(repository.SlotFilter{Date: "2026-01-10", Time: "10:00"}))
	assert.Equal(t, int64(1), count(repository.SlotFilter{Date: "2026-01-10", Time: "10:00", MasterID: ptr(int64(1))}))
	assert.Equal(t, int64(0), count(repository.SlotFilter{Date: "2026-01-10", Time: "10:00", MasterID: ptr(int64(2))}))
	assert.Equal(t, int64(0), count(repository.SlotFilter{Date: "2026-01-10", Time: "10:00", ExcludeID: a.ID}))
}

func TestReservationRepository_ListInRangeOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReservationRepository(dbtest.NewRepository(t))

	insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-12", Time: ptr("09:00")})
	insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-10", Time: ptr("15:00")})
	insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-10", Time: ptr("11:00")})
	insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-11", Time: ptr("11:00"), Status: model.ReservationStatusCancelled})
	insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-02-01", Time: ptr("11:00")})

	got, err := repo.ListInRange(ctx, repo.DB(), repository.RangeFilter{From: "2026-01-10", To: "2026-01-31"})
	require.NoError(t, err)

	var slots []string
	for _, r := range got {
		slots = append(slots, r.Date+" "+r.TimeString())
	}
	assert.Equal(t, []string{"2026-01-10 11:00", "2026-01-10 15:00", "2026-01-12 09:00"}, slots)

	all, err := repo.ListInRange(ctx, repo.DB(), repository.RangeFilter{From: "2026-01-10", To: "2026-01-31", IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestReservationRepository_CompletePast(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReservationRepository(dbtest.NewRepository(t))

	past := insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-09", Time: ptr("18:00")})
	earlier := insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-10", Time: ptr("09:00")})
	later := insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-10", Time: ptr("15:00")})
	cancelled := insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-08", Time: ptr("10:00"), Status: model.ReservationStatusCancelled})
	untimed := insert(t, repo, model.Reservation{OwnerID: 1, ServiceID: "a", ServiceName: "A", Date: "2026-01-08"})

	n, err := repo.CompletePast(ctx, repo.DB(), "2026-01-10", "12:00", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for id, want := range map[int64]model.ReservationStatus{
		past.ID:      model.ReservationStatusCompleted,
		earlier.ID:   model.ReservationStatusCompleted,
		later.ID:     model.ReservationStatusActive,
		cancelled.ID: model.ReservationStatusCancelled,
		untimed.ID:   model.ReservationStatusActive,
	} {
		got, err := repo.GetByID(ctx, repo.DB(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "reservation %d", id)
	}
}
