package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestOpen_CreatesDefault(t *testing.T) {
	s, path := openStore(t)

	_, err := os.Stat(path)
	require.NoError(t, err)

	cur := s.Get()
	assert.Equal(t, 60, cur.SlotDuration)
	svc, ok := cur.Service("haircut")
	require.True(t, ok)
	assert.Equal(t, 150000, svc.Price)
}

func TestOpen_RejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{
		"business": {"name": "Студия"},
		"timezone": "Europe/Moscow",
		"slot_duration": 30,
		"horizon_days": 14,
		"hours": {"mon": {"start": "18:00", "end": "10:00"}},
		"services": [{"id": "a", "name": "A", "price": 100, "duration": 30}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := Open(path, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOpen_RejectsUnknownMasterService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{
		"business": {"name": "Студия"},
		"timezone": "Europe/Moscow",
		"slot_duration": 30,
		"horizon_days": 14,
		"services": [{"id": "a", "name": "A", "price": 100, "duration": 30}],
		"masters": [{"id": 1, "name": "Анна", "service_ids": ["b"]}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := Open(path, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStore_AddMasterPersists(t *testing.T) {
	s, path := openStore(t)

	m, err := s.AddMaster(Master{
		Name:       "Анна",
		ServiceIDs: []string{"haircut"},
		Schedule:   map[string]DayHours{"mon": {Start: "10:00", End: "18:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)

	second, err := s.AddMaster(Master{Name: "Ольга", ServiceIDs: []string{"manicure"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	got, ok := reopened.Get().Master(1)
	require.True(t, ok)
	assert.Equal(t, "Анна", got.Name)
	assert.Len(t, reopened.Get().MastersFor("manicure"), 1)
}

func TestStore_AddMasterRejectsUnknownService(t *testing.T) {
	s, _ := openStore(t)

	_, err := s.AddMaster(Master{Name: "Анна", ServiceIDs: []string{"nope"}})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, s.Get().Masters)
}

func TestStore_ClosedDates(t *testing.T) {
	s, _ := openStore(t)
	m, err := s.AddMaster(Master{Name: "Анна", ServiceIDs: []string{"haircut"}})
	require.NoError(t, err)

	require.NoError(t, s.AddClosedDate(&m.ID, "2026-01-12", "отпуск"))
	require.NoError(t, s.AddClosedDate(&m.ID, " 2026-01-12\n", "отпуск"))
	require.NoError(t, s.AddClosedDate(nil, "2026-01-13", "праздник"))

	cur := s.Get()
	got, _ := cur.Master(m.ID)
	assert.Len(t, got.ClosedDates, 1)

	rules := cur.RulesFor(got)
	monday, _ := schedule.ParseDate("2026-01-12")
	tuesday, _ := schedule.ParseDate("2026-01-13")
	_, ok := schedule.WorkingHours(rules, monday)
	assert.False(t, ok)
	_, ok = schedule.WorkingHours(rules, tuesday)
	assert.False(t, ok)

	require.NoError(t, s.RemoveClosedDate(&m.ID, "2026-01-12"))
	got, _ = s.Get().Master(m.ID)
	assert.Empty(t, got.ClosedDates)

	missing := int64(99)
	assert.ErrorIs(t, s.AddClosedDate(&missing, "2026-01-12", ""), ErrMasterNotFound)
	assert.ErrorIs(t, s.AddClosedDate(nil, "12.01.2026", ""), ErrInvalid)
}

func TestStore_SnapshotIsImmutable(t *testing.T) {
	s, _ := openStore(t)
	before := s.Get()

	_, err := s.AddMaster(Master{Name: "Анна"})
	require.NoError(t, err)

	assert.Empty(t, before.Masters)
	assert.Len(t, s.Get().Masters, 1)
}

func TestSettings_BusinessRules(t *testing.T) {
	def := Default()
	rules := def.BusinessRules()

	sunday, _ := schedule.ParseDate("2026-01-11")
	_, ok := schedule.WorkingHours(rules, sunday)
	assert.False(t, ok)

	w, ok := rules.Weekly[time.Monday]
	require.True(t, ok)
	assert.Equal(t, "10:00", w.Start.String())
	assert.Equal(t, time.UTC, (&Settings{Timezone: "Nowhere/City"}).Location())
}
