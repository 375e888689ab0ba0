package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(seq func(func(Clock) bool)) []string {
	var out []string
	for c := range seq {
		out = append(out, c.String())
	}
	return out
}

func TestWorkingHours_ClosedDateWins(t *testing.T) {
	d, err := ParseDate("2026-01-10") // суббота
	require.NoError(t, err)

	rules := Rules{
		Weekly: WeeklySchedule{
			time.Saturday: {Start: MustClock("10:00"), End: MustClock("18:00")},
		},
	}

	w, ok := WorkingHours(rules, d)
	require.True(t, ok)
	assert.Equal(t, "10:00", w.Start.String())
	assert.Equal(t, "18:00", w.End.String())

	rules.Closed = []ClosedDate{{Date: "2026-01-10", Reason: "санитарный день"}}
	_, ok = WorkingHours(rules, d)
	assert.False(t, ok)

	reason, closed := ClosedReason(rules, d)
	assert.True(t, closed)
	assert.Equal(t, "санитарный день", reason)
}

func TestWorkingHours_DayOff(t *testing.T) {
	d, err := ParseDate("2026-01-11") // воскресенье
	require.NoError(t, err)

	rules := Rules{Weekly: WeeklySchedule{
		time.Monday: {Start: MustClock("10:00"), End: MustClock("18:00")},
	}}

	_, ok := WorkingHours(rules, d)
	assert.False(t, ok)
}

func TestSlots_StepDoesNotDivideHour(t *testing.T) {
	w := Window{Start: MustClock("10:00"), End: MustClock("12:00")}

	got := collect(Slots(w, 45, 45))

	assert.Equal(t, []string{"10:00", "10:45"}, got)
}

func TestSlots_DropsStartsThatDoNotFitService(t *testing.T) {
	w := Window{Start: MustClock("10:00"), End: MustClock("12:00")}

	got := collect(Slots(w, 30, 90))

	assert.Equal(t, []string{"10:00", "10:30"}, got)
}

func TestSlots_DefaultServiceDurationIsStep(t *testing.T) {
	w := Window{Start: MustClock("09:00"), End: MustClock("10:40")}

	got := collect(Slots(w, 20, 0))

	assert.Equal(t, []string{"09:00", "09:20", "09:40", "10:00", "10:20"}, got)
}

func TestSlots_Restartable(t *testing.T) {
	seq := Slots(Window{Start: MustClock("10:00"), End: MustClock("11:00")}, 15, 15)

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Len(t, first, 4)
	assert.Equal(t, first, second)
}

func TestSlots_EarlyStop(t *testing.T) {
	seq := Slots(Window{Start: MustClock("10:00"), End: MustClock("18:00")}, 30, 30)

	var got []Clock
	for c := range seq {
		got = append(got, c)
		if len(got) == 3 {
			break
		}
	}
	assert.Len(t, got, 3)
}

func TestSlots_InvalidStep(t *testing.T) {
	got := slices.Collect(Slots(Window{Start: 0, End: DayEnd}, 0, 30))
	assert.Empty(t, got)
}
