package wizard

import (
	"testing"

	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walk(f Flow) []Step {
	var steps []Step
	for s := First(f); s != StepDone; s = Advance(s, f) {
		steps = append(steps, s)
	}
	return steps
}

func TestAdvance_MinimalFlow(t *testing.T) {
	assert.Equal(t,
		[]Step{StepService, StepDate, StepTime, StepName, StepComment, StepConfirm},
		walk(Flow{}))
}

func TestAdvance_FullFlow(t *testing.T) {
	f := Flow{Categories: true, MastersEnabled: true, RequirePhone: true}
	assert.Equal(t,
		[]Step{StepCategory, StepService, StepMaster, StepDate, StepTime, StepName, StepPhone, StepComment, StepConfirm},
		walk(f))
}

func TestAdvance_Reschedule(t *testing.T) {
	f := Flow{Categories: true, MastersEnabled: true, Reschedule: true}
	assert.Equal(t, []Step{StepDate, StepTime, StepConfirm}, walk(f))
	assert.Equal(t, StepDone, Advance(StepConfirm, f))
}

func TestBack(t *testing.T) {
	f := Flow{MastersEnabled: true}
	assert.Equal(t, StepMaster, Back(StepDate, f))
	assert.Equal(t, StepService, Back(StepMaster, f))
	assert.Equal(t, StepNone, Back(StepService, f))
	assert.Equal(t, StepService, Back(StepDate, Flow{}))
}

func TestFlowFor(t *testing.T) {
	st := settings.Default()
	st.Features.MastersEnabled = true
	f := FlowFor(&st)
	assert.False(t, f.MastersEnabled, "masters flag without masters")

	st.Masters = []settings.Master{{ID: 1, Name: "Анна", ServiceIDs: []string{"haircut"}}}
	st.Features.RequirePhone = true
	f = FlowFor(&st)
	assert.True(t, f.MastersEnabled)
	assert.True(t, f.RequirePhone)
}

func TestBookingDraft_Setters(t *testing.T) {
	var d BookingDraft

	d.SetService(settings.Service{ID: "haircut", Name: "Стрижка", Price: 150000, Duration: 60, Category: "Волосы"})
	assert.Equal(t, "Волосы", d.Category)

	require.NoError(t, d.SetDate("2026-01-10"))
	require.NoError(t, d.SetTime("9:30"))
	assert.Equal(t, "09:30", d.Time)

	require.NoError(t, d.SetDate(" 2026-01-10\n"))
	assert.Equal(t, "2026-01-10", d.Date)
	assert.Equal(t, "09:30", d.Time, "same date keeps time")

	require.NoError(t, d.SetDate("2026-01-11"))
	assert.Empty(t, d.Time, "new date resets time")
	assert.Error(t, d.SetDate("11.01.2026"))
	assert.Error(t, d.SetTime("25:00"))

	assert.ErrorIs(t, d.SetName("   "), ErrEmptyName)
	require.NoError(t, d.SetName("  Анна "))
	assert.Equal(t, "Анна", d.ClientName)

	require.NoError(t, d.SetComment("-"))
	assert.Empty(t, d.Comment)

	d.SetCategory("Ногти")
	assert.Empty(t, d.ServiceID)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+7 (999) 123-45-67", "+79991234567", true},
		{"89991234567", "+79991234567", true},
		{"9991234567", "+79991234567", true},
		{"+380501234567", "+380501234567", true},
		{"12345", "", false},
		{"телефон", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookingDraft_MissingAndRequest(t *testing.T) {
	f := Flow{RequirePhone: true}
	d := BookingDraft{}
	assert.Equal(t, StepService, d.Missing(f))

	d.SetService(settings.Service{ID: "haircut", Name: "Стрижка", Price: 150000, Duration: 60})
	require.NoError(t, d.SetDate("2026-01-10"))
	assert.Equal(t, StepTime, d.Missing(f))

	require.NoError(t, d.SetTime("14:00"))
	require.NoError(t, d.SetName("Анна"))
	assert.Equal(t, StepPhone, d.Missing(f))
	assert.Equal(t, StepConfirm, d.Missing(Flow{}))

	require.NoError(t, d.SetPhone("89991234567"))
	assert.Equal(t, StepConfirm, d.Missing(f))

	req := d.Request(42, "anna", "Анна", "")
	assert.Equal(t, int64(42), req.OwnerID)
	assert.Equal(t, "haircut", req.ServiceID)
	assert.Equal(t, 150000, req.Price)
	assert.Equal(t, "14:00", req.Time)
	assert.Equal(t, "+79991234567", req.Phone)
	assert.Nil(t, req.MasterID)
}

func TestBookingDraft_SetMaster(t *testing.T) {
	var d BookingDraft
	d.SetMaster(&settings.Master{ID: 3, Name: "Олег"})
	require.NotNil(t, d.MasterID)
	assert.Equal(t, int64(3), *d.MasterID)

	d.SetMaster(nil)
	assert.Nil(t, d.MasterID)
	assert.Empty(t, d.MasterName)
}

func TestMasterDraft(t *testing.T) {
	assert.Equal(t, MasterStepName, AdvanceMaster(MasterStepNone))
	assert.Equal(t, MasterStepDone, AdvanceMaster(MasterStepConfirm))
	assert.Equal(t, MasterStepDone, AdvanceMaster(MasterStepDone))

	var d MasterDraft
	_, err := d.Build()
	assert.ErrorIs(t, err, ErrEmptyName)

	require.NoError(t, d.SetName("Олег"))
	d.SetSpecialization("-")
	assert.Empty(t, d.Specialization)

	_, err = d.Build()
	assert.ErrorIs(t, err, ErrNoServices)

	d.ToggleService("haircut")
	d.ToggleService("manicure")
	d.ToggleService("haircut")
	assert.False(t, d.HasService("haircut"))
	assert.True(t, d.HasService("manicure"))

	m, err := d.Build()
	require.NoError(t, err)
	assert.Equal(t, "Олег", m.Name)
	assert.Equal(t, []string{"manicure"}, m.ServiceIDs)
	assert.Zero(t, m.ID)
}
