package client

import (
	"testing"

	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callbacks(kb *models.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			out = append(out, btn.CallbackData)
		}
	}
	return out
}

func TestCategoryAndServiceViews(t *testing.T) {
	st := settings.Default()
	f := wizard.FlowFor(&st)
	require.True(t, f.Categories)

	_, kb := categoryView(&st, f)
	assert.Equal(t, []string{"bk:cat:0", "bk:cat:1", "bk:abort"}, callbacks(kb))

	d := wizard.BookingDraft{}
	d.SetCategory("Ногти")
	_, kb = serviceView(&st, &d, f)
	assert.Equal(t, []string{"bk:svc:manicure", "bk:back", "bk:abort"}, callbacks(kb))

	_, kb = serviceView(&st, &d, wizard.Flow{})
	assert.Equal(t, []string{"bk:svc:haircut", "bk:svc:manicure", "bk:abort"}, callbacks(kb))
}

func TestMasterView(t *testing.T) {
	masters := []settings.Master{{ID: 2, Name: "Олег", Specialization: "барбер"}}
	_, kb := masterView(masters, wizard.Flow{MastersEnabled: true})
	assert.Equal(t, []string{"bk:mst:0", "bk:mst:2", "bk:back", "bk:abort"}, callbacks(kb))
	assert.Equal(t, "Олег · барбер", kb.InlineKeyboard[1][0].Text)
}

func TestDateAndTimeViews(t *testing.T) {
	f := wizard.Flow{}
	text, kb := dateView(nil, 0, f)
	assert.Contains(t, text, "Свободных дат нет")
	assert.Equal(t, []string{"bk:back", "bk:abort"}, callbacks(kb))

	_, kb = dateView([]string{"2026-01-10", "2026-01-12"}, 0, f)
	assert.Equal(t, []string{"bk:date:2026-01-10", "bk:date:2026-01-12", "bk:back", "bk:abort"}, callbacks(kb))

	text, kb = timeView("2026-01-10", []string{"10:00", "11:00"}, f)
	assert.Contains(t, text, "10.01.2026")
	assert.Equal(t, []string{"bk:time:10:00", "bk:time:11:00", "bk:back", "bk:abort"}, callbacks(kb))
}

func TestConfirmView(t *testing.T) {
	d := wizard.BookingDraft{ServiceName: "Стрижка", Price: 150000, Date: "2026-01-12", Time: "14:00", ClientName: "Анна", Comment: "<3"}
	text, kb := confirmView(&d, wizard.Flow{})
	assert.Contains(t, text, "Проверьте запись")
	assert.Contains(t, text, "12.01.2026, понедельник в 14:00")
	assert.Contains(t, text, "&lt;3")
	assert.Equal(t, []string{"bk:ok", "bk:abort", "bk:back"}, callbacks(kb))

	d.RescheduleID = 9
	text, _ = confirmView(&d, wizard.Flow{Reschedule: true})
	assert.Contains(t, text, "Перенос записи #9")
	assert.NotContains(t, text, "Анна")
}

func TestBookingsView(t *testing.T) {
	text, kb := bookingsView(nil)
	assert.Contains(t, text, "нет предстоящих")
	assert.Nil(t, kb)

	clock := "10:00"
	list := []*model.Reservation{{ID: 4, Date: "2026-01-12", Time: &clock, ServiceName: "Стрижка", Status: model.ReservationStatusActive}}
	text, kb = bookingsView(list)
	assert.Contains(t, text, "#4 · 12.01.2026 10:00 · Стрижка")
	assert.Equal(t, []string{"res:move:4", "res:cancel:4"}, callbacks(kb))
}

func TestHistoryView_Truncates(t *testing.T) {
	var list []*model.Reservation
	for i := 1; i <= historyLimit+3; i++ {
		list = append(list, &model.Reservation{ID: int64(i), Date: "2026-01-12", ServiceName: "Стрижка", Status: model.ReservationStatusCompleted})
	}
	assert.Contains(t, historyView(list), "… и ещё 3")
	assert.Contains(t, historyView(nil), "пуста")
}

func TestContactsView(t *testing.T) {
	st := settings.Default()
	st.Business.Address = "ул. Ленина, 1"
	text := contactsView(&st)
	assert.Contains(t, text, "ул. Ленина, 1")
	assert.Contains(t, text, "Пн: 10:00–20:00")
	assert.Contains(t, text, "Вс: выходной")
}

func TestSkippable(t *testing.T) {
	st := settings.Default()
	st.Masters = []settings.Master{{ID: 1, Name: "Анна", ServiceIDs: []string{"haircut"}}}

	d := wizard.BookingDraft{ServiceID: "manicure"}
	assert.True(t, skippable(&st, wizard.StepMaster, &d))
	d.ServiceID = "haircut"
	assert.False(t, skippable(&st, wizard.StepMaster, &d))
	assert.False(t, skippable(&st, wizard.StepDate, &d))
}
