package admin

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/go-telegram/bot/models"
)

// Callback data админ-бота
const (
	cbComplete   = "adm:done:"   // adm:done:12
	cbCancel     = "adm:cancel:" // adm:cancel:12
	cbStats      = "adm:stats:"  // adm:stats:week
	cbWeek       = "adm:week:"   // adm:week:-1 (смещение в неделях)
	cbOpenDate   = "adm:open:"   // adm:open:2026-01-10
	cbToggleSvc  = "adm:ms:"     // adm:ms:haircut
	cbServicesOK = "adm:ms_done"
	cbMasterSave = "adm:ms_save"
	cbAbort      = "adm:abort"
)

var errBadDate = errors.New("bad date")

var periodTitles = map[service.PeriodKind]string{
	service.PeriodToday: "Сегодня",
	service.PeriodWeek:  "Эта неделя",
	service.PeriodMonth: "Этот месяц",
	service.PeriodAll:   "За всё время",
}

func periodTitle(kind service.PeriodKind, p service.Period) string {
	title := periodTitles[kind]
	if p.From != "" {
		if p.From == p.To {
			title += " (" + formatting.FormatDate(p.From) + ")"
		} else {
			title += fmt.Sprintf(" (%s – %s)", formatting.FormatDate(p.From), formatting.FormatDate(p.To))
		}
	}
	return title
}

func statsKeyboard() *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(
			keyboard.Button("Сегодня", cbStats+string(service.PeriodToday)),
			keyboard.Button("Неделя", cbStats+string(service.PeriodWeek)),
		).
		Row(
			keyboard.Button("Месяц", cbStats+string(service.PeriodMonth)),
			keyboard.Button("Всё время", cbStats+string(service.PeriodAll)),
		).
		Build()
}

// dayView записи на день с кнопками завершения и отмены активных
func dayView(date string, list []*model.Reservation) (string, *models.InlineKeyboardMarkup) {
	header := fmt.Sprintf("📅 <b>%s</b>\n\n", formatting.FormatDateWithWeekday(date))
	if len(list) == 0 {
		return header + "Записей нет.", nil
	}

	var sb strings.Builder
	sb.WriteString(header)
	kb := keyboard.NewBuilder()
	for _, r := range list {
		sb.WriteString(formatting.FormatReservationLine(r))
		if r.Phone != "" {
			sb.WriteString(", " + html.EscapeString(r.Phone))
		}
		sb.WriteString("\n")
		if r.IsActive() {
			id := strconv.FormatInt(r.ID, 10)
			kb.Row(
				keyboard.Button("✔️ Завершить #"+id, cbComplete+id),
				keyboard.Button("❌ Отменить #"+id, cbCancel+id),
			)
		}
	}
	fmt.Fprintf(&sb, "\nВсего: %d %s", len(list), formatting.PluralizeBookings(len(list)))

	markup := kb.Build()
	if len(markup.InlineKeyboard) == 0 {
		return sb.String(), nil
	}
	return sb.String(), markup
}

func weekKeyboard(offset int) *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(
			keyboard.Button("◀️ Предыдущая", cbWeek+strconv.Itoa(offset-1)),
			keyboard.Button("Следующая ▶️", cbWeek+strconv.Itoa(offset+1)),
		).
		Build()
}

func weekCaption(monday time.Time, list []*model.Reservation) string {
	active, cancelled := 0, 0
	for _, r := range list {
		if r.Status == model.ReservationStatusCancelled {
			cancelled++
		} else {
			active++
		}
	}
	sunday := monday.AddDate(0, 0, 6)
	return fmt.Sprintf("🗓 <b>%s – %s</b>\n%d %s, отменено: %d",
		monday.Format("02.01"), sunday.Format("02.01.2006"),
		active, formatting.PluralizeBookings(active), cancelled)
}

func mastersView(st *settings.Settings) string {
	if len(st.Masters) == 0 {
		return "👥 Мастеров пока нет. Добавьте первого кнопкой «➕ Добавить мастера»."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Мастера</b> (%d)\n", len(st.Masters))
	if !st.Features.MastersEnabled {
		sb.WriteString("<i>Выбор мастера клиентами выключен в настройках</i>\n")
	}
	for _, m := range st.Masters {
		fmt.Fprintf(&sb, "\n<b>%d. %s</b>", m.ID, html.EscapeString(m.Name))
		if m.Specialization != "" {
			fmt.Fprintf(&sb, " · %s", html.EscapeString(m.Specialization))
		}
		var names []string
		for _, id := range m.ServiceIDs {
			if svc, ok := st.Service(id); ok {
				names = append(names, svc.Name)
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(&sb, "\n💇 %s", html.EscapeString(strings.Join(names, ", ")))
		}
		if len(m.ClosedDates) > 0 {
			fmt.Fprintf(&sb, "\n🚫 выходные: %d", len(m.ClosedDates))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// servicesView выбор услуг нового мастера
func servicesView(st *settings.Settings, d *wizard.MasterDraft) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder()
	for _, svc := range st.Services {
		mark := "⬜️"
		if d.HasService(svc.ID) {
			mark = "✅"
		}
		kb.Row(keyboard.Button(mark+" "+svc.Name, cbToggleSvc+svc.ID))
	}
	kb.Row(keyboard.Button("Готово ➡️", cbServicesOK), keyboard.CancelButton(cbAbort))
	return fmt.Sprintf("💇 Какие услуги оказывает %s? Отметьте и нажмите «Готово».", html.EscapeString(d.Name)), kb.Build()
}

func masterConfirmView(st *settings.Settings, d *wizard.MasterDraft) (string, *models.InlineKeyboardMarkup) {
	var names []string
	for _, id := range d.ServiceIDs {
		if svc, ok := st.Service(id); ok {
			names = append(names, svc.Name)
		}
	}
	var sb strings.Builder
	sb.WriteString("👤 <b>Новый мастер</b>\n\n")
	fmt.Fprintf(&sb, "Имя: %s\n", html.EscapeString(d.Name))
	if d.Specialization != "" {
		fmt.Fprintf(&sb, "Специализация: %s\n", html.EscapeString(d.Specialization))
	}
	fmt.Fprintf(&sb, "Услуги: %s", html.EscapeString(strings.Join(names, ", ")))

	kb := keyboard.NewBuilder().AddRows(keyboard.ConfirmCancelButtons(cbMasterSave, cbAbort))
	return sb.String(), kb.Build()
}

// closedDatesView закрытые даты салона с кнопками открытия
func closedDatesView(st *settings.Settings, today string) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder()
	var sb strings.Builder
	sb.WriteString("✅ <b>Закрытые даты</b>\n\n")
	count := 0
	for _, cd := range st.ClosedDates {
		if cd.Date < today {
			continue
		}
		count++
		sb.WriteString(formatting.FormatDateWithWeekday(cd.Date))
		if cd.Reason != "" {
			sb.WriteString(" · " + html.EscapeString(cd.Reason))
		}
		sb.WriteString("\n")
		kb.Row(keyboard.Button("Открыть "+formatting.FormatDate(cd.Date), cbOpenDate+cd.Date))
	}
	if count == 0 {
		return "✅ Закрытых дат впереди нет.", nil
	}
	sb.WriteString("\nНажмите на дату, чтобы снова открыть запись.")
	return sb.String(), kb.Build()
}

// parseClosedDate разбирает "2026-01-10 причина" или "10.01.2026 причина"
func parseClosedDate(text string) (string, string, error) {
	text = strings.TrimSpace(text)
	raw, reason, _ := strings.Cut(text, " ")
	reason = strings.TrimSpace(reason)

	for _, layout := range []string{schedule.DateLayout, "02.01.2006", "2.1.2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(schedule.DateLayout), reason, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", errBadDate, raw)
}
