package formatting

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/Freeeeeet/booking_bot/internal/model"
)

// FormatWhen дата и время визита. Запись без времени помечается отдельно.
func FormatWhen(date, clock string) string {
	if clock == "" {
		return FormatDateWithWeekday(date) + ", время уточняется"
	}
	return FormatDateWithWeekday(date) + " в " + clock
}

// FormatReservation карточка записи в HTML.
// masterName пустой, если запись не привязана к мастеру.
func FormatReservation(r *model.Reservation, masterName string) string {
	status := GetStatusDisplay(r.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>Запись #%d</b> · %s\n\n", status.Emoji, r.ID, status.Text)
	fmt.Fprintf(&sb, "💇 %s\n", html.EscapeString(r.ServiceName))
	fmt.Fprintf(&sb, "📅 %s\n", FormatWhen(r.Date, r.TimeString()))
	if masterName != "" {
		fmt.Fprintf(&sb, "👤 Мастер: %s\n", html.EscapeString(masterName))
	}
	fmt.Fprintf(&sb, "💰 %s\n", FormatPriceShort(r.Price))
	if r.ClientName != "" {
		fmt.Fprintf(&sb, "🙋 %s", html.EscapeString(r.ClientName))
		if r.Phone != "" {
			fmt.Fprintf(&sb, ", %s", html.EscapeString(r.Phone))
		}
		sb.WriteString("\n")
	}
	if r.Comment != "" {
		fmt.Fprintf(&sb, "💬 %s\n", html.EscapeString(r.Comment))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatReservationLine одна строка для списков
func FormatReservationLine(r *model.Reservation) string {
	when := FormatDate(r.Date)
	if t := r.TimeString(); t != "" {
		when += " " + t
	}
	line := fmt.Sprintf("%s #%d · %s · %s", GetStatusDisplay(r.Status).Emoji, r.ID, when, html.EscapeString(r.ServiceName))
	if r.ClientName != "" {
		line += " · " + html.EscapeString(r.ClientName)
	}
	return line
}

// FormatStats сводка за период в HTML
func FormatStats(title string, s *model.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s</b>\n\n", html.EscapeString(title))
	fmt.Fprintf(&sb, "Записей: %d\n", s.Total)
	fmt.Fprintf(&sb, "Отменено: %d\n", s.Cancelled)
	fmt.Fprintf(&sb, "Выручка: %s\n", FormatPriceShort(s.Revenue))
	fmt.Fprintf(&sb, "  уже оказано: %s\n", FormatPriceShort(s.DueRevenue))
	fmt.Fprintf(&sb, "  запланировано: %s\n", FormatPriceShort(s.PlannedRevenue))
	fmt.Fprintf(&sb, "Новых %s: %d\n", PluralizeClients(s.NewUsers), s.NewUsers)

	if len(s.TopServices) > 0 {
		sb.WriteString("\n<b>Популярные услуги</b>\n")
		for i, svc := range s.TopServices {
			fmt.Fprintf(&sb, "%d. %s: %d %s\n", i+1, html.EscapeString(svc.ServiceName), svc.Count, PluralizeBookings(svc.Count))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

var eventTitles = map[events.Type]string{
	events.TypeCreated:     "🆕 Новая запись",
	events.TypeCancelled:   "❌ Запись отменена",
	events.TypeRescheduled: "🔁 Запись перенесена",
	events.TypeCompleted:   "✔️ Визит завершён",
}

// FormatEvent уведомление администратору о событии записи
func FormatEvent(ev events.Event) string {
	title, ok := eventTitles[ev.Type]
	if !ok {
		title = "ℹ️ " + string(ev.Type)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s #%d</b>\n", title, ev.ReservationID)
	fmt.Fprintf(&sb, "💇 %s\n", html.EscapeString(ev.ServiceName))
	fmt.Fprintf(&sb, "📅 %s\n", FormatWhen(ev.Date, ev.Time))
	if ev.ClientName != "" {
		fmt.Fprintf(&sb, "🙋 %s", html.EscapeString(ev.ClientName))
		if ev.Phone != "" {
			fmt.Fprintf(&sb, ", %s", html.EscapeString(ev.Phone))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "💰 %s", FormatPriceShort(ev.Price))
	return sb.String()
}
