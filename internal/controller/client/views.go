package client

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/go-telegram/bot/models"
)

// Callback data клиентского бота
const (
	cbCategory   = "bk:cat:"  // bk:cat:0 (индекс категории)
	cbService    = "bk:svc:"  // bk:svc:haircut
	cbMaster     = "bk:mst:"  // bk:mst:2, 0 - любой мастер
	cbDatePage   = "bk:dpg:"  // bk:dpg:1
	cbDate       = "bk:date:" // bk:date:2026-01-10
	cbTime       = "bk:time:" // bk:time:14:00
	cbBack       = "bk:back"
	cbAbort      = "bk:abort"
	cbSkip       = "bk:skip"
	cbConfirm    = "bk:ok"
	cbCancelAsk  = "res:cancel:"    // res:cancel:12
	cbCancelDo   = "res:cancel_ok:" // res:cancel_ok:12
	cbReschedule = "res:move:"      // res:move:12
	cbKeep       = "res:keep"
)

// navRow кнопки "Назад" и "Отмена" для шага мастера записи
func navRow(step wizard.Step, f wizard.Flow) []models.InlineKeyboardButton {
	back := ""
	if wizard.Back(step, f) != wizard.StepNone {
		back = cbBack
	}
	return keyboard.NavRow(back, cbAbort)
}

func categoryView(st *settings.Settings, f wizard.Flow) (string, *models.InlineKeyboardMarkup) {
	var buttons []models.InlineKeyboardButton
	for i, c := range st.Categories() {
		label := c
		if label == "" {
			label = "Прочее"
		}
		buttons = append(buttons, keyboard.Button(label, cbCategory+strconv.Itoa(i)))
	}
	kb := keyboard.NewBuilder().Grid(buttons, 2).Row(navRow(wizard.StepCategory, f)...)
	return "📂 Выберите категорию услуг:", kb.Build()
}

func serviceView(st *settings.Settings, d *wizard.BookingDraft, f wizard.Flow) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder()
	for _, svc := range st.Services {
		if f.Categories && svc.Category != d.Category {
			continue
		}
		label := fmt.Sprintf("%s · %s · %s", svc.Name, formatting.FormatPriceShort(svc.Price), formatting.FormatDuration(svc.Duration))
		kb.Row(keyboard.Button(label, cbService+svc.ID))
	}
	kb.Row(navRow(wizard.StepService, f)...)
	return "💇 Выберите услугу:", kb.Build()
}

func masterView(masters []settings.Master, f wizard.Flow) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder().Row(keyboard.Button("🎲 Любой мастер", cbMaster+"0"))
	for _, m := range masters {
		label := m.Name
		if m.Specialization != "" {
			label += " · " + m.Specialization
		}
		kb.Row(keyboard.Button(label, cbMaster+strconv.FormatInt(m.ID, 10)))
	}
	kb.Row(navRow(wizard.StepMaster, f)...)
	return "👤 Выберите мастера:", kb.Build()
}

func dateView(dates []string, page int, f wizard.Flow) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder()
	if len(dates) == 0 {
		kb.Row(navRow(wizard.StepDate, f)...)
		return "😔 Свободных дат нет. Попробуйте выбрать другую услугу или мастера.", kb.Build()
	}
	kb.AddRows(keyboard.DatePage(dates, page, cbDate, cbDatePage))
	kb.Row(navRow(wizard.StepDate, f)...)
	return "📅 Выберите дату:", kb.Build()
}

func timeView(date string, times []string, f wizard.Flow) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder()
	if len(times) == 0 {
		kb.Row(navRow(wizard.StepTime, f)...)
		return fmt.Sprintf("😔 На %s свободного времени не осталось.", formatting.FormatDateWithWeekday(date)), kb.Build()
	}
	kb.AddRows(keyboard.TimeGrid(times, cbTime))
	kb.Row(navRow(wizard.StepTime, f)...)
	return fmt.Sprintf("🕐 Свободное время на %s:", formatting.FormatDateWithWeekday(date)), kb.Build()
}

// promptView подсказка для шагов с текстовым вводом
func promptView(step wizard.Step, f wizard.Flow) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder()
	var text string
	switch step {
	case wizard.StepName:
		text = "🙋 Как к вам обращаться? Напишите имя."
	case wizard.StepPhone:
		text = "📱 Оставьте номер телефона: отправьте его кнопкой ниже или напишите."
	case wizard.StepComment:
		text = "💬 Комментарий для мастера? Напишите его или нажмите «Пропустить»."
		kb.Row(keyboard.Button("⏭ Пропустить", cbSkip))
	}
	kb.Row(navRow(step, f)...)
	return text, kb.Build()
}

func confirmView(d *wizard.BookingDraft, f wizard.Flow) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	if d.RescheduleID != 0 {
		fmt.Fprintf(&sb, "🔁 <b>Перенос записи #%d</b>\n\n", d.RescheduleID)
		fmt.Fprintf(&sb, "Новое время: %s\n", formatting.FormatWhen(d.Date, d.Time))
	} else {
		sb.WriteString("📝 <b>Проверьте запись</b>\n\n")
		fmt.Fprintf(&sb, "💇 %s · %s\n", html.EscapeString(d.ServiceName), formatting.FormatPriceShort(d.Price))
		if d.MasterName != "" {
			fmt.Fprintf(&sb, "👤 %s\n", html.EscapeString(d.MasterName))
		}
		fmt.Fprintf(&sb, "📅 %s\n", formatting.FormatWhen(d.Date, d.Time))
		fmt.Fprintf(&sb, "🙋 %s\n", html.EscapeString(d.ClientName))
		if d.Phone != "" {
			fmt.Fprintf(&sb, "📱 %s\n", d.Phone)
		}
		if d.Comment != "" {
			fmt.Fprintf(&sb, "💬 %s\n", html.EscapeString(d.Comment))
		}
	}

	kb := keyboard.NewBuilder().
		AddRows(keyboard.ConfirmCancelButtons(cbConfirm, cbAbort)).
		Row(keyboard.BackButton(cbBack))
	return strings.TrimRight(sb.String(), "\n"), kb.Build()
}

// bookingsView список предстоящих записей с кнопками управления
func bookingsView(list []*model.Reservation) (string, *models.InlineKeyboardMarkup) {
	if len(list) == 0 {
		return "📋 У вас нет предстоящих записей.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Ваши записи</b> (%d)\n\n", len(list))
	kb := keyboard.NewBuilder()
	for _, r := range list {
		sb.WriteString(formatting.FormatReservationLine(r))
		sb.WriteString("\n")
		id := strconv.FormatInt(r.ID, 10)
		kb.Row(
			keyboard.Button(fmt.Sprintf("🔁 Перенести #%d", r.ID), cbReschedule+id),
			keyboard.Button(fmt.Sprintf("❌ Отменить #%d", r.ID), cbCancelAsk+id),
		)
	}
	return strings.TrimRight(sb.String(), "\n"), kb.Build()
}

const historyLimit = 20

func historyView(list []*model.Reservation) string {
	if len(list) == 0 {
		return "🕘 История пуста."
	}
	var sb strings.Builder
	sb.WriteString("🕘 <b>История записей</b>\n\n")
	for i, r := range list {
		if i == historyLimit {
			fmt.Fprintf(&sb, "… и ещё %d", len(list)-historyLimit)
			break
		}
		sb.WriteString(formatting.FormatReservationLine(r))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func contactsView(st *settings.Settings) string {
	b := st.Business
	var sb strings.Builder
	fmt.Fprintf(&sb, "📍 <b>%s</b>\n", html.EscapeString(b.Name))
	if b.About != "" {
		fmt.Fprintf(&sb, "\n%s\n", html.EscapeString(b.About))
	}
	if b.Address != "" {
		fmt.Fprintf(&sb, "\n🏠 %s", html.EscapeString(b.Address))
	}
	if b.Phone != "" {
		fmt.Fprintf(&sb, "\n📞 %s", html.EscapeString(b.Phone))
	}

	days := []struct {
		key   string
		label string
	}{
		{"mon", "Пн"}, {"tue", "Вт"}, {"wed", "Ср"}, {"thu", "Чт"}, {"fri", "Пт"}, {"sat", "Сб"}, {"sun", "Вс"},
	}
	sb.WriteString("\n\n🕐 <b>Часы работы</b>\n")
	for _, d := range days {
		if h, ok := st.Hours[d.key]; ok {
			fmt.Fprintf(&sb, "%s: %s–%s\n", d.label, h.Start, h.End)
		} else {
			fmt.Fprintf(&sb, "%s: выходной\n", d.label)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
