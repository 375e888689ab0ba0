// Package intent сопоставляет подписи кнопок меню и текстовые команды действиям бота.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent действие, которое пользователь выбрал кнопкой или командой
type Intent int

const (
	None Intent = iota

	// Клиентский бот
	Book
	MyBookings
	History
	Contacts
	Abort

	// Админ-бот
	Today
	Week
	Stats
	Export
	ExportLink
	Masters
	AddMaster
	CloseDate
	OpenDate
	Logout

	// Команды с номером записи
	CancelBooking
	Reschedule
	Complete
)

var labels = map[Intent]string{
	Book:       "📝 Записаться",
	MyBookings: "📋 Мои записи",
	History:    "🕘 История",
	Contacts:   "📍 Контакты",
	Abort:      "✖️ Отмена",

	Today:      "📅 Сегодня",
	Week:       "🗓 Неделя",
	Stats:      "📊 Статистика",
	Export:     "📤 Выгрузка",
	ExportLink: "🔗 Ссылка на выгрузку",
	Masters:    "👥 Мастера",
	AddMaster:  "➕ Добавить мастера",
	CloseDate:  "🚫 Закрыть дату",
	OpenDate:   "✅ Открыть дату",
	Logout:     "🚪 Выйти",
}

var byLabel = func() map[string]Intent {
	m := make(map[string]Intent, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}()

// ClientMenu кнопки главного меню клиента, по рядам
var ClientMenu = [][]Intent{
	{Book},
	{MyBookings, History},
	{Contacts},
}

// AdminMenu кнопки главного меню администратора, по рядам
var AdminMenu = [][]Intent{
	{Today, Week},
	{Stats, Masters},
	{Export, ExportLink},
	{AddMaster},
	{CloseDate, OpenDate},
	{Logout},
}

// Label подпись кнопки. Для действий без кнопки пустая строка.
func (i Intent) Label() string {
	return labels[i]
}

// Parse находит действие по подписи кнопки
func Parse(text string) Intent {
	return byLabel[strings.TrimSpace(text)]
}

// Ref команда над конкретной записью: "отменить #12", "/cancel 12"
type Ref struct {
	Intent Intent
	ID     int64
}

var refPattern = regexp.MustCompile(`^/?([\p{L}_]+)\s*#?\s*(\d+)$`)

var refWords = map[string]Intent{
	"cancel":     CancelBooking,
	"отменить":   CancelBooking,
	"отмена":     CancelBooking,
	"reschedule": Reschedule,
	"перенести":  Reschedule,
	"перенос":    Reschedule,
	"complete":   Complete,
	"done":       Complete,
	"завершить":  Complete,
}

// ParseRef разбирает команду с номером записи
func ParseRef(text string) (Ref, bool) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Ref{}, false
	}
	in, ok := refWords[strings.ToLower(m[1])]
	if !ok {
		return Ref{}, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || id <= 0 {
		return Ref{}, false
	}
	return Ref{Intent: in, ID: id}, true
}
