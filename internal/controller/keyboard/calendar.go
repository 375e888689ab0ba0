package keyboard

import (
	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/go-telegram/bot/models"
)

const (
	datesPerPage = 12
	datesPerRow  = 3
	timesPerRow  = 4
)

// DatePage кнопки доступных дат одной страницы.
// Callback кнопки даты: prefix + "2006-01-02", страницы: pagePrefix + номер.
func DatePage(dates []string, page int, prefix, pagePrefix string) [][]models.InlineKeyboardButton {
	total := (len(dates) + datesPerPage - 1) / datesPerPage
	page = max(0, min(page, total-1))

	start := page * datesPerPage
	end := min(start+datesPerPage, len(dates))

	buttons := make([]models.InlineKeyboardButton, 0, end-start)
	for _, date := range dates[start:end] {
		buttons = append(buttons, Button(formatting.FormatDayShort(date), prefix+date))
	}

	b := NewBuilder().Grid(buttons, datesPerRow)
	if nav := PaginationButtons(pagePrefix, page, total); len(nav) > 0 {
		b.Row(nav...)
	}
	return b.rows
}

// TimeGrid кнопки свободного времени, callback prefix + "15:04"
func TimeGrid(times []string, prefix string) [][]models.InlineKeyboardButton {
	buttons := make([]models.InlineKeyboardButton, 0, len(times))
	for _, t := range times {
		buttons = append(buttons, Button(t, prefix+t))
	}
	return NewBuilder().Grid(buttons, timesPerRow).rows
}
