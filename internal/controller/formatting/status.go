package formatting

import "github.com/Freeeeeet/booking_bot/internal/model"

// StatusDisplay представляет отображение статуса записи
type StatusDisplay struct {
	Emoji string
	Text  string
}

var statusDisplays = map[model.ReservationStatus]StatusDisplay{
	model.ReservationStatusActive:    {"🟢", "Активна"},
	model.ReservationStatusCompleted: {"✔️", "Завершена"},
	model.ReservationStatusCancelled: {"❌", "Отменена"},
}

// GetStatusDisplay возвращает emoji и текст для статуса записи
func GetStatusDisplay(status model.ReservationStatus) StatusDisplay {
	if display, ok := statusDisplays[status]; ok {
		return display
	}
	return StatusDisplay{"❓", "Неизвестно"}
}
