package common

import (
	"errors"

	"github.com/Freeeeeet/booking_bot/internal/auth"
	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/Freeeeeet/booking_bot/internal/settings"
)

// Общие ошибки для обработчиков
var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
	ErrDialogExpired = errors.New("dialog expired")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrSlotTaken):
		return "😔 Это время уже занято. Выберите другое."
	case errors.Is(err, service.ErrSlotUnavailable):
		return "⌛ Это время больше недоступно. Выберите другое."
	case errors.Is(err, service.ErrNotFound):
		return "❌ Запись не найдена"
	case errors.Is(err, service.ErrNotActive):
		return "❌ Запись уже отменена или завершена"
	case errors.Is(err, service.ErrInvalidSlot):
		return "❌ Это время недоступно для записи"
	case errors.Is(err, service.ErrValidation):
		return "❌ Проверьте введённые данные"
	case errors.Is(err, wizard.ErrEmptyName):
		return "❌ Имя не может быть пустым"
	case errors.Is(err, wizard.ErrLongName):
		return "❌ Слишком длинное имя"
	case errors.Is(err, wizard.ErrInvalidPhone):
		return "❌ Не похоже на номер телефона. Пример: +7 999 123-45-67"
	case errors.Is(err, wizard.ErrLongComment):
		return "❌ Комментарий слишком длинный"
	case errors.Is(err, wizard.ErrNoServices):
		return "❌ Выберите хотя бы одну услугу"
	case errors.Is(err, schedule.ErrInvalidClock):
		return "❌ Неверное время"
	case errors.Is(err, settings.ErrInvalid):
		return "❌ Настройки не прошли проверку"
	case errors.Is(err, settings.ErrMasterNotFound):
		return "❌ Мастер не найден"
	case errors.Is(err, auth.ErrWrongPIN):
		return "❌ Неверный PIN"
	case errors.Is(err, auth.ErrLocked):
		return "⛔ Слишком много попыток. Попробуйте позже."
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	case errors.Is(err, ErrDialogExpired):
		return "⌛ Диалог устарел. Начните заново."
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}

// IsUserError сообщает, что ошибка вызвана вводом пользователя, а не сбоем
func IsUserError(err error) bool {
	return ErrorMessage(err) != ErrorMessage(nil)
}
