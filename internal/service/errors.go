package service

import "errors"

var (
	// ErrSlotTaken слот занят другой активной записью. Клиенту нужно выбрать другое время.
	ErrSlotTaken = errors.New("slot is already taken")
	// ErrNotFound записи с таким ID нет
	ErrNotFound = errors.New("reservation not found")
	// ErrNotActive операция требует активную запись
	ErrNotActive = errors.New("reservation is not active")
	// ErrSlotUnavailable время больше не входит в свободные слоты: прошло, вне графика или занято
	ErrSlotUnavailable = errors.New("slot is no longer offered")
	// ErrInvalidSlot дата или время не разбираются
	ErrInvalidSlot = errors.New("invalid date or time")
	// ErrValidation запрос не прошёл валидацию
	ErrValidation = errors.New("validation failed")
)
