package state

import "time"

// UserState текущий диалог пользователя
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Клиентский бот
	StateBooking    UserState = "booking"
	StateReschedule UserState = "reschedule"

	// Админ-бот
	StateLogin     UserState = "login"
	StateAddMaster UserState = "add_master"
	StateCloseDate UserState = "close_date"
)

// Ключи данных диалога
const (
	KeyStep      = "step"
	KeyDraft     = "draft"
	KeyMessageID = "message_id"
)

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State     UserState
	Data      map[string]any
	UpdatedAt time.Time
}
