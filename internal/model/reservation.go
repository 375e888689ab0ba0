package model

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"    // Запись действует и занимает слот
	ReservationStatusCancelled ReservationStatus = "cancelled" // Отменена, слот свободен
	ReservationStatusCompleted ReservationStatus = "completed" // Визит состоялся
)

// Reservation запись клиента на услугу.
// Название услуги, цена и контакты фиксируются в момент создания.
type Reservation struct {
	ID          int64             `json:"id"`
	OwnerID     int64             `json:"owner_id"`  // Telegram ID клиента
	MasterID    *int64            `json:"master_id"` // nil - запись к любому мастеру
	ServiceID   string            `json:"service_id"`
	ServiceName string            `json:"service_name"`
	Price       int               `json:"price"` // в копейках
	Date        string            `json:"date"`  // 2006-01-02
	Time        *string           `json:"time"`  // 15:04, nil если время не назначено
	ClientName  string            `json:"client_name"`
	Phone       string            `json:"phone"`
	Comment     string            `json:"comment"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsActive сообщает, занимает ли запись слот
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// TimeString возвращает время записи или пустую строку
func (r *Reservation) TimeString() string {
	if r.Time == nil {
		return ""
	}
	return *r.Time
}

// StartsAt возвращает момент начала визита в указанной зоне.
// ok=false для записей без времени или с повреждённой датой.
func (r *Reservation) StartsAt(loc *time.Location) (time.Time, bool) {
	if r.Time == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", r.Date+" "+*r.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
