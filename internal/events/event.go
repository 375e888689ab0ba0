// Package events описывает события о записях, которыми обмениваются боты.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/google/uuid"
)

type Type string

const (
	TypeCreated     Type = "reservation.created"
	TypeCancelled   Type = "reservation.cancelled"
	TypeRescheduled Type = "reservation.rescheduled"
	TypeCompleted   Type = "reservation.completed"
)

// Event публикуется после коммита изменения записи.
// Содержит достаточно данных для уведомления без запроса в базу.
type Event struct {
	ID            uuid.UUID `json:"id"`
	Type          Type      `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	OwnerID       int64     `json:"owner_id"`
	MasterID      *int64    `json:"master_id,omitempty"`
	ServiceName   string    `json:"service_name"`
	ClientName    string    `json:"client_name"`
	Phone         string    `json:"phone"`
	Price         int       `json:"price"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent строит событие по состоянию записи
func NewEvent(t Type, r *model.Reservation, at time.Time) Event {
	return Event{
		ID:            uuid.New(),
		Type:          t,
		ReservationID: r.ID,
		OwnerID:       r.OwnerID,
		MasterID:      r.MasterID,
		ServiceName:   r.ServiceName,
		ClientName:    r.ClientName,
		Phone:         r.Phone,
		Price:         r.Price,
		Date:          r.Date,
		Time:          r.TimeString(),
		OccurredAt:    at,
	}
}

// Publisher отправляет события. Ошибка публикации не отменяет уже закоммиченную запись.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher используется, когда брокер не настроен
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Handler обрабатывает полученное событие
type Handler func(ctx context.Context, ev Event) error

func decode(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == 0 {
		return Event{}, fmt.Errorf("unmarshal event: missing type or reservation id")
	}
	return ev, nil
}
