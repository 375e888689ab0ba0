// Package wizard описывает пошаговые диалоги ботов: шаги, переходы и черновики.
// Переходы чистые и не зависят от Telegram.
package wizard

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/Freeeeeet/booking_bot/internal/settings"
)

var (
	ErrEmptyName    = errors.New("empty name")
	ErrLongName     = errors.New("name too long")
	ErrInvalidPhone = errors.New("invalid phone")
	ErrLongComment  = errors.New("comment too long")
)

const (
	maxNameLen    = 100
	maxCommentLen = 500
)

// Step шаг мастера записи
type Step int

const (
	StepNone Step = iota
	StepCategory
	StepService
	StepMaster
	StepDate
	StepTime
	StepName
	StepPhone
	StepComment
	StepConfirm
	StepDone
)

var stepNames = map[Step]string{
	StepNone:     "none",
	StepCategory: "category",
	StepService:  "service",
	StepMaster:   "master",
	StepDate:     "date",
	StepTime:     "time",
	StepName:     "name",
	StepPhone:    "phone",
	StepComment:  "comment",
	StepConfirm:  "confirm",
	StepDone:     "done",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Flow включённые шаги диалога
type Flow struct {
	Categories     bool // больше одной категории услуг
	MastersEnabled bool
	RequirePhone   bool
	Reschedule     bool // перенос: только дата и время
}

// FlowFor строит Flow по текущим настройкам
func FlowFor(st *settings.Settings) Flow {
	return Flow{
		Categories:     len(st.Categories()) > 1,
		MastersEnabled: st.Features.MastersEnabled && len(st.Masters) > 0,
		RequirePhone:   st.Features.RequirePhone,
	}
}

func (f Flow) enabled(s Step) bool {
	if f.Reschedule {
		return s == StepDate || s == StepTime || s == StepConfirm || s == StepDone
	}
	switch s {
	case StepCategory:
		return f.Categories
	case StepMaster:
		return f.MastersEnabled
	case StepPhone:
		return f.RequirePhone
	}
	return true
}

// First первый шаг диалога
func First(f Flow) Step {
	return Advance(StepNone, f)
}

// Advance следующий включённый шаг после s
func Advance(s Step, f Flow) Step {
	for next := s + 1; next < StepDone; next++ {
		if f.enabled(next) {
			return next
		}
	}
	return StepDone
}

// Back предыдущий включённый шаг. С первого шага возврата нет.
func Back(s Step, f Flow) Step {
	for prev := s - 1; prev > StepNone; prev-- {
		if f.enabled(prev) {
			return prev
		}
	}
	return StepNone
}

// BookingDraft черновик записи, заполняемый по шагам
type BookingDraft struct {
	RescheduleID int64
	Category     string
	ServiceID    string
	ServiceName  string
	Price        int
	Duration     int
	MasterID     *int64
	MasterName   string
	Date         string
	Time         string
	ClientName   string
	Phone        string
	Comment      string
}

// SetCategory выбирает категорию и сбрасывает выбранную услугу
func (d *BookingDraft) SetCategory(category string) {
	if d.Category != category {
		d.ServiceID, d.ServiceName, d.Price, d.Duration = "", "", 0, 0
	}
	d.Category = category
}

// SetService фиксирует услугу каталога
func (d *BookingDraft) SetService(svc settings.Service) {
	d.ServiceID = svc.ID
	d.ServiceName = svc.Name
	d.Price = svc.Price
	d.Duration = svc.Duration
	d.Category = svc.Category
}

// SetMaster выбирает мастера. nil означает любого свободного.
func (d *BookingDraft) SetMaster(m *settings.Master) {
	if m == nil {
		d.MasterID, d.MasterName = nil, ""
		return
	}
	id := m.ID
	d.MasterID, d.MasterName = &id, m.Name
}

// SetDate выбирает дату и сбрасывает время
func (d *BookingDraft) SetDate(date string) error {
	date, err := schedule.NormalizeDate(date)
	if err != nil {
		return err
	}
	if d.Date != date {
		d.Time = ""
	}
	d.Date = date
	return nil
}

// SetTime выбирает время в формате HH:MM
func (d *BookingDraft) SetTime(clock string) error {
	normalized, err := schedule.NormalizeTime(clock)
	if err != nil {
		return err
	}
	d.Time = normalized
	return nil
}

// SetName сохраняет имя клиента
func (d *BookingDraft) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return ErrLongName
	}
	d.ClientName = name
	return nil
}

var phoneDigits = regexp.MustCompile(`\d`)

var phoneChars = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

// SetPhone сохраняет телефон в виде +79991234567
func (d *BookingDraft) SetPhone(phone string) error {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	d.Phone = normalized
	return nil
}

// NormalizePhone оставляет только цифры с ведущим плюсом.
// Российский номер на 8 переводится в +7.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !phoneChars.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	digits := strings.Join(phoneDigits.FindAllString(phone, -1), "")
	if len(digits) < 10 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	if len(digits) == 10 {
		digits = "7" + digits
	}
	return "+" + digits, nil
}

// SetComment сохраняет комментарий. "-" означает без комментария.
func (d *BookingDraft) SetComment(comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "-" {
		comment = ""
	}
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return ErrLongComment
	}
	d.Comment = comment
	return nil
}

// Missing первый включённый шаг, данные которого ещё не заполнены.
// StepConfirm означает, что черновик готов.
func (d *BookingDraft) Missing(f Flow) Step {
	for s := First(f); s < StepConfirm; s = Advance(s, f) {
		if !d.filled(s) {
			return s
		}
	}
	return StepConfirm
}

func (d *BookingDraft) filled(s Step) bool {
	switch s {
	case StepCategory:
		return d.Category != "" || d.ServiceID != ""
	case StepService:
		return d.ServiceID != ""
	case StepMaster:
		return true
	case StepDate:
		return d.Date != ""
	case StepTime:
		return d.Time != ""
	case StepName:
		return d.ClientName != ""
	case StepPhone:
		return d.Phone != ""
	}
	return true
}

// Request превращает черновик в запрос на создание записи
func (d *BookingDraft) Request(ownerID int64, username, firstName, lastName string) service.CreateRequest {
	return service.CreateRequest{
		OwnerID:     ownerID,
		MasterID:    d.MasterID,
		ServiceID:   d.ServiceID,
		ServiceName: d.ServiceName,
		Price:       d.Price,
		Date:        d.Date,
		Time:        d.Time,
		ClientName:  d.ClientName,
		Phone:       d.Phone,
		Comment:     d.Comment,
		Username:    username,
		FirstName:   firstName,
		LastName:    lastName,
	}
}
