// Package settings хранит настройки салона: услуги, мастеров, часы работы.
package settings

import (
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/schedule"
)

// Ключи дней недели в документе настроек
var weekdayKeys = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

type Settings struct {
	Business     Business            `mapstructure:"business" json:"business"`
	Timezone     string              `mapstructure:"timezone" json:"timezone" validate:"required,timezone"`
	SlotDuration int                 `mapstructure:"slot_duration" json:"slot_duration" validate:"min=5,max=240"`
	HorizonDays  int                 `mapstructure:"horizon_days" json:"horizon_days" validate:"min=1,max=365"`
	Hours        map[string]DayHours `mapstructure:"hours" json:"hours" validate:"dive,keys,oneof=mon tue wed thu fri sat sun,endkeys"`
	ClosedDates  []ClosedDate        `mapstructure:"closed_dates" json:"closed_dates" validate:"dive"`
	Services     []Service           `mapstructure:"services" json:"services" validate:"required,min=1,dive"`
	Masters      []Master            `mapstructure:"masters" json:"masters" validate:"dive"`
	Features     Features            `mapstructure:"features" json:"features"`
}

type Business struct {
	Name    string `mapstructure:"name" json:"name" validate:"required"`
	Phone   string `mapstructure:"phone" json:"phone"`
	Address string `mapstructure:"address" json:"address"`
	About   string `mapstructure:"about" json:"about"`
}

// DayHours рабочие часы одного дня, HH:MM
type DayHours struct {
	Start string `mapstructure:"start" json:"start" validate:"required,clock"`
	End   string `mapstructure:"end" json:"end" validate:"required,clock"`
}

type ClosedDate struct {
	Date   string `mapstructure:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `mapstructure:"reason" json:"reason"`
}

// Service услуга каталога. Price в копейках, Duration в минутах.
type Service struct {
	ID       string `mapstructure:"id" json:"id" validate:"required"`
	Name     string `mapstructure:"name" json:"name" validate:"required"`
	Price    int    `mapstructure:"price" json:"price" validate:"min=0"`
	Duration int    `mapstructure:"duration" json:"duration" validate:"min=5,max=720"`
	Category string `mapstructure:"category" json:"category"`
}

type Master struct {
	ID             int64               `mapstructure:"id" json:"id" validate:"min=1"`
	Name           string              `mapstructure:"name" json:"name" validate:"required"`
	Specialization string              `mapstructure:"specialization" json:"specialization"`
	ServiceIDs     []string            `mapstructure:"service_ids" json:"service_ids"`
	Schedule       map[string]DayHours `mapstructure:"schedule" json:"schedule" validate:"dive,keys,oneof=mon tue wed thu fri sat sun,endkeys"`
	ClosedDates    []ClosedDate        `mapstructure:"closed_dates" json:"closed_dates" validate:"dive"`
}

type Features struct {
	MastersEnabled bool `mapstructure:"masters_enabled" json:"masters_enabled"`
	AutoComplete   bool `mapstructure:"auto_complete" json:"auto_complete"`
	RequirePhone   bool `mapstructure:"require_phone" json:"require_phone"`
}

// Default настройки для первого запуска
func Default() Settings {
	week := map[string]DayHours{}
	for _, key := range []string{"mon", "tue", "wed", "thu", "fri", "sat"} {
		week[key] = DayHours{Start: "10:00", End: "20:00"}
	}

	return Settings{
		Business:     Business{Name: "Салон"},
		Timezone:     "Europe/Moscow",
		SlotDuration: 60,
		HorizonDays:  30,
		Hours:        week,
		Services: []Service{
			{ID: "haircut", Name: "Стрижка", Price: 150000, Duration: 60, Category: "Волосы"},
			{ID: "manicure", Name: "Маникюр", Price: 120000, Duration: 90, Category: "Ногти"},
		},
	}
}

// Location часовой пояс салона
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Service ищет услугу по идентификатору
func (s *Settings) Service(id string) (Service, bool) {
	for _, svc := range s.Services {
		if svc.ID == id {
			return svc, true
		}
	}
	return Service{}, false
}

// Master ищет мастера по идентификатору
func (s *Settings) Master(id int64) (Master, bool) {
	for _, m := range s.Masters {
		if m.ID == id {
			return m, true
		}
	}
	return Master{}, false
}

// MastersFor мастера, которые оказывают услугу
func (s *Settings) MastersFor(serviceID string) []Master {
	var out []Master
	for _, m := range s.Masters {
		for _, id := range m.ServiceIDs {
			if id == serviceID {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Categories список категорий услуг в порядке появления
func (s *Settings) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, svc := range s.Services {
		if !seen[svc.Category] {
			seen[svc.Category] = true
			out = append(out, svc.Category)
		}
	}
	return out
}

// BusinessRules правила работы салона целиком
func (s *Settings) BusinessRules() schedule.Rules {
	return toRules(s.Hours, s.ClosedDates)
}

// RulesFor правила работы мастера. Закрытые даты салона действуют и для мастера.
// Мастер без собственного расписания работает по часам салона.
func (s *Settings) RulesFor(m Master) schedule.Rules {
	hours := m.Schedule
	if len(hours) == 0 {
		hours = s.Hours
	}
	closed := append(append([]ClosedDate{}, s.ClosedDates...), m.ClosedDates...)
	return toRules(hours, closed)
}

func toRules(hours map[string]DayHours, closed []ClosedDate) schedule.Rules {
	rules := schedule.Rules{Weekly: schedule.WeeklySchedule{}}
	for key, h := range hours {
		day, ok := weekdayKeys[key]
		if !ok {
			continue
		}
		start, err1 := schedule.ParseClock(h.Start)
		end, err2 := schedule.ParseClock(h.End)
		if err1 != nil || err2 != nil {
			continue
		}
		rules.Weekly[day] = schedule.Window{Start: start, End: end}
	}
	for _, c := range closed {
		rules.Closed = append(rules.Closed, schedule.ClosedDate{Date: c.Date, Reason: c.Reason})
	}
	return rules
}

// check проверяет то, что не выражается тегами валидатора
func (s *Settings) check() error {
	if err := checkHours(s.Hours); err != nil {
		return fmt.Errorf("business hours: %w", err)
	}

	serviceIDs := map[string]bool{}
	for _, svc := range s.Services {
		if serviceIDs[svc.ID] {
			return fmt.Errorf("duplicate service id %q", svc.ID)
		}
		serviceIDs[svc.ID] = true
	}

	masterIDs := map[int64]bool{}
	for _, m := range s.Masters {
		if masterIDs[m.ID] {
			return fmt.Errorf("duplicate master id %d", m.ID)
		}
		masterIDs[m.ID] = true
		for _, id := range m.ServiceIDs {
			if !serviceIDs[id] {
				return fmt.Errorf("master %d: unknown service %q", m.ID, id)
			}
		}
		if err := checkHours(m.Schedule); err != nil {
			return fmt.Errorf("master %d hours: %w", m.ID, err)
		}
	}
	return nil
}

func checkHours(hours map[string]DayHours) error {
	keys := make([]string, 0, len(hours))
	for k := range hours {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		h := hours[k]
		start, err := schedule.ParseClock(h.Start)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		end, err := schedule.ParseClock(h.End)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if end <= start {
			return fmt.Errorf("%s: end %s is not after start %s", k, h.End, h.Start)
		}
	}
	return nil
}

func (s Settings) clone() Settings {
	out := s
	out.Hours = cloneHours(s.Hours)
	out.ClosedDates = append([]ClosedDate(nil), s.ClosedDates...)
	out.Services = append([]Service(nil), s.Services...)
	out.Masters = make([]Master, len(s.Masters))
	for i, m := range s.Masters {
		m.ServiceIDs = append([]string(nil), m.ServiceIDs...)
		m.Schedule = cloneHours(m.Schedule)
		m.ClosedDates = append([]ClosedDate(nil), m.ClosedDates...)
		out.Masters[i] = m
	}
	return out
}

func cloneHours(h map[string]DayHours) map[string]DayHours {
	if h == nil {
		return nil
	}
	out := make(map[string]DayHours, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
