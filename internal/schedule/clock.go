// Package schedule считает рабочие часы и сетку слотов мастера.
// Вся арифметика идёт в минутах от полуночи.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout формат даты записи
const DateLayout = "2006-01-02"

// ErrInvalidClock строка не является временем суток
var ErrInvalidClock = errors.New("invalid clock value")

// Clock время суток в минутах от полуночи
type Clock int

// DayEnd конец суток
const DayEnd Clock = 24 * 60

// ParseClock разбирает "14", "9:30", "09:30".
// Часовое значение без минут трактуется как HH:00.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidClock
	}

	hourPart, minutePart, hasMinutes := strings.Cut(s, ":")
	if len(hourPart) == 0 || len(hourPart) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	minute := 0
	if hasMinutes {
		if len(minutePart) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		minute, err = strconv.Atoi(minutePart)
		if err != nil || minute < 0 || minute > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}

	return Clock(hour*60 + minute), nil
}

// MustClock как ParseClock, но паникует. Для констант и тестов.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf время суток момента t
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// String форматирует как HH:MM
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add сдвигает время на указанное число минут
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// NormalizeTime приводит ввод к виду HH:MM
func NormalizeTime(s string) (string, error) {
	c, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// ParseDate разбирает дату записи YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// NormalizeDate проверяет дату и возвращает её в виде YYYY-MM-DD.
// Дата хранится и сравнивается как строка, поэтому в базу попадает только этот вид.
func NormalizeDate(s string) (string, error) {
	d, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.Format(DateLayout), nil
}
