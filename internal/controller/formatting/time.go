package formatting

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/schedule"
)

// FormatDate переводит 2006-01-02 в 02.01.2006. Нераспознанная дата возвращается как есть.
func FormatDate(date string) string {
	t, err := schedule.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006")
}

// FormatDayShort короткая подпись дня для кнопок: "Пн 12.01"
func FormatDayShort(date string) string {
	t, err := schedule.ParseDate(date)
	if err != nil {
		return date
	}
	return GetWeekdayShortName(t.Weekday()) + " " + t.Format("02.01")
}

// FormatDateWithWeekday дата с днём недели: "12.01.2026, понедельник"
func FormatDateWithWeekday(date string) string {
	t, err := schedule.ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %s", t.Format("02.01.2006"), GetWeekdayNameLower(t.Weekday()))
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

var weekdayNames = [...]string{
	"Воскресенье",
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
}

var weekdayShortNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// GetWeekdayName возвращает название дня недели на русском
func GetWeekdayName(weekday time.Weekday) string {
	if weekday >= 0 && int(weekday) < len(weekdayNames) {
		return weekdayNames[weekday]
	}
	return "Неизвестно"
}

func GetWeekdayNameLower(weekday time.Weekday) string {
	names := [...]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}
	if weekday >= 0 && int(weekday) < len(names) {
		return names[weekday]
	}
	return "?"
}

// GetWeekdayShortName возвращает краткое название дня недели на русском
func GetWeekdayShortName(weekday time.Weekday) string {
	if weekday >= 0 && int(weekday) < len(weekdayShortNames) {
		return weekdayShortNames[weekday]
	}
	return "?"
}

// GetMonthName возвращает название месяца на русском
func GetMonthName(month time.Month) string {
	names := map[time.Month]string{
		time.January:   "Январь",
		time.February:  "Февраль",
		time.March:     "Март",
		time.April:     "Апрель",
		time.May:       "Май",
		time.June:      "Июнь",
		time.July:      "Июль",
		time.August:    "Август",
		time.September: "Сентябрь",
		time.October:   "Октябрь",
		time.November:  "Ноябрь",
		time.December:  "Декабрь",
	}
	return names[month]
}
