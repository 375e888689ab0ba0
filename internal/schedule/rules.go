package schedule

import (
	"iter"
	"time"
)

// Window рабочий интервал дня [Start, End)
type Window struct {
	Start Clock
	End   Clock
}

// Minutes длительность окна
func (w Window) Minutes() int {
	return int(w.End - w.Start)
}

// WeeklySchedule шаблон недели. Отсутствующий день - выходной.
type WeeklySchedule map[time.Weekday]Window

// ClosedDate дата, в которую мастер не работает
type ClosedDate struct {
	Date   string
	Reason string
}

// Rules правила работы мастера или салона
type Rules struct {
	Weekly WeeklySchedule
	Closed []ClosedDate
}

// WorkingHours возвращает рабочее окно на дату.
// Закрытая дата имеет приоритет над недельным шаблоном.
func WorkingHours(rules Rules, date time.Time) (Window, bool) {
	day := date.Format(DateLayout)
	for _, c := range rules.Closed {
		if c.Date == day {
			return Window{}, false
		}
	}

	w, ok := rules.Weekly[date.Weekday()]
	if !ok || w.End <= w.Start {
		return Window{}, false
	}
	return w, true
}

// ClosedReason причина закрытия даты, если она закрыта
func ClosedReason(rules Rules, date time.Time) (string, bool) {
	day := date.Format(DateLayout)
	for _, c := range rules.Closed {
		if c.Date == day {
			return c.Reason, true
		}
	}
	return "", false
}

// Slots перечисляет начала слотов с шагом step минут.
// Слот попадает в выдачу, только если услуга длительностью serviceDuration
// успевает закончиться до конца окна. serviceDuration <= 0 означает step.
// Последовательность конечна и может обходиться повторно.
func Slots(w Window, step, serviceDuration int) iter.Seq[Clock] {
	if serviceDuration <= 0 {
		serviceDuration = step
	}

	return func(yield func(Clock) bool) {
		if step <= 0 {
			return
		}
		for t := w.Start; t.Add(serviceDuration) <= w.End; t = t.Add(step) {
			if !yield(t) {
				return
			}
		}
	}
}
