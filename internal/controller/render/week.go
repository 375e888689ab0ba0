// Package render рисует недельное расписание записей в PNG.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	daysInWeek       = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 9
	defaultMaxHour   = 21
	maxLabelRunes    = 18
)

// Константы шрифтов
const (
	titleFontSize     = 25.0
	dayFontSize       = 24.0
	hourLabelFontSize = 17.0
	slotFontSize      = 15.0
	legendFontSize    = 12.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 90}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{225, 225, 225, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	activeColor     = color.RGBA{255, 182, 193, 255}
	completedColor  = color.RGBA{133, 193, 85, 220}
	cancelledColor  = color.RGBA{190, 190, 190, 200}
	slotTextColor   = color.RGBA{20, 24, 28, 230}
	activeTextColor = color.RGBA{120, 40, 50, 255}
	slotShadowColor = color.RGBA{0, 0, 0, 20}
	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// Week входные данные недельной картинки
type Week struct {
	Start        time.Time // любой день недели, неделя считается с понедельника
	Now          time.Time // момент для подсветки сегодняшнего дня, в зоне салона
	Reservations []*model.Reservation
	Durations    map[string]int // длительность по ID услуги, минуты
	SlotMinutes  int            // длительность по умолчанию
	MasterNames  map[int64]string
}

// WeekStart понедельник недели, в которую попадает t
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// block запись, размещённая на сетке
type block struct {
	res   *model.Reservation
	start schedule.Clock
	end   schedule.Clock
}

type hourRange struct {
	start int
	end   int
	total int
}

// layout раскладывает записи по дням недели. Записи без времени только считаются.
func (w Week) layout(monday time.Time) (map[string][]block, map[string]int) {
	blocks := make(map[string][]block)
	untimed := make(map[string]int)
	first := monday.Format(schedule.DateLayout)
	last := monday.AddDate(0, 0, daysInWeek-1).Format(schedule.DateLayout)

	for _, r := range w.Reservations {
		if r.Date < first || r.Date > last {
			continue
		}
		if r.Time == nil {
			untimed[r.Date]++
			continue
		}
		start, err := schedule.ParseClock(*r.Time)
		if err != nil {
			continue
		}
		duration := w.Durations[r.ServiceID]
		if duration <= 0 {
			duration = w.SlotMinutes
		}
		if duration <= 0 {
			duration = 60
		}
		blocks[r.Date] = append(blocks[r.Date], block{res: r, start: start, end: start.Add(duration)})
	}
	return blocks, untimed
}

// hoursFor диапазон часов, в который помещаются все записи
func hoursFor(blocks map[string][]block) hourRange {
	minHour, maxHour := 24, 0
	for _, day := range blocks {
		for _, bl := range day {
			minHour = min(minHour, int(bl.start)/60)
			endHour := int(bl.end) / 60
			if int(bl.end)%60 > 0 {
				endHour++
			}
			maxHour = max(maxHour, endHour)
		}
	}
	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(0, minHour-hourPaddingTop)
	end := min(24, maxHour+hourPaddingBot)
	return hourRange{start: start, end: end, total: end - start}
}

// Render рисует неделю и кодирует её в PNG
func (w Week) Render() ([]byte, error) {
	monday := WeekStart(w.Start)
	blocks, untimed := w.layout(monday)
	hours := hoursFor(blocks)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, monday)
	drawHourLabels(dc, hours, cellHeight)

	today := ""
	if !w.Now.IsZero() {
		today = w.Now.Format(schedule.DateLayout)
	}
	for i := 0; i < daysInWeek; i++ {
		date := monday.AddDate(0, 0, i)
		key := date.Format(schedule.DateLayout)
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, key == today)
		drawDayHeader(dc, date, untimed[key], x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, bl := range blocks[key] {
			w.drawBlock(dc, bl, x, y, dayWidth, hours, cellHeight)
		}
		if key == today {
			drawCurrentTimeLine(dc, schedule.ClockOf(w.Now), x, dayWidth, hours, cellHeight)
		}
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
)

// loadFont выбирает шрифт Go нужного размера или basicfont как fallback
func loadFont(dc *gg.Context, size float64, bold bool) {
	fontsOnce.Do(func() {
		regularFont, _ = opentype.Parse(goregular.TTF)
		boldFont, _ = opentype.Parse(gobold.TTF)
	})

	f := regularFont
	if bold {
		f = boldFont
	}
	if f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func drawHeader(dc *gg.Context, monday time.Time) {
	sunday := monday.AddDate(0, 0, daysInWeek-1)
	title := formatting.GetMonthName(monday.Month())
	if sunday.Month() != monday.Month() {
		title += " - " + formatting.GetMonthName(sunday.Month())
	}
	title += fmt.Sprintf(" %d", sunday.Year())

	loadFont(dc, titleFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, false)
	dc.SetColor(hourLabelColor)

	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		label := fmt.Sprintf("%02d:00", hours.start+i)
		dc.DrawStringAnchored(label, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

// drawDayHeader рисует день недели, дату и число записей без времени
func drawDayHeader(dc *gg.Context, date time.Time, untimed int, x, y float64, dayWidth int) {
	center := x + float64(dayWidth)/2

	loadFont(dc, dayFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), center, y-38, 0.5, 0.5)
	dc.DrawStringAnchored(formatting.GetWeekdayShortName(date.Weekday()), center, y-14, 0.5, 0.5)

	if untimed > 0 {
		loadFont(dc, legendFontSize, false)
		dc.DrawStringAnchored(fmt.Sprintf("+%d без времени", untimed), center, y-60, 0.5, 0.5)
	}
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func (w Week) drawBlock(dc *gg.Context, bl block, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(bl.start) / 60
	endHour := float64(bl.end) / 60

	top := y + (startHour-float64(hours.start))*cellHeight
	height := max((endHour-startHour)*cellHeight, minSlotHeight)
	width := float64(dayWidth) - float64(dayPaddingX*2)
	left := x + float64(dayPaddingX)

	fill := statusColor(bl.res.Status)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(left+shadowOffset, top+2+shadowOffset, width, height-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(left, top+2, width, height-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(left, top+2, width, height-4, slotBorderRadius)
	dc.Stroke()

	txtColor := slotTextColor
	if bl.res.Status == model.ReservationStatusActive {
		txtColor = activeTextColor
	}

	loadFont(dc, slotFontSize, true)
	dc.SetColor(txtColor)
	txtX := left + 6
	txtY := top + 18
	dc.DrawStringAnchored(fmt.Sprintf("%s #%d", bl.start, bl.res.ID), txtX, txtY, 0, 0)

	if height > 40 {
		loadFont(dc, slotFontSize-2, false)
		dc.DrawStringAnchored(truncate(bl.res.ServiceName), txtX, txtY+16, 0, 0)
	}
	if height > 58 {
		label := bl.res.ClientName
		if bl.res.MasterID != nil {
			if name, ok := w.MasterNames[*bl.res.MasterID]; ok {
				label = name
			}
		}
		dc.DrawStringAnchored(truncate(label), txtX, txtY+32, 0, 0)
	}
}

func drawCurrentTimeLine(dc *gg.Context, now schedule.Clock, x float64, dayWidth int, hours hourRange, cellHeight float64) {
	hour := float64(now) / 60
	if hour < float64(hours.start) || hour > float64(hours.end) {
		return
	}
	lineY := float64(headerHeight) + (hour-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(x, lineY, x+float64(dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	itemY := float64(imageHeight) - 80.0

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Активна", activeColor},
		{"Завершена", completedColor},
		{"Отменена", cancelledColor},
	}

	const boxW, boxH = 20.0, 14.0
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(legendX, itemY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendFontSize, false)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, legendX+boxW+8, itemY+boxH/2+1, 0, 0.2)
		itemY += boxH + 14
	}
}

func statusColor(status model.ReservationStatus) color.RGBA {
	switch status {
	case model.ReservationStatusCompleted:
		return completedColor
	case model.ReservationStatusCancelled:
		return cancelledColor
	default:
		return activeColor
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:maxLabelRunes-1]) + "…"
}
