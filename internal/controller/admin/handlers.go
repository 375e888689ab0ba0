package admin

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/controller/common"
	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/Freeeeeet/booking_bot/internal/controller/intent"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/render"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const defaultExportDays = 30

func (c *Controller) localNow() time.Time {
	return c.now().In(c.settings.Get().Location())
}

func (c *Controller) today() string {
	return c.localNow().Format(schedule.DateLayout)
}

func (c *Controller) showToday(ctx context.Context, b *bot.Bot, chatID int64) {
	today := c.today()
	list, err := c.reports.ListInRange(ctx, service.RangeFilter{From: today, To: today, IncludeCancelled: true})
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "list today", err)
		return
	}
	text, markup := dayView(today, list)
	if markup == nil {
		common.Send(ctx, b, c.logger, chatID, text, nil)
		return
	}
	common.Send(ctx, b, c.logger, chatID, text, markup)
}

// showWeek отправляет картинку недели со смещением offset от текущей.
// Картинку нельзя отредактировать текстом, поэтому старое сообщение удаляется.
func (c *Controller) showWeek(ctx context.Context, b *bot.Bot, chatID int64, msg *models.Message, offset int) {
	now := c.localNow()
	monday := render.WeekStart(now).AddDate(0, 0, 7*offset)
	sunday := monday.AddDate(0, 0, 6)

	list, err := c.reports.ListInRange(ctx, service.RangeFilter{
		From:             monday.Format(schedule.DateLayout),
		To:               sunday.Format(schedule.DateLayout),
		IncludeCancelled: true,
	})
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "list week", err)
		return
	}

	st := c.settings.Get()
	durations := make(map[string]int, len(st.Services))
	for _, svc := range st.Services {
		durations[svc.ID] = svc.Duration
	}
	masterNames := make(map[int64]string, len(st.Masters))
	for _, m := range st.Masters {
		masterNames[m.ID] = m.Name
	}

	img, err := render.Week{
		Start:        monday,
		Now:          now,
		Reservations: list,
		Durations:    durations,
		SlotMinutes:  st.SlotDuration,
		MasterNames:  masterNames,
	}.Render()
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "render week", err)
		return
	}

	if msg != nil {
		if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: msg.ID}); err != nil {
			c.logger.Debug("Failed to delete previous week image", zap.Error(err))
		}
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: "week_" + monday.Format(schedule.DateLayout) + ".png",
			Data:     bytes.NewReader(img),
		},
		Caption:     weekCaption(monday, list),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: weekKeyboard(offset),
	})
	if err != nil {
		c.logger.Error("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (c *Controller) showStats(ctx context.Context, b *bot.Bot, chatID int64, msg *models.Message, kind service.PeriodKind) {
	p := service.PeriodFor(kind, c.now(), c.settings.Get().Location())
	stats, err := c.reports.Aggregate(ctx, p)
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "aggregate", err)
		return
	}
	common.Edit(ctx, b, c.logger, msg, chatID, formatting.FormatStats(periodTitle(p.Kind, p), stats), statsKeyboard())
}

func (c *Controller) exportLookback() time.Duration {
	days := c.opts.ExportDays
	if days <= 0 {
		days = defaultExportDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *Controller) sendExport(ctx context.Context, b *bot.Bot, chatID int64) {
	var buf bytes.Buffer
	n, err := c.reports.Export(ctx, &buf, c.exportLookback())
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "export", err)
		return
	}

	name := "reservations_" + c.today() + ".csv"
	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: name, Data: &buf},
		Caption:   fmt.Sprintf("📤 %d %s за %d дн.", n, formatting.PluralizeBookings(n), int(c.exportLookback().Hours()/24)),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		c.logger.Error("Failed to send export", zap.Int64("chat_id", chatID), zap.Error(err))
		common.Send(ctx, b, c.logger, chatID, "❌ Не удалось отправить файл", nil)
	}
}

func (c *Controller) sendExportLink(ctx context.Context, b *bot.Bot, chatID int64) {
	if c.links == nil || c.opts.PublicURL == "" {
		common.Send(ctx, b, c.logger, chatID, "🔗 Ссылки на выгрузку выключены: не задан PUBLIC_URL.", nil)
		return
	}
	token, err := c.links.Issue(c.now())
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "issue export link", err)
		return
	}
	link := strings.TrimRight(c.opts.PublicURL, "/") + "/export.csv?token=" + token
	common.Send(ctx, b, c.logger, chatID, "🔗 Ссылка на выгрузку (действует ограниченное время):\n"+link, nil)
}

// handleReservationAction завершение или отмена записи кнопкой из списка дня
func (c *Controller) handleReservationAction(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, prefix string) {
	id, err := common.ParseIDFromCallback(callback.Data, prefix)
	if err != nil {
		common.AnswerCallback(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	if prefix == cbComplete {
		err = c.booking.Complete(ctx, id)
	} else {
		err = c.booking.Cancel(ctx, id)
	}
	if err != nil {
		if !common.IsUserError(err) {
			c.logger.Error("Reservation action failed", zap.String("action", prefix), zap.Int64("reservation_id", id), zap.Error(err))
		}
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	if prefix == cbComplete {
		common.AnswerCallback(ctx, b, callback.ID, "✔️ Завершено")
	} else {
		common.AnswerCallback(ctx, b, callback.ID, "❌ Отменено")
	}
	c.refreshDay(ctx, b, callback, id)
}

// refreshDay перерисовывает список дня, к которому относится запись
func (c *Controller) refreshDay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, id int64) {
	res, err := c.reports.GetByID(ctx, id)
	if err != nil {
		c.logger.Warn("Failed to reload reservation", zap.Int64("reservation_id", id), zap.Error(err))
		return
	}
	list, err := c.reports.ListInRange(ctx, service.RangeFilter{From: res.Date, To: res.Date, IncludeCancelled: true})
	if err != nil {
		c.logger.Warn("Failed to reload day", zap.String("date", res.Date), zap.Error(err))
		return
	}
	text, markup := dayView(res.Date, list)
	common.Edit(ctx, b, c.logger, common.GetMessageFromCallback(callback), chatOf(callback), text, markup)
}

func (c *Controller) complete(ctx context.Context, b *bot.Bot, chatID, id int64) {
	if err := c.booking.Complete(ctx, id); err != nil {
		common.Report(ctx, b, c.logger, chatID, "complete", err)
		return
	}
	common.Send(ctx, b, c.logger, chatID, fmt.Sprintf("✔️ Запись #%d завершена", id), nil)
}

func (c *Controller) cancel(ctx context.Context, b *bot.Bot, chatID, id int64) {
	if err := c.booking.Cancel(ctx, id); err != nil {
		common.Report(ctx, b, c.logger, chatID, "cancel", err)
		return
	}
	common.Send(ctx, b, c.logger, chatID, fmt.Sprintf("❌ Запись #%d отменена", id), nil)
}

// Добавление мастера

func (c *Controller) masterDialog(userID int64) (wizard.MasterStep, wizard.MasterDraft) {
	var (
		step  wizard.MasterStep
		draft wizard.MasterDraft
	)
	if v, ok := c.states.GetData(userID, state.KeyStep); ok {
		step, _ = v.(wizard.MasterStep)
	}
	if v, ok := c.states.GetData(userID, state.KeyDraft); ok {
		draft, _ = v.(wizard.MasterDraft)
	}
	return step, draft
}

func (c *Controller) saveMaster(userID int64, step wizard.MasterStep, d wizard.MasterDraft) {
	c.states.SetData(userID, state.KeyStep, step)
	c.states.SetData(userID, state.KeyDraft, d)
}

func (c *Controller) startAddMaster(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	if len(c.settings.Get().Services) == 0 {
		common.Send(ctx, b, c.logger, chatID, "❌ Сначала добавьте услуги в файл настроек.", nil)
		return
	}
	c.states.Start(userID, state.StateAddMaster)
	c.saveMaster(userID, wizard.AdvanceMaster(wizard.MasterStepNone), wizard.MasterDraft{})
	common.Send(ctx, b, c.logger, chatID, "👤 Введите имя мастера:", keyboard.Menu([][]intent.Intent{{intent.Abort}}))
}

func (c *Controller) handleMasterInput(ctx context.Context, b *bot.Bot, msg *models.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	step, d := c.masterDialog(userID)

	switch step {
	case wizard.MasterStepName:
		if err := d.SetName(msg.Text); err != nil {
			common.Send(ctx, b, c.logger, chatID, common.ErrorMessage(err), nil)
			return
		}
		c.saveMaster(userID, wizard.AdvanceMaster(step), d)
		common.Send(ctx, b, c.logger, chatID, "🎓 Специализация мастера? Отправьте «-», чтобы пропустить.", nil)
	case wizard.MasterStepSpecialization:
		d.SetSpecialization(msg.Text)
		c.saveMaster(userID, wizard.AdvanceMaster(step), d)
		text, markup := servicesView(c.settings.Get(), &d)
		common.Send(ctx, b, c.logger, chatID, text, markup)
	default:
		common.Send(ctx, b, c.logger, chatID, "Воспользуйтесь кнопками под сообщением.", nil)
	}
}

func (c *Controller) handleMasterCallback(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	userID, chatID := callback.From.ID, chatOf(callback)
	msg := common.GetMessageFromCallback(callback)

	if c.states.GetState(userID) != state.StateAddMaster {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(common.ErrDialogExpired))
		return
	}
	step, d := c.masterDialog(userID)
	st := c.settings.Get()

	switch {
	case strings.HasPrefix(callback.Data, cbToggleSvc) && step == wizard.MasterStepServices:
		id := strings.TrimPrefix(callback.Data, cbToggleSvc)
		if _, ok := st.Service(id); !ok {
			common.AnswerCallback(ctx, b, callback.ID, common.ErrorMessage(common.ErrInvalidFormat))
			return
		}
		d.ToggleService(id)
		c.saveMaster(userID, step, d)
		common.AnswerCallback(ctx, b, callback.ID, "")
		text, markup := servicesView(st, &d)
		common.Edit(ctx, b, c.logger, msg, chatID, text, markup)

	case callback.Data == cbServicesOK && step == wizard.MasterStepServices:
		if len(d.ServiceIDs) == 0 {
			common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(wizard.ErrNoServices))
			return
		}
		c.saveMaster(userID, wizard.AdvanceMaster(step), d)
		common.AnswerCallback(ctx, b, callback.ID, "")
		text, markup := masterConfirmView(st, &d)
		common.Edit(ctx, b, c.logger, msg, chatID, text, markup)

	case callback.Data == cbMasterSave && step == wizard.MasterStepConfirm:
		common.AnswerCallback(ctx, b, callback.ID, "")
		m, err := d.Build()
		if err == nil {
			m, err = c.settings.AddMaster(m)
		}
		if err != nil {
			c.states.ClearState(userID)
			common.Report(ctx, b, c.logger, chatID, "add master", err)
			return
		}
		c.states.ClearState(userID)
		c.logger.Info("Master added", zap.Int64("master_id", m.ID), zap.String("name", m.Name))
		common.Edit(ctx, b, c.logger, msg, chatID, fmt.Sprintf("✅ Мастер «%s» добавлен (№%d)", m.Name, m.ID), nil)
		common.Send(ctx, b, c.logger, chatID, mastersView(c.settings.Get()), keyboard.Menu(intent.AdminMenu))

	default:
		common.AnswerCallback(ctx, b, callback.ID, "")
	}
}

// Закрытые даты

func (c *Controller) startCloseDate(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	c.states.Start(userID, state.StateCloseDate)
	common.Send(ctx, b, c.logger, chatID,
		"🚫 Отправьте дату, которую нужно закрыть, и причину через пробел.\nНапример: <code>31.12.2026 праздник</code>",
		keyboard.Menu([][]intent.Intent{{intent.Abort}}))
}

func (c *Controller) handleCloseDateInput(ctx context.Context, b *bot.Bot, msg *models.Message) {
	chatID, userID := msg.Chat.ID, msg.From.ID

	date, reason, err := parseClosedDate(msg.Text)
	if err != nil {
		common.Send(ctx, b, c.logger, chatID, "❌ Не понимаю дату. Формат: 31.12.2026 или 2026-12-31", nil)
		return
	}
	if date < c.today() {
		common.Send(ctx, b, c.logger, chatID, "❌ Эта дата уже прошла", nil)
		return
	}

	if err := c.settings.AddClosedDate(nil, date, reason); err != nil {
		common.Report(ctx, b, c.logger, chatID, "close date", err)
		return
	}
	c.states.ClearState(userID)
	c.logger.Info("Date closed", zap.String("date", date), zap.String("reason", reason))

	text := "🚫 " + formatting.FormatDateWithWeekday(date) + " закрыта для записи."
	active, err := c.reports.ListInRange(ctx, service.RangeFilter{From: date, To: date})
	if err == nil && len(active) > 0 {
		text += fmt.Sprintf("\n⚠️ На эту дату уже есть %d %s, они не отменены.", len(active), formatting.PluralizeBookings(len(active)))
	}
	common.Send(ctx, b, c.logger, chatID, text, keyboard.Menu(intent.AdminMenu))
}

func (c *Controller) showClosedDates(ctx context.Context, b *bot.Bot, chatID int64, msg *models.Message) {
	text, markup := closedDatesView(c.settings.Get(), c.today())
	common.Edit(ctx, b, c.logger, msg, chatID, text, markup)
}

func (c *Controller) handleOpenDate(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	date := strings.TrimPrefix(callback.Data, cbOpenDate)
	if _, err := schedule.ParseDate(date); err != nil {
		common.AnswerCallback(ctx, b, callback.ID, common.ErrorMessage(common.ErrInvalidFormat))
		return
	}

	if err := c.settings.RemoveClosedDate(nil, date); err != nil {
		if !common.IsUserError(err) {
			c.logger.Error("Failed to open date", zap.String("date", date), zap.Error(err))
		}
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "✅ "+formatting.FormatDate(date)+" открыта")
	c.logger.Info("Date opened", zap.String("date", date))
	c.showClosedDates(ctx, b, chatOf(callback), common.GetMessageFromCallback(callback))
}

// weekOffset разбирает смещение недели из callback
func weekOffset(data string) int {
	offset, err := strconv.Atoi(strings.TrimPrefix(data, cbWeek))
	if err != nil {
		return 0
	}
	return offset
}
