package client

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/controller/common"
	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/Freeeeeet/booking_bot/internal/controller/intent"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// stepFor шаг, на котором действует кнопка с данным callback
var stepFor = []struct {
	prefix string
	step   wizard.Step
}{
	{cbCategory, wizard.StepCategory},
	{cbService, wizard.StepService},
	{cbMaster, wizard.StepMaster},
	{cbDatePage, wizard.StepDate},
	{cbDate, wizard.StepDate},
	{cbTime, wizard.StepTime},
	{cbSkip, wizard.StepComment},
	{cbConfirm, wizard.StepConfirm},
}

// dialog загружает шаг и копию черновика текущего диалога записи
func (c *Controller) dialog(userID int64) (wizard.Step, wizard.BookingDraft, bool) {
	switch c.states.GetState(userID) {
	case state.StateBooking, state.StateReschedule:
	default:
		return wizard.StepNone, wizard.BookingDraft{}, false
	}
	stepValue, _ := c.states.GetData(userID, state.KeyStep)
	draftValue, _ := c.states.GetData(userID, state.KeyDraft)
	step, ok := stepValue.(wizard.Step)
	if !ok {
		return wizard.StepNone, wizard.BookingDraft{}, false
	}
	d, ok := draftValue.(wizard.BookingDraft)
	return step, d, ok
}

func (c *Controller) save(userID int64, step wizard.Step, d wizard.BookingDraft) {
	c.states.SetData(userID, state.KeyStep, step)
	c.states.SetData(userID, state.KeyDraft, d)
}

func (c *Controller) flow(st *settings.Settings, d *wizard.BookingDraft) wizard.Flow {
	f := wizard.FlowFor(st)
	f.Reschedule = d.RescheduleID != 0
	return f
}

// skippable шаг выбора мастера пропускается, если услугу не оказывает ни один мастер
func skippable(st *settings.Settings, step wizard.Step, d *wizard.BookingDraft) bool {
	return step == wizard.StepMaster && len(st.MastersFor(d.ServiceID)) == 0
}

func (c *Controller) startBooking(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	st := c.settings.Get()
	d := wizard.BookingDraft{}
	f := c.flow(st, &d)

	c.states.Start(userID, state.StateBooking)
	c.logger.Info("Booking dialog started", zap.Int64("telegram_id", userID))
	c.show(ctx, b, chatID, nil, userID, wizard.First(f), d, 0)
}

// show сохраняет шаг и отрисовывает его: редактирует msg или отправляет новое сообщение
func (c *Controller) show(ctx context.Context, b *bot.Bot, chatID int64, msg *models.Message, userID int64, step wizard.Step, d wizard.BookingDraft, page int) {
	st := c.settings.Get()
	f := c.flow(st, &d)

	for skippable(st, step, &d) {
		d.SetMaster(nil)
		step = wizard.Advance(step, f)
	}
	c.save(userID, step, d)

	var (
		text   string
		markup *models.InlineKeyboardMarkup
	)
	switch step {
	case wizard.StepCategory:
		text, markup = categoryView(st, f)
	case wizard.StepService:
		text, markup = serviceView(st, &d, f)
	case wizard.StepMaster:
		text, markup = masterView(st.MastersFor(d.ServiceID), f)
	case wizard.StepDate:
		dates, err := c.availability.AvailableDates(ctx, d.MasterID, d.Duration)
		if err != nil {
			c.fail(ctx, b, chatID, userID, "load available dates", err)
			return
		}
		text, markup = dateView(dates, page, f)
	case wizard.StepTime:
		times, err := c.freeTimes(ctx, &d)
		if err != nil {
			c.fail(ctx, b, chatID, userID, "load available slots", err)
			return
		}
		text, markup = timeView(d.Date, times, f)
	case wizard.StepPhone:
		text, _ = promptView(step, f)
		common.Send(ctx, b, c.logger, chatID, text, keyboard.ContactRequest())
		return
	case wizard.StepName, wizard.StepComment:
		text, markup = promptView(step, f)
	case wizard.StepConfirm:
		text, markup = confirmView(&d, f)
	default:
		c.states.ClearState(userID)
		return
	}
	common.Edit(ctx, b, c.logger, msg, chatID, text, markup)
}

func (c *Controller) freeTimes(ctx context.Context, d *wizard.BookingDraft) ([]string, error) {
	slots, err := c.availability.AvailableSlots(ctx, service.AvailableQuery{
		Date:            d.Date,
		MasterID:        d.MasterID,
		ServiceDuration: d.Duration,
	})
	if err != nil {
		return nil, err
	}
	var times []string
	for clock := range slots {
		times = append(times, clock.String())
	}
	return times, nil
}

// pickTime ставит время в черновик, только если оно есть среди свободных слотов
func (c *Controller) pickTime(ctx context.Context, d *wizard.BookingDraft, clock string) error {
	offered, err := c.availability.Offered(ctx, service.AvailableQuery{
		Date:            d.Date,
		MasterID:        d.MasterID,
		ServiceDuration: d.Duration,
	}, clock)
	if err != nil {
		return err
	}
	if !offered {
		return service.ErrSlotUnavailable
	}
	return d.SetTime(clock)
}

// fail завершает диалог после неожиданной ошибки
func (c *Controller) fail(ctx context.Context, b *bot.Bot, chatID, userID int64, operation string, err error) {
	c.states.ClearState(userID)
	common.Report(ctx, b, c.logger, chatID, operation, err)
}

func (c *Controller) abort(ctx context.Context, b *bot.Bot, chatID, userID int64, msg *models.Message) {
	c.states.ClearState(userID)
	if msg != nil {
		common.Edit(ctx, b, c.logger, msg, chatID, "Запись отменена. Возвращайтесь, когда будет удобно 🙂", nil)
	}
	common.Send(ctx, b, c.logger, chatID, "Главное меню", keyboard.Menu(intent.ClientMenu))
}

// handleWizardInput принимает текст и контакт на шагах ввода имени, телефона и комментария
func (c *Controller) handleWizardInput(ctx context.Context, b *bot.Bot, msg *models.Message) {
	userID := msg.From.ID
	step, d, ok := c.dialog(userID)
	if !ok {
		common.Send(ctx, b, c.logger, msg.Chat.ID, common.ErrorMessage(common.ErrDialogExpired), keyboard.Menu(intent.ClientMenu))
		return
	}

	var err error
	switch step {
	case wizard.StepName:
		err = d.SetName(msg.Text)
	case wizard.StepPhone:
		phone := msg.Text
		if msg.Contact != nil {
			phone = msg.Contact.PhoneNumber
		}
		err = d.SetPhone(phone)
		if err == nil {
			common.Send(ctx, b, c.logger, msg.Chat.ID, "📱 Номер сохранён", keyboard.Menu(intent.ClientMenu))
		}
	case wizard.StepComment:
		err = d.SetComment(msg.Text)
	default:
		common.Send(ctx, b, c.logger, msg.Chat.ID, "👆 Выберите вариант кнопками выше или нажмите «Отмена».", nil)
		return
	}
	if err != nil {
		common.Send(ctx, b, c.logger, msg.Chat.ID, common.ErrorMessage(err), nil)
		return
	}

	f := c.flow(c.settings.Get(), &d)
	c.show(ctx, b, msg.Chat.ID, nil, userID, wizard.Advance(step, f), d, 0)
}

// handleWizardCallback обрабатывает кнопки мастера записи
func (c *Controller) handleWizardCallback(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	userID := callback.From.ID
	chatID := chatOf(callback)
	msg := common.GetMessageFromCallback(callback)
	data := callback.Data

	step, d, ok := c.dialog(userID)
	if !ok {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(common.ErrDialogExpired))
		return
	}
	if data == cbAbort {
		common.AnswerCallback(ctx, b, callback.ID, "")
		c.abort(ctx, b, chatID, userID, msg)
		return
	}

	st := c.settings.Get()
	f := c.flow(st, &d)

	if data == cbBack {
		common.AnswerCallback(ctx, b, callback.ID, "")
		prev := wizard.Back(step, f)
		for skippable(st, prev, &d) {
			prev = wizard.Back(prev, f)
		}
		if prev == wizard.StepNone {
			c.abort(ctx, b, chatID, userID, msg)
			return
		}
		c.show(ctx, b, chatID, msg, userID, prev, d, 0)
		return
	}

	for _, sf := range stepFor {
		if strings.HasPrefix(data, sf.prefix) && sf.step != step {
			common.AnswerCallbackAlert(ctx, b, callback.ID, "Эта кнопка уже неактуальна")
			return
		}
	}

	var err error
	switch {
	case strings.HasPrefix(data, cbCategory):
		var idx int
		idx, err = strconv.Atoi(strings.TrimPrefix(data, cbCategory))
		categories := st.Categories()
		if err != nil || idx < 0 || idx >= len(categories) {
			err = common.ErrInvalidFormat
			break
		}
		d.SetCategory(categories[idx])
	case strings.HasPrefix(data, cbService):
		svc, found := st.Service(strings.TrimPrefix(data, cbService))
		if !found {
			err = service.ErrInvalidSlot
			break
		}
		d.SetService(svc)
	case strings.HasPrefix(data, cbMaster):
		var id int64
		id, err = strconv.ParseInt(strings.TrimPrefix(data, cbMaster), 10, 64)
		if err != nil {
			err = common.ErrInvalidFormat
			break
		}
		if id == 0 {
			d.SetMaster(nil)
			break
		}
		m, found := st.Master(id)
		if !found {
			err = settings.ErrMasterNotFound
			break
		}
		d.SetMaster(&m)
	case strings.HasPrefix(data, cbDatePage):
		page, convErr := strconv.Atoi(strings.TrimPrefix(data, cbDatePage))
		if convErr != nil {
			page = 0
		}
		common.AnswerCallback(ctx, b, callback.ID, "")
		c.show(ctx, b, chatID, msg, userID, step, d, page)
		return
	case strings.HasPrefix(data, cbDate):
		err = d.SetDate(strings.TrimPrefix(data, cbDate))
	case strings.HasPrefix(data, cbTime):
		err = c.pickTime(ctx, &d, strings.TrimPrefix(data, cbTime))
	case data == cbSkip:
		err = d.SetComment("")
	case data == cbConfirm:
		common.AnswerCallback(ctx, b, callback.ID, "")
		c.confirm(ctx, b, callback, d)
		return
	default:
		err = common.ErrInvalidFormat
	}
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		// Клавиатура со временем устарела, показываем актуальную
		if errors.Is(err, service.ErrSlotUnavailable) {
			c.show(ctx, b, chatID, msg, userID, wizard.StepTime, d, 0)
		}
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, "")
	c.show(ctx, b, chatID, msg, userID, wizard.Advance(step, f), d, 0)
}

// confirm создаёт или переносит запись по готовому черновику
func (c *Controller) confirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, d wizard.BookingDraft) {
	userID := callback.From.ID
	chatID := chatOf(callback)
	msg := common.GetMessageFromCallback(callback)
	st := c.settings.Get()
	f := c.flow(st, &d)

	if missing := d.Missing(f); missing != wizard.StepConfirm {
		c.show(ctx, b, chatID, msg, userID, missing, d, 0)
		return
	}

	var (
		res *model.Reservation
		err error
	)
	// Пока клиент заполнял анкету, время могло пройти или выпасть из графика
	if d.Time != "" {
		err = c.pickTime(ctx, &d, d.Time)
	}
	if err == nil {
		if d.RescheduleID != 0 {
			res, err = c.booking.Reschedule(ctx, d.RescheduleID, d.Date, d.Time)
		} else {
			from := callback.From
			res, err = c.booking.Create(ctx, d.Request(from.ID, from.Username, from.FirstName, from.LastName))
		}
	}

	switch {
	case errors.Is(err, service.ErrSlotTaken), errors.Is(err, service.ErrSlotUnavailable), errors.Is(err, service.ErrInvalidSlot):
		common.Send(ctx, b, c.logger, chatID, common.ErrorMessage(err), nil)
		d.Time = ""
		c.show(ctx, b, chatID, nil, userID, wizard.StepTime, d, 0)
		return
	case err != nil:
		c.fail(ctx, b, chatID, userID, "confirm booking", err)
		return
	}

	c.states.ClearState(userID)
	title := "✅ <b>Вы записаны!</b>"
	if d.RescheduleID != 0 {
		title = "✅ <b>Запись перенесена</b>"
	}
	common.Edit(ctx, b, c.logger, msg, chatID, title+"\n\n"+formatting.FormatReservation(res, masterName(st, res.MasterID)), nil)
}

func masterName(st *settings.Settings, id *int64) string {
	if id == nil {
		return ""
	}
	if m, ok := st.Master(*id); ok {
		return m.Name
	}
	return ""
}
