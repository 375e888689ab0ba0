package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/booking_bot/internal/controller/common"
	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (c *Controller) showBookings(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	list, err := c.reports.ListForOwner(ctx, userID, true)
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "list bookings", err)
		return
	}
	text, markup := bookingsView(list)
	if markup == nil {
		common.Send(ctx, b, c.logger, chatID, text, nil)
		return
	}
	common.Send(ctx, b, c.logger, chatID, text, markup)
}

func (c *Controller) showHistory(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	list, err := c.reports.ListForOwner(ctx, userID, false)
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "list history", err)
		return
	}
	common.Send(ctx, b, c.logger, chatID, historyView(list), nil)
}

// activeOwned запись клиента, которую ещё можно изменить
func (c *Controller) activeOwned(ctx context.Context, id, userID int64) (*model.Reservation, error) {
	res, err := c.reports.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !res.IsActive() {
		return nil, service.ErrNotActive
	}
	return res, nil
}

// askCancel показывает запись и просит подтвердить отмену
func (c *Controller) askCancel(ctx context.Context, b *bot.Bot, chatID, userID, id int64) {
	res, err := c.activeOwned(ctx, id, userID)
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "load reservation", err)
		return
	}
	text := "Отменить эту запись?\n\n" + formatting.FormatReservation(res, masterName(c.settings.Get(), res.MasterID))
	markup := keyboard.NewBuilder().
		AddRows(keyboard.YesNoButtons(cbCancelDo+strconv.FormatInt(id, 10), cbKeep)).
		Build()
	common.Send(ctx, b, c.logger, chatID, text, markup)
}

func (c *Controller) handleCancelAsk(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	id, err := common.ParseIDFromCallback(callback.Data, cbCancelAsk)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
	c.askCancel(ctx, b, chatOf(callback), callback.From.ID, id)
}

func (c *Controller) handleCancelDo(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	userID := callback.From.ID
	id, err := common.ParseIDFromCallback(callback.Data, cbCancelDo)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	if _, err := c.reports.GetOwned(ctx, id, userID); err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}
	if err := c.booking.Cancel(ctx, id); err != nil {
		if !common.IsUserError(err) {
			c.logger.Error("Failed to cancel reservation", zap.Int64("reservation_id", id), zap.Error(err))
		}
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	c.logger.Info("Reservation cancelled by client",
		zap.Int64("telegram_id", userID),
		zap.Int64("reservation_id", id))
	common.AnswerCallback(ctx, b, callback.ID, "Запись отменена")
	common.Edit(ctx, b, c.logger, common.GetMessageFromCallback(callback), chatOf(callback),
		fmt.Sprintf("✅ Запись #%d отменена. Будем ждать вас снова!", id), nil)
}

func (c *Controller) handleRescheduleStart(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	id, err := common.ParseIDFromCallback(callback.Data, cbReschedule)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
	c.startReschedule(ctx, b, chatOf(callback), callback.From.ID, id, nil)
}

// startReschedule начинает диалог переноса: выбор новой даты и времени
func (c *Controller) startReschedule(ctx context.Context, b *bot.Bot, chatID, userID, id int64, msg *models.Message) {
	res, err := c.activeOwned(ctx, id, userID)
	if err != nil {
		common.Report(ctx, b, c.logger, chatID, "load reservation", err)
		return
	}

	st := c.settings.Get()
	d := wizard.BookingDraft{
		RescheduleID: res.ID,
		ServiceID:    res.ServiceID,
		ServiceName:  res.ServiceName,
		Price:        res.Price,
		MasterID:     res.MasterID,
		MasterName:   masterName(st, res.MasterID),
	}
	if svc, ok := st.Service(res.ServiceID); ok {
		d.Duration = svc.Duration
	}

	c.states.Start(userID, state.StateReschedule)
	c.logger.Info("Reschedule dialog started",
		zap.Int64("telegram_id", userID),
		zap.Int64("reservation_id", id))
	c.show(ctx, b, chatID, msg, userID, wizard.First(c.flow(st, &d)), d, 0)
}
