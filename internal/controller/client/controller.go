// Package client обработчики клиентского бота: запись, мои записи, отмена и перенос.
package client

import (
	"context"
	"html"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/controller/common"
	"github.com/Freeeeeet/booking_bot/internal/controller/intent"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Controller содержит все зависимости клиентского бота
type Controller struct {
	booking      *service.BookingService
	reports      *service.ReportService
	availability *service.AvailabilityService
	users        *service.UserService
	settings     service.SettingsSource
	states       *state.Manager
	logger       *zap.Logger
}

func NewController(
	booking *service.BookingService,
	reports *service.ReportService,
	availability *service.AvailabilityService,
	users *service.UserService,
	settings service.SettingsSource,
	states *state.Manager,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		booking:      booking,
		reports:      reports,
		availability: availability,
		users:        users,
		settings:     settings,
		states:       states,
		logger:       logger,
	}
}

// Register регистрирует команды и обработчик inline кнопок.
// Остальные сообщения приходят в HandleMessage через bot.WithDefaultHandler.
func (c *Controller) Register(ctx context.Context, b *bot.Bot) error {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypeExact, c.command(intent.Book))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.command(intent.MyBookings))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact, c.command(intent.History))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/contacts", bot.MatchTypeExact, c.command(intent.Contacts))
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.HandleCallback)

	return c.setCommands(ctx, b)
}

// setCommands устанавливает список команд в меню бота
func (c *Controller) setCommands(ctx context.Context, b *bot.Bot) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать"},
		{Command: "book", Description: "📝 Записаться"},
		{Command: "mybookings", Description: "📋 Мои записи"},
		{Command: "history", Description: "🕘 История"},
		{Command: "contacts", Description: "📍 Контакты"},
		{Command: "help", Description: "❓ Справка"},
	}

	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}
	c.logger.Info("Client bot commands menu set")
	return nil
}

// HandleStart регистрирует клиента и показывает главное меню
func (c *Controller) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From
	c.states.ClearState(from.ID)

	user, err := c.users.Register(ctx, service.Profile{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		common.Report(ctx, b, c.logger, update.Message.Chat.ID, "register user", err)
		return
	}

	st := c.settings.Get()
	text := "👋 Здравствуйте, " + user.DisplayName() + "!\n\n" +
		"Это бот записи в <b>" + html.EscapeString(st.Business.Name) + "</b>.\n" +
		"Нажмите «" + intent.Book.Label() + "», чтобы выбрать услугу и время."
	common.Send(ctx, b, c.logger, update.Message.Chat.ID, text, keyboard.Menu(intent.ClientMenu))
}

// HandleHelp обрабатывает команду /help
func (c *Controller) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text := "❓ <b>Справка</b>\n\n" +
		"/book - записаться на услугу\n" +
		"/mybookings - предстоящие записи\n" +
		"/history - история записей\n" +
		"/contacts - адрес и часы работы\n\n" +
		"Отменить запись: <code>отменить #12</code>\n" +
		"Перенести запись: <code>перенести #12</code>"
	common.Send(ctx, b, c.logger, update.Message.Chat.ID, text, keyboard.Menu(intent.ClientMenu))
}

func (c *Controller) command(in intent.Intent) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		c.dispatch(ctx, b, update.Message, in)
	}
}

// HandleMessage обрабатывает текст и контакты: шаги диалога, кнопки меню и команды с номером записи
func (c *Controller) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID := msg.From.ID

	if in := intent.Parse(msg.Text); in != intent.None {
		if in == intent.Abort {
			c.abort(ctx, b, msg.Chat.ID, userID, nil)
			return
		}
		c.dispatch(ctx, b, msg, in)
		return
	}

	switch c.states.GetState(userID) {
	case state.StateBooking, state.StateReschedule:
		c.handleWizardInput(ctx, b, msg)
		return
	}

	if ref, ok := intent.ParseRef(msg.Text); ok {
		switch ref.Intent {
		case intent.CancelBooking:
			c.askCancel(ctx, b, msg.Chat.ID, userID, ref.ID)
		case intent.Reschedule:
			c.startReschedule(ctx, b, msg.Chat.ID, userID, ref.ID, nil)
		default:
			common.Send(ctx, b, c.logger, msg.Chat.ID, "❌ Эта команда доступна только администратору.", nil)
		}
		return
	}

	if strings.HasPrefix(msg.Text, "/") || msg.Text == "" {
		return
	}
	common.Send(ctx, b, c.logger, msg.Chat.ID, "Не понял вас 🙂 Выберите действие в меню или нажмите /help.", keyboard.Menu(intent.ClientMenu))
}

func (c *Controller) dispatch(ctx context.Context, b *bot.Bot, msg *models.Message, in intent.Intent) {
	userID := msg.From.ID
	switch in {
	case intent.Book:
		c.startBooking(ctx, b, msg.Chat.ID, userID)
	case intent.MyBookings:
		c.showBookings(ctx, b, msg.Chat.ID, userID)
	case intent.History:
		c.showHistory(ctx, b, msg.Chat.ID, userID)
	case intent.Contacts:
		common.Send(ctx, b, c.logger, msg.Chat.ID, contactsView(c.settings.Get()), nil)
	default:
		c.HandleHelp(ctx, b, &models.Update{Message: msg})
	}
}

// HandleCallback распределяет нажатия inline кнопок по обработчикам
func (c *Controller) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}
	data := callback.Data

	c.logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch {
	case data == keyboard.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")
	case strings.HasPrefix(data, "bk:"):
		c.handleWizardCallback(ctx, b, callback)
	case strings.HasPrefix(data, cbCancelAsk):
		c.handleCancelAsk(ctx, b, callback)
	case strings.HasPrefix(data, cbCancelDo):
		c.handleCancelDo(ctx, b, callback)
	case strings.HasPrefix(data, cbReschedule):
		c.handleRescheduleStart(ctx, b, callback)
	case data == cbKeep:
		common.AnswerCallback(ctx, b, callback.ID, "Запись сохранена")
		common.Edit(ctx, b, c.logger, common.GetMessageFromCallback(callback), chatOf(callback), "👌 Запись сохранена", nil)
	default:
		c.logger.Warn("Unknown callback", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "")
	}
}

// chatOf чат, из которого пришёл callback
func chatOf(callback *models.CallbackQuery) int64 {
	if msg := common.GetMessageFromCallback(callback); msg != nil {
		return msg.Chat.ID
	}
	return callback.From.ID
}
