// Package admin обработчики админ-бота: вход по PIN, расписание, статистика,
// выгрузка, мастера и закрытые даты.
package admin

import (
	"context"
	"html"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/auth"
	"github.com/Freeeeeet/booking_bot/internal/controller/common"
	"github.com/Freeeeeet/booking_bot/internal/controller/intent"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// SettingsEditor настройки салона с правкой из админ-бота
type SettingsEditor interface {
	Get() *settings.Settings
	AddMaster(m settings.Master) (settings.Master, error)
	AddClosedDate(masterID *int64, date, reason string) error
	RemoveClosedDate(masterID *int64, date string) error
}

// LinkIssuer выпускает подписанный токен ссылки на выгрузку
type LinkIssuer interface {
	Issue(now time.Time) (string, error)
}

type Options struct {
	IsAdmin    func(telegramID int64) bool
	AdminIDs   []int64
	PublicURL  string
	ExportDays int
}

// Controller содержит все зависимости админ-бота
type Controller struct {
	booking  *service.BookingService
	reports  *service.ReportService
	settings SettingsEditor
	guard    *auth.Guard
	links    LinkIssuer
	states   *state.Manager
	opts     Options
	logger   *zap.Logger
	now      func() time.Time

	chatsMu sync.RWMutex
	chats   map[int64]bool // чаты вошедших администраторов
}

func NewController(
	booking *service.BookingService,
	reports *service.ReportService,
	settings SettingsEditor,
	guard *auth.Guard,
	links LinkIssuer,
	states *state.Manager,
	opts Options,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		booking:  booking,
		reports:  reports,
		settings: settings,
		guard:    guard,
		links:    links,
		states:   states,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		chats:    make(map[int64]bool),
	}
}

// Register регистрирует команды и обработчик inline кнопок.
// Остальные сообщения приходят в HandleMessage через bot.WithDefaultHandler.
func (c *Controller) Register(ctx context.Context, b *bot.Bot) error {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/today", bot.MatchTypeExact, c.command(intent.Today))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, c.command(intent.Week))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypeExact, c.command(intent.Stats))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypeExact, c.command(intent.Export))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypeExact, c.command(intent.Logout))
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.HandleCallback)

	commands := []models.BotCommand{
		{Command: "start", Description: "🏠 Главное меню"},
		{Command: "today", Description: "📅 Записи на сегодня"},
		{Command: "week", Description: "🗓 Неделя"},
		{Command: "stats", Description: "📊 Статистика"},
		{Command: "export", Description: "📤 Выгрузка CSV"},
		{Command: "logout", Description: "🚪 Выйти"},
	}
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}
	c.logger.Info("Admin bot commands menu set")
	return nil
}

// sender пользователь и чат обновления
func sender(update *models.Update) (userID, chatID int64, ok bool) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, update.Message.Chat.ID, true
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, chatOf(update.CallbackQuery), true
	}
	return 0, 0, false
}

// Middleware пропускает к обработчикам только администраторов с активной сессией.
// Остальным предлагает ввести PIN.
func (c *Controller) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		userID, chatID, ok := sender(update)
		if !ok {
			return
		}

		if c.opts.IsAdmin != nil && !c.opts.IsAdmin(userID) {
			c.logger.Warn("Access denied", zap.Int64("telegram_id", userID))
			if update.CallbackQuery != nil {
				common.AnswerCallbackAlert(ctx, b, update.CallbackQuery.ID, "⛔ Нет доступа")
				return
			}
			common.Send(ctx, b, c.logger, chatID, "⛔ Нет доступа", nil)
			return
		}

		authorized, err := c.guard.IsAuthorized(ctx, userID)
		if err != nil {
			common.Report(ctx, b, c.logger, chatID, "check session", err)
			return
		}
		if authorized {
			c.rememberChat(chatID)
			next(ctx, b, update)
			return
		}

		if update.CallbackQuery != nil {
			common.AnswerCallbackAlert(ctx, b, update.CallbackQuery.ID, "🔒 Сессия истекла. Введите PIN.")
			c.promptLogin(ctx, b, chatID, userID)
			return
		}
		if c.states.GetState(userID) == state.StateLogin && update.Message.Text != "" && !strings.HasPrefix(update.Message.Text, "/") {
			c.login(ctx, b, update.Message)
			return
		}
		c.promptLogin(ctx, b, chatID, userID)
	}
}

func (c *Controller) promptLogin(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	c.states.Start(userID, state.StateLogin)
	common.Send(ctx, b, c.logger, chatID, "🔒 Введите PIN администратора:", &models.ReplyKeyboardRemove{RemoveKeyboard: true})
}

func (c *Controller) login(ctx context.Context, b *bot.Bot, msg *models.Message) {
	userID := msg.From.ID

	// PIN не должен оставаться в истории чата
	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: msg.ID}); err != nil {
		c.logger.Debug("Failed to delete PIN message", zap.Error(err))
	}

	res, err := c.guard.Login(ctx, userID, strings.TrimSpace(msg.Text))
	if err != nil {
		text := common.ErrorMessage(err)
		switch {
		case !res.LockedUntil.IsZero():
			text += "\nВход заблокирован до " + res.LockedUntil.In(c.settings.Get().Location()).Format("15:04")
		case res.Remaining > 0:
			text += "\nОсталось попыток: " + strconv.Itoa(res.Remaining)
		}
		if !common.IsUserError(err) {
			c.logger.Error("Login failed", zap.Int64("telegram_id", userID), zap.Error(err))
		}
		common.Send(ctx, b, c.logger, msg.Chat.ID, text, nil)
		return
	}

	c.states.ClearState(userID)
	c.rememberChat(msg.Chat.ID)
	c.logger.Info("Admin logged in", zap.Int64("telegram_id", userID))
	common.Send(ctx, b, c.logger, msg.Chat.ID, "✅ Добро пожаловать!", keyboard.Menu(intent.AdminMenu))
}

func (c *Controller) rememberChat(chatID int64) {
	c.chatsMu.Lock()
	c.chats[chatID] = true
	c.chatsMu.Unlock()
}

func (c *Controller) forgetChat(chatID int64) {
	c.chatsMu.Lock()
	delete(c.chats, chatID)
	c.chatsMu.Unlock()
}

// NotifyChats чаты для уведомлений: заданные администраторы или вошедшие в этом процессе
func (c *Controller) NotifyChats() []int64 {
	if len(c.opts.AdminIDs) > 0 {
		return slices.Clone(c.opts.AdminIDs)
	}
	c.chatsMu.RLock()
	defer c.chatsMu.RUnlock()
	out := make([]int64, 0, len(c.chats))
	for id := range c.chats {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// HandleStart показывает главное меню
func (c *Controller) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.states.ClearState(update.Message.From.ID)
	text := "🏠 <b>" + html.EscapeString(c.settings.Get().Business.Name) + "</b>: панель администратора\n\n" +
		"Команды записи: <code>завершить #12</code>, <code>отменить #12</code>"
	common.Send(ctx, b, c.logger, update.Message.Chat.ID, text, keyboard.Menu(intent.AdminMenu))
}

func (c *Controller) command(in intent.Intent) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		c.dispatch(ctx, b, update.Message, in)
	}
}

// HandleMessage обрабатывает кнопки меню, шаги диалогов и команды с номером записи
func (c *Controller) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID := msg.From.ID

	if in := intent.Parse(msg.Text); in != intent.None {
		c.dispatch(ctx, b, msg, in)
		return
	}

	switch c.states.GetState(userID) {
	case state.StateAddMaster:
		c.handleMasterInput(ctx, b, msg)
		return
	case state.StateCloseDate:
		c.handleCloseDateInput(ctx, b, msg)
		return
	}

	if ref, ok := intent.ParseRef(msg.Text); ok {
		switch ref.Intent {
		case intent.Complete:
			c.complete(ctx, b, msg.Chat.ID, ref.ID)
		case intent.CancelBooking:
			c.cancel(ctx, b, msg.Chat.ID, ref.ID)
		default:
			common.Send(ctx, b, c.logger, msg.Chat.ID, "Перенос делает клиент в своём боте.", nil)
		}
		return
	}

	if msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return
	}
	common.Send(ctx, b, c.logger, msg.Chat.ID, "Выберите действие в меню.", keyboard.Menu(intent.AdminMenu))
}

func (c *Controller) dispatch(ctx context.Context, b *bot.Bot, msg *models.Message, in intent.Intent) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	switch in {
	case intent.Today:
		c.showToday(ctx, b, chatID)
	case intent.Week:
		c.showWeek(ctx, b, chatID, nil, 0)
	case intent.Stats:
		common.Send(ctx, b, c.logger, chatID, "📊 За какой период?", statsKeyboard())
	case intent.Export:
		c.sendExport(ctx, b, chatID)
	case intent.ExportLink:
		c.sendExportLink(ctx, b, chatID)
	case intent.Masters:
		common.Send(ctx, b, c.logger, chatID, mastersView(c.settings.Get()), nil)
	case intent.AddMaster:
		c.startAddMaster(ctx, b, chatID, userID)
	case intent.CloseDate:
		c.startCloseDate(ctx, b, chatID, userID)
	case intent.OpenDate:
		c.showClosedDates(ctx, b, chatID, nil)
	case intent.Logout:
		c.logout(ctx, b, chatID, userID)
	case intent.Abort:
		c.states.ClearState(userID)
		common.Send(ctx, b, c.logger, chatID, "Действие отменено.", keyboard.Menu(intent.AdminMenu))
	default:
		common.Send(ctx, b, c.logger, chatID, "Выберите действие в меню.", keyboard.Menu(intent.AdminMenu))
	}
}

// HandleCallback распределяет нажатия inline кнопок по обработчикам
func (c *Controller) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}
	data := callback.Data
	chatID := chatOf(callback)
	msg := common.GetMessageFromCallback(callback)

	c.logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch {
	case data == keyboard.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")
	case strings.HasPrefix(data, cbComplete):
		c.handleReservationAction(ctx, b, callback, cbComplete)
	case strings.HasPrefix(data, cbCancel):
		c.handleReservationAction(ctx, b, callback, cbCancel)
	case strings.HasPrefix(data, cbStats):
		common.AnswerCallback(ctx, b, callback.ID, "")
		c.showStats(ctx, b, chatID, msg, service.PeriodKind(strings.TrimPrefix(data, cbStats)))
	case strings.HasPrefix(data, cbWeek):
		common.AnswerCallback(ctx, b, callback.ID, "")
		c.showWeek(ctx, b, chatID, msg, weekOffset(data))
	case strings.HasPrefix(data, cbOpenDate):
		c.handleOpenDate(ctx, b, callback)
	case strings.HasPrefix(data, cbToggleSvc), data == cbServicesOK, data == cbMasterSave:
		c.handleMasterCallback(ctx, b, callback)
	case data == cbAbort:
		common.AnswerCallback(ctx, b, callback.ID, "")
		c.states.ClearState(callback.From.ID)
		common.Edit(ctx, b, c.logger, msg, chatID, "Действие отменено.", nil)
	default:
		c.logger.Warn("Unknown callback", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "")
	}
}

func (c *Controller) logout(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	c.states.ClearState(userID)
	if err := c.guard.Logout(ctx, userID); err != nil {
		common.Report(ctx, b, c.logger, chatID, "logout", err)
		return
	}
	c.forgetChat(chatID)
	c.logger.Info("Admin logged out", zap.Int64("telegram_id", userID))
	common.Send(ctx, b, c.logger, chatID, "🚪 Вы вышли. Для входа отправьте /start.", &models.ReplyKeyboardRemove{RemoveKeyboard: true})
}

// chatOf чат, из которого пришёл callback
func chatOf(callback *models.CallbackQuery) int64 {
	if msg := common.GetMessageFromCallback(callback); msg != nil {
		return msg.Chat.ID
	}
	return callback.From.ID
}
