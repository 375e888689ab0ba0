package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/booking_bot/internal/controller/formatting"
	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender часть *bot.Bot, нужная для уведомлений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier пересылает события записей в чаты администраторов
type Notifier struct {
	sender MessageSender
	chats  func() []int64
	logger *zap.Logger
}

func NewNotifier(sender MessageSender, chats func() []int64, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, chats: chats, logger: logger}
}

// Handle отправляет уведомление во все чаты. Ошибки по отдельным чатам объединяются.
func (n *Notifier) Handle(ctx context.Context, ev events.Event) error {
	chats := n.chats()
	if len(chats) == 0 {
		n.logger.Debug("No admin chats for event", zap.String("type", string(ev.Type)))
		return nil
	}

	text := formatting.FormatEvent(ev)
	var errs []error
	for _, chatID := range chats {
		_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notify chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}
