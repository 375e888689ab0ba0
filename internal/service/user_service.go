package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"go.uber.org/zap"
)

// Profile данные Telegram-профиля клиента
type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	Phone      string
}

type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Register регистрирует или обновляет пользователя
func (s *UserService) Register(ctx context.Context, p Profile) (*model.User, error) {
	user := &model.User{
		TelegramID: p.TelegramID,
		Username:   p.Username,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Phone:      p.Phone,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Debug("User registered",
		zap.Int64("telegram_id", p.TelegramID),
		zap.String("username", p.Username),
	)
	return user, nil
}

// GetByTelegramID возвращает профиль или nil, если клиент ещё не записывался
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// CountNew число новых клиентов в [from, to)
func (s *UserService) CountNew(ctx context.Context, from, to time.Time) (int64, error) {
	return s.userRepo.CountCreatedBetween(ctx, from, to)
}
