// Package bootstrap собирает общие для обоих ботов зависимости:
// базу, миграции, настройки, сервисы и публикацию событий.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Freeeeeet/booking_bot/internal/app"
	"github.com/Freeeeeet/booking_bot/internal/config"
	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/Freeeeeet/booking_bot/internal/settings"
	"go.uber.org/zap"
)

// Core зависимости, общие для клиентского и админ-бота
type Core struct {
	DB           *sql.DB
	Settings     *settings.Store
	Users        *service.UserService
	Booking      *service.BookingService
	Reports      *service.ReportService
	Availability *service.AvailabilityService
	Publisher    events.Publisher

	logger *zap.Logger
}

// Open подключается к базе, применяет миграции и поднимает сервисы.
// Ошибка с app.ErrSchemaFault означает, что с базой работать нельзя.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Core, error) {
	storage := app.StorageConfig{Driver: cfg.DBDriver, DSN: cfg.DBDSN, Path: cfg.DBPath}

	db, err := app.OpenStorage(ctx, storage)
	if err != nil {
		return nil, err
	}

	mg, err := app.NewMigrator(db, storage.Dialect(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := mg.Run(ctx); err != nil {
		db.Close()
		return nil, err
	}

	st, err := settings.Open(cfg.SettingsPath, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open settings: %w", err)
	}
	st.Watch()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQPURL, logger)
		logger.Info("Event publishing enabled", zap.String("queue", events.QueueName))
	} else {
		logger.Info("AMQP_URL not set, events are not published")
	}

	repo := base.NewRepository(db, storage.Dialect())
	reservations := repository.NewReservationRepository(repo)
	users := service.NewUserService(repository.NewUserRepository(repo), logger)
	checker := service.NewChecker(reservations)

	return &Core{
		DB:           db,
		Settings:     st,
		Users:        users,
		Booking:      service.NewBookingService(repo, reservations, users, checker, publisher, st, logger),
		Reports:      service.NewReportService(reservations, users, st, logger),
		Availability: service.NewAvailabilityService(checker, st),
		Publisher:    publisher,
		logger:       logger,
	}, nil
}

// Close освобождает соединения с брокером и базой
func (c *Core) Close() error {
	var errs []error
	if p, ok := c.Publisher.(*events.AMQPPublisher); ok {
		errs = append(errs, p.Close())
	}
	errs = append(errs, c.DB.Close())
	return errors.Join(errs...)
}
