package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/app"
	"github.com/Freeeeeet/booking_bot/internal/bootstrap"
	"github.com/Freeeeeet/booking_bot/internal/config"
	"github.com/Freeeeeet/booking_bot/internal/controller/client"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogPath)
	if err := run(cfg, logger); err != nil {
		if errors.Is(err, app.ErrSchemaFault) {
			logger.Error("Database schema fault, refusing to start", zap.Error(err))
		} else {
			logger.Error("Booking bot failed", zap.Error(err))
		}
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run поднимает бота и блокируется до сигнала остановки.
// Все отложенные закрытия выполняются до возврата ошибки в main.
func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.RequireClientBot(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Sugar().Infow("Starting booking bot",
		"environment", cfg.Environment,
		"db_driver", cfg.DBDriver,
		"token_length", len(cfg.TelegramToken))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer core.Close()

	states := state.NewManager(cfg.SessionTTL)
	go states.RunJanitor(ctx, time.Minute, logger)

	ctrl := client.NewController(
		core.Booking,
		core.Reports,
		core.Availability,
		core.Users,
		core.Settings,
		states,
		logger,
	)

	b, err := bot.New(cfg.TelegramToken, bot.WithDefaultHandler(ctrl.HandleMessage))
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	if err := ctrl.Register(ctx, b); err != nil {
		logger.Warn("Bot started without commands menu", zap.Error(err))
	}

	scheduler := app.NewScheduler(core.Booking, core.Settings, app.DefaultCompleteInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("Booking bot started")
	b.Start(ctx)
	logger.Info("Booking bot stopped")
	return nil
}
