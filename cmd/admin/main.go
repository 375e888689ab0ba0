package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/app"
	"github.com/Freeeeeet/booking_bot/internal/auth"
	"github.com/Freeeeeet/booking_bot/internal/bootstrap"
	"github.com/Freeeeeet/booking_bot/internal/config"
	"github.com/Freeeeeet/booking_bot/internal/controller/admin"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/Freeeeeet/booking_bot/internal/events"
	"github.com/Freeeeeet/booking_bot/internal/httpapi"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func main() {
	hashPIN := flag.String("hash-pin", "", "print bcrypt hash of the PIN for ADMIN_PIN_HASH and exit")
	flag.Parse()

	if *hashPIN != "" {
		hash, err := auth.HashPIN(*hashPIN)
		if err != nil {
			log.Fatalf("Failed to hash PIN: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogPath)
	if err := run(cfg, logger); err != nil {
		if errors.Is(err, app.ErrSchemaFault) {
			logger.Error("Database schema fault, refusing to start", zap.Error(err))
		} else {
			logger.Error("Admin bot failed", zap.Error(err))
		}
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run поднимает админ-бота, HTTP выгрузку и подписчика событий
func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.RequireAdminBot(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Sugar().Infow("Starting admin bot",
		"environment", cfg.Environment,
		"db_driver", cfg.DBDriver,
		"admins", len(cfg.AdminIDs))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer core.Close()

	var store auth.Store = auth.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		store = auth.NewRedisStore(client, "booking")
		logger.Info("Admin sessions stored in Redis", zap.String("addr", cfg.RedisAddr))
	}
	guard := auth.NewGuard(store, cfg.AdminPINHash, auth.DefaultPolicy())

	states := state.NewManager(cfg.SessionTTL)
	go states.RunJanitor(ctx, time.Minute, logger)

	links := httpapi.NewLinkSigner(cfg.ExportSecret, httpapi.DefaultLinkTTL)
	lookback := time.Duration(cfg.ExportDays) * 24 * time.Hour

	ctrl := admin.NewController(
		core.Booking,
		core.Reports,
		core.Settings,
		guard,
		links,
		states,
		admin.Options{
			IsAdmin:    cfg.IsAdmin,
			AdminIDs:   cfg.AdminIDs,
			PublicURL:  cfg.PublicURL,
			ExportDays: cfg.ExportDays,
		},
		logger,
	)

	b, err := bot.New(cfg.AdminTelegramToken,
		bot.WithDefaultHandler(ctrl.HandleMessage),
		bot.WithMiddlewares(ctrl.Middleware),
	)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	if err := ctrl.Register(ctx, b); err != nil {
		logger.Warn("Bot started without commands menu", zap.Error(err))
	}

	if cfg.AMQPURL != "" {
		notifier := admin.NewNotifier(b, ctrl.NotifyChats, logger)
		go func() {
			if err := events.Consume(ctx, cfg.AMQPURL, notifier.Handle, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumer failed", zap.Error(err))
			}
		}()
	}

	server := httpapi.NewServer(cfg.HTTPAddr, core.Reports, links, lookback, logger)
	go func() {
		if err := server.Run(ctx); err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("Admin bot started")
	b.Start(ctx)
	logger.Info("Admin bot stopped")
	return nil
}
