package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/settings"
	"go.uber.org/zap"
)

// DefaultCompleteInterval период автозавершения прошедших визитов
const DefaultCompleteInterval = 15 * time.Minute

// Completer отмечает прошедшие активные записи как завершённые
type Completer interface {
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

// FeatureSource текущие настройки салона
type FeatureSource interface {
	Get() *settings.Settings
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer Completer
	settings  FeatureSource
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	startOnce sync.Once
	started   atomic.Bool
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(completer Completer, settings FeatureSource, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultCompleteInterval
	}
	return &Scheduler{
		completer: completer,
		settings:  settings,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи. Повторный вызов ничего не делает.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
		s.started.Store(true)
		go s.runCompletionTask(ctx)
	})
}

// Stop останавливает фоновые задачи и ждёт их завершения.
// Без предшествующего Start возвращается сразу.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

// runCompletionTask периодически завершает прошедшие визиты
func (s *Scheduler) runCompletionTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.completePast(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completePast(ctx)
		case <-s.stopChan:
			s.logger.Info("Completion task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Completion task cancelled")
			return
		}
	}
}

// completePast выполняет один проход. Флаг auto_complete читается каждый раз,
// поэтому правка настроек действует без перезапуска.
func (s *Scheduler) completePast(ctx context.Context) int64 {
	if !s.settings.Get().Features.AutoComplete {
		return 0
	}

	n, err := s.completer.CompletePast(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to complete past reservations", zap.Error(err))
		return 0
	}
	return n
}
