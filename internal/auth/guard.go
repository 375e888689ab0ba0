// Package auth проверяет PIN администратора и ограничивает попытки ввода.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWrongPIN = errors.New("wrong pin")
	ErrLocked   = errors.New("too many attempts")
)

// Attempts состояние попыток одного пользователя
type Attempts struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
	LockedUntil time.Time `json:"locked_until"`
	Lockouts    int       `json:"lockouts"` // блокировок подряд, от него растёт длительность
}

// Store хранит попытки и сессии. Реализация в Redis позволяет
// нескольким экземплярам админ-бота делить состояние.
type Store interface {
	GetAttempts(ctx context.Context, userID int64) (Attempts, error)
	SetAttempts(ctx context.Context, userID int64, a Attempts, ttl time.Duration) error
	ResetAttempts(ctx context.Context, userID int64) error
	SetSession(ctx context.Context, userID int64, ttl time.Duration) error
	HasSession(ctx context.Context, userID int64) (bool, error)
	DeleteSession(ctx context.Context, userID int64) error
}

// Policy параметры ограничения попыток
type Policy struct {
	MaxAttempts int           // ошибок в окне до блокировки
	Window      time.Duration // окно подсчёта ошибок
	BaseLockout time.Duration // первая блокировка, дальше удваивается
	MaxLockout  time.Duration
	SessionTTL  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Window:      5 * time.Minute,
		BaseLockout: time.Minute,
		MaxLockout:  time.Hour,
		SessionTTL:  12 * time.Hour,
	}
}

// Result итог попытки входа
type Result struct {
	Remaining   int       // попыток до блокировки
	LockedUntil time.Time // ненулевое, если пользователь заблокирован
}

// Guard проверяет PIN с учётом ограничения попыток
type Guard struct {
	store   Store
	pinHash []byte
	policy  Policy
	now     func() time.Time
}

func NewGuard(store Store, pinHash string, policy Policy) *Guard {
	return &Guard{
		store:   store,
		pinHash: []byte(pinHash),
		policy:  policy,
		now:     time.Now,
	}
}

// Login проверяет PIN. Возвращает ErrLocked во время блокировки
// и ErrWrongPIN при неверном PIN.
func (g *Guard) Login(ctx context.Context, userID int64, pin string) (Result, error) {
	a, err := g.store.GetAttempts(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("get attempts: %w", err)
	}

	now := g.now()
	if now.Before(a.LockedUntil) {
		return Result{LockedUntil: a.LockedUntil}, ErrLocked
	}
	if a.WindowStart.IsZero() || now.Sub(a.WindowStart) > g.policy.Window {
		a.Count = 0
		a.WindowStart = now
	}

	if bcrypt.CompareHashAndPassword(g.pinHash, []byte(pin)) == nil {
		if err := g.store.ResetAttempts(ctx, userID); err != nil {
			return Result{}, fmt.Errorf("reset attempts: %w", err)
		}
		if err := g.store.SetSession(ctx, userID, g.policy.SessionTTL); err != nil {
			return Result{}, fmt.Errorf("set session: %w", err)
		}
		return Result{Remaining: g.policy.MaxAttempts}, nil
	}

	a.Count++
	result := Result{Remaining: g.policy.MaxAttempts - a.Count}
	resultErr := ErrWrongPIN

	if a.Count >= g.policy.MaxAttempts {
		a.LockedUntil = now.Add(g.lockout(a.Lockouts))
		a.Lockouts++
		a.Count = 0
		a.WindowStart = time.Time{}
		result = Result{LockedUntil: a.LockedUntil}
		resultErr = ErrLocked
	}

	// Счётчик блокировок живёт дольше самой блокировки, иначе backoff не растёт
	if err := g.store.SetAttempts(ctx, userID, a, 2*g.policy.MaxLockout); err != nil {
		return Result{}, fmt.Errorf("save attempts: %w", err)
	}
	return result, resultErr
}

// IsAuthorized есть ли у пользователя действующая сессия
func (g *Guard) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	return g.store.HasSession(ctx, userID)
}

// Logout завершает сессию
func (g *Guard) Logout(ctx context.Context, userID int64) error {
	return g.store.DeleteSession(ctx, userID)
}

func (g *Guard) lockout(previous int) time.Duration {
	d := g.policy.BaseLockout
	for i := 0; i < previous && d < g.policy.MaxLockout; i++ {
		d *= 2
	}
	return min(d, g.policy.MaxLockout)
}

// HashPIN хеширует PIN для ADMIN_PIN_HASH
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}
