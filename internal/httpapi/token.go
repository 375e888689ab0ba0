package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const exportSubject = "export"

// DefaultLinkTTL время жизни ссылки на выгрузку
const DefaultLinkTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid export token")

// LinkSigner подписывает и проверяет токены ссылок на выгрузку (HS256)
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl}
}

// Issue выпускает токен, действующий ttl от now
func (s *LinkSigner) Issue(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   exportSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign export token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись, срок и назначение токена на момент now
func (s *LinkSigner) Verify(token string, now time.Time) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(exportSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
