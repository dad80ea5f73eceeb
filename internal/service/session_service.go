package service

import (
	"context"
	"fmt"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/sessions")

// Sessions issues and validates the bearer tokens that scope datasets
// to one uploader. The service holds no session state: the token's
// subject IS the session ID.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessions creates the session service.
func NewSessions(secret []byte, ttl time.Duration, logger *zap.Logger) *Sessions {
	return &Sessions{secret: secret, ttl: ttl, logger: logger}
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Issue mints a new session token.
func (s *Sessions) Issue(ctx context.Context) (token string, expiresAt time.Time, err error) {
	_, span := sessionTracer.Start(ctx, "Sessions.Issue")
	defer span.End()

	now := time.Now()
	expiresAt = now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "txn-analytics",
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("session issued", zap.String("session_id", claims.Subject))
	return token, expiresAt, nil
}

// Validate parses a session token and returns its session ID.
func (s *Sessions) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired session token"}
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", &domain.ErrUnauthorized{Message: "invalid session token"}
	}

	return claims.Subject, nil
}
