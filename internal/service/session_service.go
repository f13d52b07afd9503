package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

// DefaultSessionTTL matches a week-long login cookie.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionService issues and resolves the signed tokens stored in the
// session cookie. Each token names a server-side session so logout can
// revoke it before it expires.
type SessionService interface {
	Issue(ctx context.Context, userID string) (string, time.Time, error)
	Resolve(ctx context.Context, token string) (*domain.User, error)
	Revoke(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

type sessionService struct {
	sessions repository.SessionRepository
	users    UserService
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(sessions repository.SessionRepository, users UserService, secret string, ttl time.Duration) SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionService{
		sessions: sessions,
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *sessionService) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, err
	}

	claims := sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, session.ExpiresAt, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: session revoked", ErrUnauthorized)
		}
		return nil, err
	}
	if session.Expired(s.now()) || session.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: session expired", ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, err
	}
	return user, nil
}

// Revoke ignores tokens it cannot read; there is nothing to revoke.
func (s *sessionService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now().UTC())
}

func (s *sessionService) parse(token string, opts ...jwt.ParserOption) (*sessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("missing session token")
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &sessionClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("session token has no id")
	}
	return claims, nil
}
