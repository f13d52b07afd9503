package graphql

import (
	"context"

	"expense-tracker/internal/domain"
)

// Session is the per-request login state. The HTTP layer backs it with a
// cookie.
type Session interface {
	User() *domain.User
	Login(ctx context.Context, user *domain.User) error
	Logout(ctx context.Context) error
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s != nil
}
