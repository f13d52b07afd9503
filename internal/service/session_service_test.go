package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"expense-tracker/internal/repository/sqlite"
)

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	users := newTestUserService(db)
	sessions := NewSessionService(sqlite.NewSessionRepository(db), users, "test-secret", time.Hour)
	ctx := context.Background()
	owner := signUp(t, users, "sam")

	token, expires, err := sessions.Issue(ctx, owner.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" || time.Until(expires) <= 0 {
		t.Fatalf("unexpected token %q expiring %v", token, expires)
	}

	user, err := sessions.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.ID != owner.ID {
		t.Fatalf("resolved %s, want %s", user.ID, owner.ID)
	}

	if err := sessions.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := sessions.Resolve(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after revoke, got %v", err)
	}
}

func TestSessionRejectsForeignOrBrokenTokens(t *testing.T) {
	db := openTestDB(t)
	users := newTestUserService(db)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()
	owner := signUp(t, users, "ann")

	other := NewSessionService(repo, users, "other-secret", time.Hour)
	token, _, err := other.Issue(ctx, owner.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sessions := NewSessionService(repo, users, "test-secret", time.Hour)
	for _, tok := range []string{token, "", "not-a-token"} {
		if _, err := sessions.Resolve(ctx, tok); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q, got %v", tok, err)
		}
	}
	if err := sessions.Revoke(ctx, "garbage"); err != nil {
		t.Fatalf("revoking garbage should be a no-op, got %v", err)
	}
}

func TestSessionExpiryAndPurge(t *testing.T) {
	db := openTestDB(t)
	users := newTestUserService(db)
	svc := NewSessionService(sqlite.NewSessionRepository(db), users, "test-secret", time.Minute).(*sessionService)
	ctx := context.Background()
	owner := signUp(t, users, "eve")

	token, _, err := svc.Issue(ctx, owner.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired session, got %v", err)
	}

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged session, got %d", n)
	}
}
