package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo *UserRepository, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Name:         "Test " + username,
		PasswordHash: "hash",
		Gender:       domain.GenderFemale,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	user := createUser(t, repo, "alice")
	if user.ID == "" {
		t.Fatal("expected user id to be assigned")
	}

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != user.ID || byName.Name != "Test alice" || byName.Gender != domain.GenderFemale {
		t.Fatalf("unexpected user %+v", byName)
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Username != "alice" {
		t.Fatalf("expected alice, got %s", byID.Username)
	}

	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	dup := &domain.User{Username: "alice", Name: "Other", PasswordHash: "x", Gender: domain.GenderMale}
	if err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	createUser(t, repo, "bob")
	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestTransactionRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	repo := NewTransactionRepository(db)
	owner := createUser(t, users, "carol")

	older := &domain.Transaction{
		UserID:      owner.ID,
		Description: "groceries",
		PaymentType: domain.PaymentTypeCard,
		Category:    domain.CategoryExpense,
		Amount:      decimal.RequireFromString("12.30"),
		Location:    domain.DefaultLocation,
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &domain.Transaction{
		UserID:      owner.ID,
		Description: "rent",
		PaymentType: domain.PaymentTypeCash,
		Category:    domain.CategoryExpense,
		Amount:      decimal.RequireFromString("0.70"),
		Location:    "Home",
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	saving := &domain.Transaction{
		UserID:      owner.ID,
		Description: "piggy bank",
		PaymentType: domain.PaymentTypeCash,
		Category:    domain.CategorySaving,
		Amount:      decimal.RequireFromString("100"),
		Location:    domain.DefaultLocation,
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for _, tx := range []*domain.Transaction{older, newer, saving} {
		if err := repo.Create(ctx, tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	got, err := repo.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.3")) || !got.Date.Equal(older.Date) {
		t.Fatalf("unexpected stored transaction %+v", got)
	}

	list, err := repo.ListByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(list) != 3 || list[0].ID != newer.ID || list[2].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	totals, err := repo.CategoryTotals(ctx, owner.ID)
	if err != nil {
		t.Fatalf("category totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 categories, got %+v", totals)
	}
	if totals[0].Category != domain.CategoryExpense || !totals[0].TotalAmount.Equal(decimal.RequireFromString("13")) {
		t.Fatalf("unexpected expense total %+v", totals[0])
	}
	if totals[1].Category != domain.CategorySaving || !totals[1].TotalAmount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unexpected saving total %+v", totals[1])
	}

	got.Description = "weekly groceries"
	got.Amount = decimal.RequireFromString("15")
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	updated, err := repo.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("get updated transaction: %v", err)
	}
	if updated.Description != "weekly groceries" || !updated.Amount.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("update not persisted: %+v", updated)
	}

	if err := repo.Delete(ctx, older.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if _, err := repo.Get(ctx, older.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, older.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestTransactionRequiresExistingUser(t *testing.T) {
	repo := NewTransactionRepository(openTestDB(t))
	err := repo.Create(context.Background(), &domain.Transaction{
		UserID:      "missing",
		Description: "orphan",
		PaymentType: domain.PaymentTypeCash,
		Category:    domain.CategoryExpense,
		Amount:      decimal.NewFromInt(1),
		Location:    domain.DefaultLocation,
		Date:        time.Now(),
	})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown user")
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := createUser(t, NewUserRepository(db), "dave")
	repo := NewSessionRepository(db)

	now := time.Now().UTC()
	live := &domain.Session{UserID: owner.ID, ExpiresAt: now.Add(time.Hour)}
	stale := &domain.Session{UserID: owner.ID, ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*domain.Session{live, stale} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	got, err := repo.Get(ctx, live.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != owner.ID || got.ExpiresAt.UnixMilli() != live.ExpiresAt.UnixMilli() {
		t.Fatalf("unexpected session %+v", got)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", n)
	}
	if _, err := repo.Get(ctx, stale.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected stale session gone, got %v", err)
	}

	if err := repo.Delete(ctx, live.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := repo.Get(ctx, live.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}
