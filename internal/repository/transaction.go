package repository

import (
	"context"

	"expense-tracker/internal/domain"
)

// TransactionRepository exposes persistence operations for Transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Get(ctx context.Context, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	CategoryTotals(ctx context.Context, userID string) ([]domain.CategoryTotal, error)
}
