package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

const transactionColumns = `id, user_id, description, payment_type, category, amount, location, date_ms, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO transactions (`+transactionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.UserID,
		tx.Description,
		string(tx.PaymentType),
		string(tx.Category),
		tx.Amount.String(),
		tx.Location,
		tx.Date.UnixMilli(),
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+transactionColumns+`
FROM transactions
WHERE id = ?`,
		id,
	)
	return scanTransaction(row)
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	tx.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE transactions
SET description=?, payment_type=?, category=?, amount=?, location=?, date_ms=?, updated_at=?
WHERE id=?`,
		tx.Description,
		string(tx.PaymentType),
		string(tx.Category),
		tx.Amount.String(),
		tx.Location,
		tx.Date.UnixMilli(),
		tx.UpdatedAt,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectAffected(res, "transaction")
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectAffected(res, "transaction")
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+transactionColumns+`
FROM transactions
WHERE user_id = ?
ORDER BY date_ms DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// CategoryTotals sums amounts per category. Amounts are stored as decimal
// text, so the sum is done here rather than with SUM() over floats.
func (r *TransactionRepository) CategoryTotals(ctx context.Context, userID string) ([]domain.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT category, amount
FROM transactions
WHERE user_id = ?
ORDER BY category ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query category amounts: %w", err)
	}
	defer rows.Close()

	var totals []domain.CategoryTotal
	for rows.Next() {
		var category, amount string
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("scan category amount: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		if n := len(totals); n > 0 && totals[n-1].Category == domain.Category(category) {
			totals[n-1].TotalAmount = totals[n-1].TotalAmount.Add(value)
			continue
		}
		totals = append(totals, domain.CategoryTotal{
			Category:    domain.Category(category),
			TotalAmount: value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category amounts: %w", err)
	}
	return totals, nil
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var (
		tx          domain.Transaction
		paymentType string
		category    string
		amount      string
		dateMs      int64
	)
	if err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Description,
		&paymentType,
		&category,
		&amount,
		&tx.Location,
		&dateMs,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	tx.PaymentType = domain.PaymentType(paymentType)
	tx.Category = domain.Category(category)
	tx.Amount = value
	tx.Date = time.UnixMilli(dateMs).UTC()
	return &tx, nil
}

func expectAffected(res sql.Result, what string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}
