package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/events"
	"expense-tracker/internal/repository"
)

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	Description string          `validate:"required"`
	PaymentType string          `validate:"required"`
	Category    string          `validate:"required"`
	Amount      decimal.Decimal `validate:"-"`
	Date        string          `validate:"required"`
	Location    string
}

// TransactionPatch updates only the non-nil fields.
type TransactionPatch struct {
	Description *string
	PaymentType *string
	Category    *string
	Amount      *decimal.Decimal
	Location    *string
	Date        *string
}

// TransactionService coordinates a user's transactions. Every method is
// scoped to the owning user.
type TransactionService interface {
	Create(ctx context.Context, userID string, in TransactionInput) (*domain.Transaction, error)
	Get(ctx context.Context, userID, id string) (*domain.Transaction, error)
	List(ctx context.Context, userID string) ([]domain.Transaction, error)
	Update(ctx context.Context, userID, id string, patch TransactionPatch) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, id string) (*domain.Transaction, error)
	CategoryStatistics(ctx context.Context, userID string) ([]domain.CategoryTotal, error)
}

type transactionService struct {
	txs       repository.TransactionRepository
	publisher events.Publisher
	logger    logrus.FieldLogger
}

func NewTransactionService(txs repository.TransactionRepository, publisher events.Publisher, logger logrus.FieldLogger) TransactionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &transactionService{
		txs:       txs,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *transactionService) Create(ctx context.Context, userID string, in TransactionInput) (*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := checkRequired(in); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		UserID:      userID,
		Description: in.Description,
		Location:    normalizeLocation(in.Location),
	}
	if err := applyPaymentType(tx, in.PaymentType); err != nil {
		return nil, err
	}
	if err := applyCategory(tx, in.Category); err != nil {
		return nil, err
	}
	if err := applyAmount(tx, in.Amount); err != nil {
		return nil, err
	}
	if err := applyDate(tx, in.Date); err != nil {
		return nil, err
	}

	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TransactionCreated, tx)
	return tx, nil
}

func (s *transactionService) Get(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	tx, err := s.txs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if tx.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func (s *transactionService) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.txs.ListByUser(ctx, userID)
}

func (s *transactionService) Update(ctx context.Context, userID, id string, patch TransactionPatch) (*domain.Transaction, error) {
	tx, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc == "" {
			return nil, ErrMissingFields
		}
		tx.Description = desc
	}
	if patch.PaymentType != nil {
		if err := applyPaymentType(tx, *patch.PaymentType); err != nil {
			return nil, err
		}
	}
	if patch.Category != nil {
		if err := applyCategory(tx, *patch.Category); err != nil {
			return nil, err
		}
	}
	if patch.Amount != nil {
		if err := applyAmount(tx, *patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.Location != nil {
		tx.Location = normalizeLocation(*patch.Location)
	}
	if patch.Date != nil {
		if err := applyDate(tx, *patch.Date); err != nil {
			return nil, err
		}
	}

	if err := s.txs.Update(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	s.publish(ctx, events.TransactionUpdated, tx)
	return tx, nil
}

func (s *transactionService) Delete(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	tx, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.txs.Delete(ctx, tx.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	s.publish(ctx, events.TransactionDeleted, tx)
	return tx, nil
}

func (s *transactionService) CategoryStatistics(ctx context.Context, userID string) ([]domain.CategoryTotal, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.txs.CategoryTotals(ctx, userID)
}

// publish never fails the caller; the write has already happened.
func (s *transactionService) publish(ctx context.Context, t events.Type, tx *domain.Transaction) {
	if err := s.publisher.Publish(ctx, events.NewTransactionEvent(t, *tx)); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":          t,
			"transaction_id": tx.ID,
		}).Warn("publish transaction event")
	}
}

func applyPaymentType(tx *domain.Transaction, raw string) error {
	p, err := domain.ParsePaymentType(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tx.PaymentType = p
	return nil
}

func applyCategory(tx *domain.Transaction, raw string) error {
	c, err := domain.ParseCategory(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tx.Category = c
	return nil
}

func applyAmount(tx *domain.Transaction, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	tx.Amount = amount
	return nil
}

func applyDate(tx *domain.Transaction, raw string) error {
	d, err := domain.ParseDate(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tx.Date = d
	return nil
}

func normalizeLocation(loc string) string {
	if loc = strings.TrimSpace(loc); loc == "" {
		return domain.DefaultLocation
	}
	return loc
}
