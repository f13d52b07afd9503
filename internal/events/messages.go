package events

import (
	"context"
	"encoding/json"
	"time"

	"expense-tracker/internal/domain"
)

type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
)

// TransactionEvent announces a change to a user's transactions.
type TransactionEvent struct {
	Type          Type      `json:"type"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Category      string    `json:"category"`
	PaymentType   string    `json:"payment_type"`
	Amount        string    `json:"amount"`
	Date          time.Time `json:"date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewTransactionEvent(t Type, tx domain.Transaction) TransactionEvent {
	return TransactionEvent{
		Type:          t,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Category:      string(tx.Category),
		PaymentType:   string(tx.PaymentType),
		Amount:        tx.Amount.String(),
		Date:          tx.Date,
		OccurredAt:    time.Now().UTC(),
	}
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers transaction events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransactionEvent) error { return nil }
