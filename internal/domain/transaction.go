package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeCash PaymentType = "cash"
	PaymentTypeCard PaymentType = "card"
)

type Category string

const (
	CategorySaving     Category = "saving"
	CategoryExpense    Category = "expense"
	CategoryInvestment Category = "investment"
)

// DefaultLocation is stored when a transaction is recorded without one.
const DefaultLocation = "Unknown"

// Transaction is a single money movement recorded by its owner.
type Transaction struct {
	ID          string
	UserID      string
	Description string
	PaymentType PaymentType
	Category    Category
	Amount      decimal.Decimal
	Location    string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryTotal is the sum of a user's amounts within one category.
type CategoryTotal struct {
	Category    Category
	TotalAmount decimal.Decimal
}

func ParsePaymentType(s string) (PaymentType, error) {
	switch p := PaymentType(strings.ToLower(strings.TrimSpace(s))); p {
	case PaymentTypeCash, PaymentTypeCard:
		return p, nil
	default:
		return "", fmt.Errorf("invalid payment type %q", s)
	}
}

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategorySaving, CategoryExpense, CategoryInvestment:
		return c, nil
	default:
		return "", fmt.Errorf("invalid category %q", s)
	}
}

const minUnixMillisDigits = 10

// ParseDate accepts a calendar date (2006-01-02), an RFC3339 timestamp or
// Unix milliseconds, the three shapes clients send.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	// shorter digit runs are compact dates like 20240101, not timestamps
	if len(s) >= minUnixMillisDigits {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatDate renders t as Unix milliseconds.
func FormatDate(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
