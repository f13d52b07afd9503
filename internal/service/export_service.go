package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/storage"
)

// Export describes an uploaded CSV of a user's transactions.
type Export struct {
	Key       string
	Location  string
	URL       string
	Count     int
	ExpiresAt time.Time
}

type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// ExportService renders transactions to CSV and hands out download links.
type ExportService interface {
	Export(ctx context.Context, userID string) (*Export, error)
	List(ctx context.Context, userID string) ([]storage.ObjectInfo, error)
}

type exportService struct {
	txs   TransactionService
	store storage.Service
	cfg   ExportConfig
	now   func() time.Time
}

// NewExportService accepts a nil store; every call then fails with
// ErrExportUnavailable.
func NewExportService(txs TransactionService, store storage.Service, cfg ExportConfig) ExportService {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &exportService{
		txs:   txs,
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

var exportHeader = []string{"id", "date", "description", "category", "payment_type", "amount", "location"}

func (s *exportService) Export(ctx context.Context, userID string) (*Export, error) {
	if s.store == nil || s.cfg.Bucket == "" {
		return nil, ErrExportUnavailable
	}
	txs, err := s.txs.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := renderCSV(txs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := path.Join(s.userPrefix(userID), fmt.Sprintf("transactions-%s-%s.csv",
		now.Format("20060102T150405.000Z"), uuid.NewString()[:8]))
	location, err := s.store.PutObject(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "text/csv",
	})
	if err != nil {
		return nil, err
	}

	url, err := s.store.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
	if err != nil {
		return nil, err
	}

	return &Export{
		Key:       key,
		Location:  location,
		URL:       url,
		Count:     len(txs),
		ExpiresAt: now.Add(s.cfg.URLTTL),
	}, nil
}

// List returns the user's previous exports, newest first.
func (s *exportService) List(ctx context.Context, userID string) ([]storage.ObjectInfo, error) {
	if s.store == nil || s.cfg.Bucket == "" {
		return nil, ErrExportUnavailable
	}
	if userID == "" {
		return nil, ErrUnauthorized
	}
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, s.userPrefix(userID)+"/")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Key > objects[j].Key
	})
	return objects, nil
}

func (s *exportService) userPrefix(userID string) string {
	if s.cfg.KeyPrefix == "" {
		return userID
	}
	return s.cfg.KeyPrefix + "/" + userID
}

func renderCSV(txs []domain.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		if err := w.Write([]string{
			tx.ID,
			tx.Date.UTC().Format("2006-01-02"),
			spreadsheetSafe(tx.Description),
			string(tx.Category),
			string(tx.PaymentType),
			tx.Amount.StringFixed(2),
			spreadsheetSafe(tx.Location),
		}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// spreadsheetSafe stops spreadsheet apps from evaluating a cell as a formula.
func spreadsheetSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
