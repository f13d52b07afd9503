package service

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expense-tracker/internal/repository/sqlite"
)

func TestExportUploadsCSV(t *testing.T) {
	db := openTestDB(t)
	users := newTestUserService(db)
	txs := NewTransactionService(sqlite.NewTransactionRepository(db), nil, quietLogger())
	store := newMemoryStorage()
	exports := NewExportService(txs, store, ExportConfig{Bucket: "reports", KeyPrefix: "/exports/", URLTTL: time.Hour})
	ctx := context.Background()
	owner := signUp(t, users, "exporter")

	in := validInput()
	in.Description = "lunch, with friends"
	in.Amount = decimal.RequireFromString("12.5")
	if _, err := txs.Create(ctx, owner.ID, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	export, err := exports.Export(ctx, owner.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if export.Count != 1 {
		t.Fatalf("expected 1 row, got %d", export.Count)
	}
	if !strings.HasPrefix(export.Key, "exports/"+owner.ID+"/transactions-") || !strings.HasSuffix(export.Key, ".csv") {
		t.Fatalf("unexpected key %q", export.Key)
	}
	if export.Location != "s3://reports/"+export.Key || !strings.Contains(export.URL, export.Key) {
		t.Fatalf("unexpected location %q / url %q", export.Location, export.URL)
	}

	records, err := csv.NewReader(strings.NewReader(string(store.objects[export.Key]))).ReadAll()
	if err != nil {
		t.Fatalf("parse uploaded csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	row := records[1]
	if row[1] != "2024-03-10" || row[2] != "lunch, with friends" || row[5] != "12.50" || row[6] != "Unknown" {
		t.Fatalf("unexpected row %v", row)
	}

	listed, err := exports.List(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list exports: %v", err)
	}
	if len(listed) != 1 || listed[0].Key != export.Key {
		t.Fatalf("unexpected listing %+v", listed)
	}
}

func TestExportUnavailableWithoutStorage(t *testing.T) {
	db := openTestDB(t)
	txs := NewTransactionService(sqlite.NewTransactionRepository(db), nil, quietLogger())

	for _, svc := range []ExportService{
		NewExportService(txs, nil, ExportConfig{Bucket: "reports"}),
		NewExportService(txs, newMemoryStorage(), ExportConfig{}),
	} {
		if _, err := svc.Export(context.Background(), "user"); !errors.Is(err, ErrExportUnavailable) {
			t.Fatalf("expected ErrExportUnavailable, got %v", err)
		}
		if _, err := svc.List(context.Background(), "user"); !errors.Is(err, ErrExportUnavailable) {
			t.Fatalf("expected ErrExportUnavailable from list, got %v", err)
		}
	}
}

func TestExportNeutralisesSpreadsheetFormulas(t *testing.T) {
	db := openTestDB(t)
	users := newTestUserService(db)
	txs := NewTransactionService(sqlite.NewTransactionRepository(db), nil, quietLogger())
	store := newMemoryStorage()
	exports := NewExportService(txs, store, ExportConfig{Bucket: "reports"})
	ctx := context.Background()
	owner := signUp(t, users, "formulas")

	in := validInput()
	in.Description = `=HYPERLINK("http://evil.example","click")`
	in.Location = "@SUM(A1:A2)"
	if _, err := txs.Create(ctx, owner.ID, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	export, err := exports.Export(ctx, owner.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(store.objects[export.Key]))).ReadAll()
	if err != nil {
		t.Fatalf("parse uploaded csv: %v", err)
	}
	row := records[1]
	if row[2] != `'=HYPERLINK("http://evil.example","click")` {
		t.Fatalf("description not neutralised: %q", row[2])
	}
	if row[6] != "'@SUM(A1:A2)" {
		t.Fatalf("location not neutralised: %q", row[6])
	}
}

func TestSpreadsheetSafe(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"coffee":     "coffee",
		"=1+1":       "'=1+1",
		"+1":         "'+1",
		"-5":         "'-5",
		"@cmd":       "'@cmd",
		"\tindented": "'\tindented",
		"\rcr":       "'\rcr",
		"a=b":        "a=b",
	}
	for in, want := range cases {
		if got := spreadsheetSafe(in); got != want {
			t.Errorf("spreadsheetSafe(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportKeysAreUniqueWithinOneInstant(t *testing.T) {
	db := openTestDB(t)
	users := newTestUserService(db)
	txs := NewTransactionService(sqlite.NewTransactionRepository(db), nil, quietLogger())
	store := newMemoryStorage()
	svc := NewExportService(txs, store, ExportConfig{Bucket: "reports"})
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.(*exportService).now = func() time.Time { return fixed }
	ctx := context.Background()
	owner := signUp(t, users, "twice")

	first, err := svc.Export(ctx, owner.ID)
	if err != nil {
		t.Fatalf("first export: %v", err)
	}
	second, err := svc.Export(ctx, owner.ID)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if first.Key == second.Key {
		t.Fatalf("exports in the same instant share key %q", first.Key)
	}
	if !strings.Contains(first.Key, "transactions-20240310T120000.000Z-") {
		t.Fatalf("unexpected key %q", first.Key)
	}
	if len(store.objects) != 2 {
		t.Fatalf("expected 2 stored objects, got %d", len(store.objects))
	}
}
