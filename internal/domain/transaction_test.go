package domain

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01", true},
		{"2024-01-01T00:00:00Z", true},
		{"1704067200000", true},
		{" 2024-01-01 ", true},
		{"", false},
		{"01/01/2024", false},
		{"20240101", false},
		{"123", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q expected %v, got %v", tc.in, want, got)
		}
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	d := time.Date(2023, time.December, 12, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "1702339200000" {
		t.Fatalf("unexpected formatted date %s", got)
	}
	back, err := ParseDate(FormatDate(d))
	if err != nil || !back.Equal(d) {
		t.Fatalf("round trip failed: %v %v", back, err)
	}
}

func TestParseEnums(t *testing.T) {
	if p, err := ParsePaymentType("Card"); err != nil || p != PaymentTypeCard {
		t.Fatalf("expected card, got %q (%v)", p, err)
	}
	if _, err := ParsePaymentType("cheque"); err == nil {
		t.Fatal("expected error for cheque")
	}
	if c, err := ParseCategory(" investment"); err != nil || c != CategoryInvestment {
		t.Fatalf("expected investment, got %q (%v)", c, err)
	}
	if _, err := ParseCategory("food"); err == nil {
		t.Fatal("expected error for food")
	}
	if g, err := ParseGender("FEMALE"); err != nil || g != GenderFemale {
		t.Fatalf("expected female, got %q (%v)", g, err)
	}
	if _, err := ParseGender(""); err == nil {
		t.Fatal("expected error for empty gender")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatal("session should still be valid")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatal("session should be expired at its deadline")
	}
}
