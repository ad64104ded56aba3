package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"saldo/internal/core"
)

func TestResolveAmount(t *testing.T) {
	tests := []struct {
		name        string
		amountMinor int64
		amount      string
		want        int64
		wantErr     bool
	}{
		{"minor units", 45000, "", 45000, false},
		{"decimal string", 0, "450.50", 45050, false},
		{"decimal with comma", 0, "450,50", 45050, false},
		{"both set", 45000, "450.00", 0, true},
		{"neither set", 0, "", 0, false},
		{"garbage string", 0, "abc", 0, true},
		{"negative string", 0, "-10", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveAmount(tt.amountMinor, tt.amount)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveAmount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("resolveAmount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveOccurredAt(t *testing.T) {
	got, err := resolveOccurredAt("")
	if err != nil || !got.IsZero() {
		t.Errorf("resolveOccurredAt(\"\") = %v, %v; want zero time, nil", got, err)
	}

	got, err = resolveOccurredAt("2025-06-10")
	if err != nil {
		t.Fatalf("resolveOccurredAt(date) error = %v", err)
	}
	want := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("resolveOccurredAt(date) = %v, want %v", got, want)
	}

	if _, err := resolveOccurredAt("tomorrow"); err == nil {
		t.Error("resolveOccurredAt accepted garbage")
	}
}

func TestParseRange(t *testing.T) {
	t.Run("date-only end covers the whole day", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/balance?start=2025-06-01&end=2025-06-30", nil)
		rng, err := parseRange(r)
		if err != nil {
			t.Fatalf("parseRange() error = %v", err)
		}
		if !rng.Start.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Start = %v", rng.Start)
		}
		if !rng.End.Equal(time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)) {
			t.Errorf("End = %v, want end of June 30", rng.End)
		}
		if !rng.Contains(time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC)) {
			t.Error("range must contain an evening timestamp on the end date")
		}
	})

	t.Run("absent params leave bounds open", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/balance", nil)
		rng, err := parseRange(r)
		if err != nil {
			t.Fatalf("parseRange() error = %v", err)
		}
		if !rng.Start.IsZero() || !rng.End.IsZero() {
			t.Errorf("open range = %+v, want zero bounds", rng)
		}
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/balance?start=2025-06-30&end=2025-06-01", nil)
		if _, err := parseRange(r); err == nil {
			t.Error("parseRange() accepted end before start")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/balance?start=junio", nil)
		if _, err := parseRange(r); err == nil {
			t.Error("parseRange() accepted a malformed start")
		}
	})
}

func TestCreateExpenseRequestToInput(t *testing.T) {
	req := createExpenseRequest{
		Amount:     "123.45",
		CategoryID: " cat-alimentacion ",
		Kind:       "expense",
		Note:       " super ",
	}
	in, err := req.toInput("ARS")
	if err != nil {
		t.Fatalf("toInput() error = %v", err)
	}
	if in.AmountMinor != 12345 {
		t.Errorf("AmountMinor = %d, want 12345", in.AmountMinor)
	}
	if in.CurrencyCode != "ARS" {
		t.Errorf("CurrencyCode = %q, want default ARS", in.CurrencyCode)
	}
	if in.CategoryID != "cat-alimentacion" || in.Note != "super" {
		t.Errorf("fields not trimmed: %+v", in)
	}
	if in.Kind != core.KindExpense {
		t.Errorf("Kind = %q", in.Kind)
	}
}

func TestDecodeBody(t *testing.T) {
	var req createExpenseRequest
	if err := decodeBody(strings.NewReader(""), &req); err == nil {
		t.Error("decodeBody accepted an empty body")
	}
	if err := decodeBody(strings.NewReader(`{"amount_minor": 100, "bogus": 1}`), &req); err == nil {
		t.Error("decodeBody accepted an unknown field")
	}
	if err := decodeBody(strings.NewReader(`{"amount_minor": 100}`), &req); err != nil {
		t.Errorf("decodeBody() error = %v", err)
	}
}

func TestRangeKey(t *testing.T) {
	open := rangeKey("balance", core.Range{})
	closed := rangeKey("balance", core.Range{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	if open == closed {
		t.Error("open and closed ranges produced the same key")
	}
	if !strings.HasPrefix(open, "balance:") || !strings.HasPrefix(closed, "balance:") {
		t.Errorf("keys missing family prefix: %q, %q", open, closed)
	}
}
