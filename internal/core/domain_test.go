package core

import (
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Amount:       Money{Cents: 1500},
		Kind:         KindExpense,
		CategoryID:   "c1",
		CurrencyCode: "ARS",
	}

	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{"valid", func(e *Expense) {}, nil},
		{"zero amount", func(e *Expense) { e.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount.Cents = -100 }, ErrInvalidAmount},
		{"bad kind", func(e *Expense) { e.Kind = "transfer" }, ErrInvalidKind},
		{"missing category", func(e *Expense) { e.CategoryID = " " }, ErrEmptyCategory},
		{"bad currency", func(e *Expense) { e.CurrencyCode = "PESOS" }, ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryTypeCompatibleWith(t *testing.T) {
	if !CategoryExpense.CompatibleWith(KindExpense) {
		t.Error("expense category should accept expense kind")
	}
	if CategoryExpense.CompatibleWith(KindIncome) {
		t.Error("expense category should reject income kind")
	}
	if !CategoryIncome.CompatibleWith(KindIncome) {
		t.Error("income category should accept income kind")
	}
	if CategoryInvestment.CompatibleWith(KindExpense) {
		t.Error("investment category should reject expense kind")
	}
}

func TestRangeContains(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name string
		r    Range
		t    time.Time
		want bool
	}{
		{"inside", Range{Start: start, End: end}, start.AddDate(0, 0, 10), true},
		{"on lower bound", Range{Start: start, End: end}, start, true},
		{"on upper bound", Range{Start: start, End: end}, end, true},
		{"before", Range{Start: start, End: end}, start.Add(-time.Second), false},
		{"after", Range{Start: start, End: end}, end.Add(time.Second), false},
		{"open range matches anything", Range{}, time.Now(), true},
		{"open end", Range{Start: start}, end.AddDate(1, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	r, err := MonthRange("2024-02")
	if err != nil {
		t.Fatalf("MonthRange: %v", err)
	}
	if r.Start != time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("start = %v", r.Start)
	}
	if !r.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Error("leap day should be inside the february range")
	}
	if r.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("march 1st should be outside the february range")
	}

	if _, err := MonthRange("febrero"); err == nil {
		t.Error("expected error for malformed period")
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{
		Amount:              Money{Cents: 100000},
		Scope:               ScopeCategory,
		CategoryID:          "c1",
		PeriodMonth:         "2024-05",
		WarningThresholdPct: 80,
	}
	if err := b.Validate(); err != nil {
		t.Errorf("valid budget rejected: %v", err)
	}

	b.Scope = ScopeAll
	if err := b.Validate(); err == nil {
		t.Error("scope all with category id should be rejected")
	}

	b.CategoryID = ""
	if err := b.Validate(); err != nil {
		t.Errorf("valid all-scope budget rejected: %v", err)
	}

	b.WarningThresholdPct = 150
	if err := b.Validate(); err == nil {
		t.Error("threshold above 100 should be rejected")
	}
}
