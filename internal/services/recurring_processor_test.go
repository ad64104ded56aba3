package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"saldo/internal/core"
)

type fakeRecurringStore struct {
	templates []core.RecurringExpense
	marked    []string
	markErr   error
}

func (f *fakeRecurringStore) ListActiveRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error) {
	return f.templates, nil
}

func (f *fakeRecurringStore) MarkRecurringGenerated(ctx context.Context, id string, t time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

type fakeCreator struct {
	inputs []CreateExpenseInput
	err    error
}

func (f *fakeCreator) Create(ctx context.Context, in CreateExpenseInput) (core.Expense, error) {
	if f.err != nil {
		return core.Expense{}, f.err
	}
	f.inputs = append(f.inputs, in)
	return core.Expense{ID: "exp-gen", Amount: core.Money{Cents: in.AmountMinor}}, nil
}

func monthAgo(t time.Time) *time.Time {
	prev := t.AddDate(0, -1, 0)
	return &prev
}

func TestRecurringProcessor_Dueness(t *testing.T) {
	template := func(day int, last *time.Time) core.RecurringExpense {
		return core.RecurringExpense{
			ID:              "rec-1",
			Amount:          core.Money{Cents: 250000},
			CategoryID:      "cat-hogar",
			CurrencyCode:    "ARS",
			Kind:            core.KindExpense,
			DayOfMonth:      day,
			IsActive:        true,
			LastGeneratedAt: last,
		}
	}

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sameMonth := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		template core.RecurringExpense
		now      time.Time
		want     bool
	}{
		{"day reached, never generated", template(10, nil), now, true},
		{"exactly on the day", template(15, nil), now, true},
		{"day not reached yet", template(20, nil), now, false},
		{"already generated this month", template(10, &sameMonth), now, false},
		{"generated last month", template(10, monthAgo(now)), now, true},
		{"day 31 in a 30-day month", template(31, nil), time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), true},
		{"day 31 in February", template(31, nil), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dueThisMonth(tt.template, tt.now); got != tt.want {
				t.Errorf("dueThisMonth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeRecurringStore{
		templates: []core.RecurringExpense{
			{ID: "rec-rent", Amount: core.Money{Cents: 9000000}, CategoryID: "cat-hogar", CurrencyCode: "ARS", Kind: core.KindExpense, DayOfMonth: 1, IsActive: true},
			{ID: "rec-gym", Amount: core.Money{Cents: 150000}, CategoryID: "cat-salud", CurrencyCode: "ARS", Kind: core.KindExpense, DayOfMonth: 20, IsActive: true},
		},
	}
	creator := &fakeCreator{}

	p := NewRecurringProcessor(store, creator, nil)
	n, err := p.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("ProcessDue() = %d, want 1 (gym is not due on the 15th)", n)
	}

	in := creator.inputs[0]
	if in.AmountMinor != 9000000 || in.CategoryID != "cat-hogar" {
		t.Errorf("generated input = %+v, want rent template fields", in)
	}
	if in.DeviceID != "recurring-worker" {
		t.Errorf("DeviceID = %q, want recurring-worker", in.DeviceID)
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !in.OccurredAt.Equal(want) {
		t.Errorf("OccurredAt = %v, want %v", in.OccurredAt, want)
	}
	if len(store.marked) != 1 || store.marked[0] != "rec-rent" {
		t.Errorf("marked = %v, want [rec-rent]", store.marked)
	}
}

func TestRecurringProcessor_CreateFailureSkipsTemplate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeRecurringStore{
		templates: []core.RecurringExpense{
			{ID: "rec-1", Amount: core.Money{Cents: 100}, CategoryID: "c", CurrencyCode: "ARS", Kind: core.KindExpense, DayOfMonth: 1, IsActive: true},
		},
	}
	creator := &fakeCreator{err: errors.New("category gone")}

	p := NewRecurringProcessor(store, creator, nil)
	n, err := p.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if n != 0 {
		t.Errorf("ProcessDue() = %d, want 0", n)
	}
	if len(store.marked) != 0 {
		t.Errorf("failed generation was marked: %v", store.marked)
	}
}
