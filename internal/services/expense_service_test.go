package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/storage"
)

type fakeExpenseStore struct {
	categories map[string]core.Category
	expenses   map[string]core.Expense
	created    []core.Expense
	deleted    []string
	createErr  error
	deleteErr  error
}

func newFakeExpenseStore() *fakeExpenseStore {
	return &fakeExpenseStore{
		categories: map[string]core.Category{
			"cat-alimentacion": {ID: "cat-alimentacion", Name: "Alimentación", Type: core.CategoryExpense},
			"cat-sueldo":       {ID: "cat-sueldo", Name: "Sueldo", Type: core.CategoryIncome},
		},
		expenses: map[string]core.Expense{},
	}
}

func (f *fakeExpenseStore) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if f.createErr != nil {
		return core.Expense{}, f.createErr
	}
	e.ID = "exp-1"
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	f.created = append(f.created, e)
	f.expenses[e.ID] = e
	return e, nil
}

func (f *fakeExpenseStore) SoftDeleteExpense(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeExpenseStore) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

func (f *fakeExpenseStore) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

type fakePublisher struct {
	events []amqp.TransactionEvent
	err    error
}

func (f *fakePublisher) PublishTransactionEvent(ctx context.Context, event amqp.TransactionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestExpenseService_Create(t *testing.T) {
	store := newFakeExpenseStore()
	pub := &fakePublisher{}
	svc := NewExpenseService(store, pub, nil)

	created, err := svc.Create(context.Background(), CreateExpenseInput{
		AmountMinor:  45000,
		CategoryID:   "cat-alimentacion",
		CurrencyCode: "ARS",
		Kind:         core.KindExpense,
		Note:         "supermercado",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() returned expense without ID")
	}
	if created.OccurredAt.IsZero() {
		t.Error("Create() left OccurredAt zero")
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Entity != amqp.EntityExpense || ev.Action != amqp.ActionCreated {
		t.Errorf("event = %s/%s, want expense/created", ev.Entity, ev.Action)
	}
	if ev.PeriodMonth != created.OccurredAt.UTC().Format("2006-01") {
		t.Errorf("event period = %q, want %q", ev.PeriodMonth, created.OccurredAt.UTC().Format("2006-01"))
	}
}

func TestExpenseService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateExpenseInput
		wantErr error
	}{
		{
			name:    "zero amount",
			input:   CreateExpenseInput{AmountMinor: 0, CategoryID: "cat-alimentacion", CurrencyCode: "ARS", Kind: core.KindExpense},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   CreateExpenseInput{AmountMinor: -100, CategoryID: "cat-alimentacion", CurrencyCode: "ARS", Kind: core.KindExpense},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "unknown kind",
			input:   CreateExpenseInput{AmountMinor: 100, CategoryID: "cat-alimentacion", CurrencyCode: "ARS", Kind: "transfer"},
			wantErr: core.ErrInvalidKind,
		},
		{
			name:    "missing category",
			input:   CreateExpenseInput{AmountMinor: 100, CurrencyCode: "ARS", Kind: core.KindExpense},
			wantErr: core.ErrEmptyCategory,
		},
		{
			name:    "unknown category",
			input:   CreateExpenseInput{AmountMinor: 100, CategoryID: "cat-nope", CurrencyCode: "ARS", Kind: core.KindExpense},
			wantErr: ErrUnknownCategory,
		},
		{
			name:    "income kind on expense category",
			input:   CreateExpenseInput{AmountMinor: 100, CategoryID: "cat-alimentacion", CurrencyCode: "ARS", Kind: core.KindIncome},
			wantErr: ErrIncompatibleCategory,
		},
		{
			name:    "expense kind on income category",
			input:   CreateExpenseInput{AmountMinor: 100, CategoryID: "cat-sueldo", CurrencyCode: "ARS", Kind: core.KindExpense},
			wantErr: ErrIncompatibleCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeExpenseStore()
			svc := NewExpenseService(store, nil, nil)
			_, err := svc.Create(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if len(store.created) != 0 {
				t.Error("invalid input reached the store")
			}
		})
	}
}

func TestExpenseService_CreatePublishFailureDoesNotFail(t *testing.T) {
	store := newFakeExpenseStore()
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	svc := NewExpenseService(store, pub, nil)

	_, err := svc.Create(context.Background(), CreateExpenseInput{
		AmountMinor:  100,
		CategoryID:   "cat-alimentacion",
		CurrencyCode: "ARS",
		Kind:         core.KindExpense,
	})
	if err != nil {
		t.Fatalf("Create() error = %v, want nil despite publish failure", err)
	}
	if len(store.created) != 1 {
		t.Errorf("created %d rows, want 1", len(store.created))
	}
}

func TestExpenseService_Delete(t *testing.T) {
	store := newFakeExpenseStore()
	store.expenses["exp-1"] = core.Expense{ID: "exp-1", OccurredAt: time.Now()}
	pub := &fakePublisher{}
	svc := NewExpenseService(store, pub, nil)

	if err := svc.Delete(context.Background(), "exp-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "exp-1" {
		t.Errorf("deleted = %v, want [exp-1]", store.deleted)
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionDeleted {
		t.Errorf("expected one deleted event, got %+v", pub.events)
	}
}

func TestExpenseService_DeleteMissingOrDeleted(t *testing.T) {
	now := time.Now()
	store := newFakeExpenseStore()
	store.expenses["exp-gone"] = core.Expense{ID: "exp-gone", OccurredAt: now, DeletedAt: &now}
	svc := NewExpenseService(store, nil, nil)

	for _, id := range []string{"exp-missing", "exp-gone"} {
		if err := svc.Delete(context.Background(), id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Delete(%q) error = %v, want ErrNotFound", id, err)
		}
	}
	if len(store.deleted) != 0 {
		t.Errorf("soft delete ran for %v", store.deleted)
	}
}
