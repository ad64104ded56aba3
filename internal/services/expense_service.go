package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

var (
	ErrUnknownCategory      = errors.New("unknown category")
	ErrIncompatibleCategory = errors.New("category type incompatible with kind")
	ErrUnknownAccount       = errors.New("unknown investment account")
	ErrUnknownLinkedExpense = errors.New("unknown linked expense")
)

// EventPublisher announces successful writes. Publishing is fire-and-forget
// from the caller's perspective: a failed publish is logged, never surfaced.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event amqp.TransactionEvent) error
}

// ExpenseStore is the persistence surface the expense service needs.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	SoftDeleteExpense(ctx context.Context, id string) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
}

// CreateExpenseInput carries the fields a client supplies for a new row.
type CreateExpenseInput struct {
	AmountMinor  int64
	CategoryID   string
	CurrencyCode string
	DeviceID     string
	Kind         core.ExpenseKind
	Note         string
	OccurredAt   time.Time // zero means now
}

// ExpenseService validates and persists expense rows and emits transaction
// events for downstream consumers.
type ExpenseService struct {
	store  ExpenseStore
	events EventPublisher
	logger *log.Logger
}

func NewExpenseService(store ExpenseStore, events EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentExpense),
	}
}

// Create validates the input against its category and inserts the row. The
// referenced category must exist and be type-compatible with the kind.
func (s *ExpenseService) Create(ctx context.Context, in CreateExpenseInput) (core.Expense, error) {
	e := core.Expense{
		Amount:       core.Money{Cents: in.AmountMinor},
		CategoryID:   in.CategoryID,
		CurrencyCode: in.CurrencyCode,
		DeviceID:     in.DeviceID,
		Kind:         in.Kind,
		Note:         in.Note,
		OccurredAt:   in.OccurredAt,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	category, err := s.store.GetCategory(ctx, e.CategoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, ErrUnknownCategory
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("resolve category: %w", err)
	}
	if !category.Type.CompatibleWith(e.Kind) {
		return core.Expense{}, ErrIncompatibleCategory
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		log.FieldExpenseID, created.ID,
		log.FieldKind, string(created.Kind),
		log.FieldAmountMinor, created.Amount.Cents,
		log.FieldCategoryID, created.CategoryID)

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EntityExpense, amqp.ActionCreated, created.ID, created.OccurredAt))
	return created, nil
}

// Delete soft-deletes an expense. The row stays in place with its deletion
// timestamp; it just stops counting.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}
	if expense.Deleted() {
		return storage.ErrNotFound
	}

	if err := s.store.SoftDeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense soft-deleted", log.FieldExpenseID, id)

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EntityExpense, amqp.ActionDeleted, id, expense.OccurredAt))
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, event amqp.TransactionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		// The write already succeeded; losing the event only delays the
		// summary rebuild until the next one for that period.
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldError, err,
			"entity", event.Entity,
			"action", event.Action,
			"id", event.ID)
	}
}
