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

// InvestmentStore is the persistence surface the investment service needs.
type InvestmentStore interface {
	CreateInvestmentTransaction(ctx context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error)
	ListInvestmentTransactions(ctx context.Context, rng core.Range) ([]core.InvestmentTransaction, error)
	ListInvestmentAccounts(ctx context.Context) ([]core.InvestmentAccount, error)
	GetInvestmentAccount(ctx context.Context, id string) (core.InvestmentAccount, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
}

// CreateInvestmentInput carries the fields for a new investment transaction.
type CreateInvestmentInput struct {
	AccountID       string
	AmountMinor     int64
	Kind            core.InvestmentKind
	LinkedExpenseID string
	DeviceID        string
	Note            string
	OccurredAt      time.Time // zero means now
}

// InvestmentService validates and persists investment transactions.
type InvestmentService struct {
	store  InvestmentStore
	events EventPublisher
	logger *log.Logger
}

func NewInvestmentService(store InvestmentStore, events EventPublisher, logger *log.Logger) *InvestmentService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &InvestmentService{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentBalance),
	}
}

// Create validates the referenced account (and linked expense, when given)
// and inserts the row.
func (s *InvestmentService) Create(ctx context.Context, in CreateInvestmentInput) (core.InvestmentTransaction, error) {
	t := core.InvestmentTransaction{
		AccountID:       in.AccountID,
		Amount:          core.Money{Cents: in.AmountMinor},
		Kind:            in.Kind,
		LinkedExpenseID: in.LinkedExpenseID,
		DeviceID:        in.DeviceID,
		Note:            in.Note,
		OccurredAt:      in.OccurredAt,
	}
	if err := t.Validate(); err != nil {
		return core.InvestmentTransaction{}, err
	}

	if _, err := s.store.GetInvestmentAccount(ctx, t.AccountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.InvestmentTransaction{}, ErrUnknownAccount
		}
		return core.InvestmentTransaction{}, fmt.Errorf("resolve account: %w", err)
	}

	if t.LinkedExpenseID != "" {
		if _, err := s.store.GetExpense(ctx, t.LinkedExpenseID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return core.InvestmentTransaction{}, ErrUnknownLinkedExpense
			}
			return core.InvestmentTransaction{}, fmt.Errorf("resolve linked expense: %w", err)
		}
	}

	created, err := s.store.CreateInvestmentTransaction(ctx, t)
	if err != nil {
		return core.InvestmentTransaction{}, fmt.Errorf("save investment transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Investment transaction created",
		"transaction_id", created.ID,
		log.FieldAccountID, created.AccountID,
		log.FieldKind, string(created.Kind),
		log.FieldAmountMinor, created.Amount.Cents)

	s.publishEvent(ctx, created)
	return created, nil
}

// List returns investment transactions in the range, newest first, expanded
// with account and platform.
func (s *InvestmentService) List(ctx context.Context, rng core.Range) ([]core.InvestmentTransaction, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.store.ListInvestmentTransactions(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("fetch investment transactions: %w", err)
	}
	return txs, nil
}

// Accounts returns all investment accounts with their platform.
func (s *InvestmentService) Accounts(ctx context.Context) ([]core.InvestmentAccount, error) {
	accounts, err := s.store.ListInvestmentAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch investment accounts: %w", err)
	}
	return accounts, nil
}

func (s *InvestmentService) publishEvent(ctx context.Context, t core.InvestmentTransaction) {
	if s.events == nil {
		return
	}
	event := amqp.NewTransactionEvent(amqp.EntityInvestment, amqp.ActionCreated, t.ID, t.OccurredAt)
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldError, err,
			"entity", event.Entity,
			"id", event.ID)
	}
}
