package services

import (
	"context"
	"errors"
	"fmt"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// BudgetStore is the persistence surface the budget service needs.
type BudgetStore interface {
	ListBudgets(ctx context.Context, periodMonth string) ([]core.Budget, error)
	ListExpenses(ctx context.Context, rng core.Range) ([]core.Expense, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
}

// BudgetStatus is a budget with its consumption for the period.
type BudgetStatus struct {
	Budget    core.Budget `json:"budget"`
	Spent     float64     `json:"spent"`
	Remaining float64     `json:"remaining"`
	PctUsed   float64     `json:"pct_used"`
	Warning   bool        `json:"warning"`
}

// BudgetService reports how far each budget of a month has been consumed.
type BudgetService struct {
	store  BudgetStore
	logger *log.Logger
}

func NewBudgetService(store BudgetStore, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BudgetService{
		store:  store,
		logger: logger.WithComponent(log.ComponentBudget),
	}
}

// Create validates and persists a budget. A category-scoped budget must
// reference an existing category.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	if b.Scope == core.ScopeCategory {
		if _, err := s.store.GetCategory(ctx, b.CategoryID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return core.Budget{}, ErrUnknownCategory
			}
			return core.Budget{}, fmt.Errorf("resolve category: %w", err)
		}
	}

	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget created",
		"budget_id", created.ID,
		"scope", string(created.Scope),
		log.FieldPeriod, created.PeriodMonth,
		log.FieldAmountMinor, created.Amount.Cents)

	return created, nil
}

// Statuses computes consumption for every budget of a "2006-01" period.
// Spending comes from live kind=expense rows of that month; a category
// budget counts only its own category.
func (s *BudgetService) Statuses(ctx context.Context, periodMonth string) ([]BudgetStatus, error) {
	rng, err := core.MonthRange(periodMonth)
	if err != nil {
		return nil, err
	}

	budgets, err := s.store.ListBudgets(ctx, periodMonth)
	if err != nil {
		return nil, fmt.Errorf("fetch budgets: %w", err)
	}
	if len(budgets) == 0 {
		return []BudgetStatus{}, nil
	}

	rows, err := s.store.ListExpenses(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := spentFor(b, rows)
		limit := b.Amount.Major()

		status := BudgetStatus{
			Budget:    b,
			Spent:     spent,
			Remaining: limit - spent,
		}
		if limit > 0 {
			status.PctUsed = spent / limit * 100
		}
		status.Warning = status.PctUsed >= float64(b.WarningThresholdPct)
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func spentFor(b core.Budget, rows []core.Expense) float64 {
	var spent float64
	for _, e := range rows {
		if e.Kind != core.KindExpense || e.Deleted() {
			continue
		}
		if b.Scope == core.ScopeCategory && e.CategoryID != b.CategoryID {
			continue
		}
		spent += e.Amount.Major()
	}
	return spent
}
