package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/log"
)

// TransactionReader fetches the row sets the balance computation reduces.
type TransactionReader interface {
	ListExpenses(ctx context.Context, rng core.Range) ([]core.Expense, error)
	ListInvestmentTransactions(ctx context.Context, rng core.Range) ([]core.InvestmentTransaction, error)
}

// BalanceService computes balance and category summaries over a date range.
// It is a pure read path: fetch rows, reduce, return.
type BalanceService struct {
	store  TransactionReader
	logger *log.Logger
}

func NewBalanceService(store TransactionReader, logger *log.Logger) *BalanceService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BalanceService{
		store:  store,
		logger: logger.WithComponent(log.ComponentBalance),
	}
}

// Balance computes the balance summary for a closed date interval. The two
// underlying queries run concurrently; either failure aborts the whole
// computation with no partial result.
func (s *BalanceService) Balance(ctx context.Context, rng core.Range) (core.BalanceData, error) {
	if err := rng.Validate(); err != nil {
		return core.BalanceData{}, err
	}

	var (
		expenses    []core.Expense
		investments []core.InvestmentTransaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, rng)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		investments, err = s.store.ListInvestmentTransactions(gctx, rng)
		if err != nil {
			return fmt.Errorf("fetch investment transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.BalanceData{}, err
	}

	data := core.Summarize(expenses, investments)

	s.logger.DebugContext(ctx, "Balance computed",
		"expense_rows", len(expenses),
		"investment_rows", len(investments),
		"net_balance", data.NetBalance)

	return data, nil
}

// CategoryTotals reduces the range's expense rows into per-category totals,
// in first-seen order. Ranking and truncation are up to the caller.
func (s *BalanceService) CategoryTotals(ctx context.Context, rng core.Range) ([]core.CategoryTotal, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.store.ListExpenses(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	return core.CategoryTotals(rows), nil
}
