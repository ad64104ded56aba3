package services

import (
	"context"
	"fmt"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/log"
)

// SummaryStore rebuilds materialized monthly rollups from base rows.
type SummaryStore interface {
	RebuildMonthlySummary(ctx context.Context, periodMonth string) error
}

// SummaryProcessor keeps monthly_summaries consistent with the transaction
// tables by reacting to mutation events. The event only names the period;
// amounts are always recomputed from base rows, so replays and reordering
// are harmless.
type SummaryProcessor struct {
	store  SummaryStore
	logger *log.Logger
}

func NewSummaryProcessor(store SummaryStore, logger *log.Logger) *SummaryProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SummaryProcessor{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent rebuilds the rollup for the event's period.
func (p *SummaryProcessor) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if _, err := time.Parse("2006-01", event.PeriodMonth); err != nil {
		return fmt.Errorf("event carries invalid period %q: %w", event.PeriodMonth, err)
	}

	if err := p.store.RebuildMonthlySummary(ctx, event.PeriodMonth); err != nil {
		return fmt.Errorf("rebuild summary for %s: %w", event.PeriodMonth, err)
	}

	p.logger.InfoContext(ctx, "Monthly summary rebuilt",
		log.FieldPeriod, event.PeriodMonth,
		"entity", event.Entity,
		"action", event.Action)

	return nil
}
