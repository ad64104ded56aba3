package services

import (
	"context"
	"fmt"
	"time"

	"saldo/internal/core"
	"saldo/internal/log"
)

// RecurringStore is the persistence surface the recurring processor needs.
type RecurringStore interface {
	ListActiveRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error)
	MarkRecurringGenerated(ctx context.Context, id string, t time.Time) error
}

// ExpenseCreator creates concrete expenses from templates.
type ExpenseCreator interface {
	Create(ctx context.Context, in CreateExpenseInput) (core.Expense, error)
}

// RecurringProcessor turns active recurring templates into concrete expense
// rows once per month when their day of month has been reached.
type RecurringProcessor struct {
	store   RecurringStore
	creator ExpenseCreator
	logger  *log.Logger
}

func NewRecurringProcessor(store RecurringStore, creator ExpenseCreator, logger *log.Logger) *RecurringProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecurringProcessor{
		store:   store,
		creator: creator,
		logger:  logger.WithComponent(log.ComponentRecurrer),
	}
}

// ProcessDue generates expenses for every due template and returns how many
// were created. A failing template is logged and skipped; the rest proceed.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	templates, err := p.store.ListActiveRecurringExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch recurring templates: %w", err)
	}

	p.logger.InfoContext(ctx, "Processing recurring templates",
		"active", len(templates),
		"date", now.Format("2006-01-02"))

	processed := 0
	for _, re := range templates {
		if !dueThisMonth(re, now) {
			continue
		}

		occurredAt := occurrenceDate(re, now)
		_, err := p.creator.Create(ctx, CreateExpenseInput{
			AmountMinor:  re.Amount.Cents,
			CategoryID:   re.CategoryID,
			CurrencyCode: re.CurrencyCode,
			DeviceID:     "recurring-worker",
			Kind:         re.Kind,
			Note:         re.Note,
			OccurredAt:   occurredAt,
		})
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to generate expense from template",
				"recurring_id", re.ID,
				log.FieldError, err)
			continue
		}

		if err := p.store.MarkRecurringGenerated(ctx, re.ID, now); err != nil {
			// The expense exists; without the mark it would be generated
			// again next tick, so this is worth surfacing loudly.
			p.logger.ErrorContext(ctx, "Failed to record template generation",
				"recurring_id", re.ID,
				log.FieldError, err)
			continue
		}

		processed++
		p.logger.InfoContext(ctx, "Generated expense from recurring template",
			"recurring_id", re.ID,
			log.FieldAmountMinor, re.Amount.Cents,
			"day_of_month", re.DayOfMonth)
	}

	return processed, nil
}

// dueThisMonth reports whether a template should fire: its target day has
// been reached and it has not fired in the current month yet. A template on
// day 31 fires on the last day of shorter months.
func dueThisMonth(re core.RecurringExpense, now time.Time) bool {
	if re.LastGeneratedAt != nil {
		last := re.LastGeneratedAt.UTC()
		if last.Year() == now.UTC().Year() && last.Month() == now.UTC().Month() {
			return false
		}
	}
	return now.Day() >= targetDay(re.DayOfMonth, now)
}

// occurrenceDate is the day the generated expense is dated: the template's
// target day in the current month.
func occurrenceDate(re core.RecurringExpense, now time.Time) time.Time {
	day := targetDay(re.DayOfMonth, now)
	return time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
}

func targetDay(dayOfMonth int, now time.Time) int {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if dayOfMonth > lastDay {
		return lastDay
	}
	return dayOfMonth
}
