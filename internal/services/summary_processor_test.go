package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"saldo/internal/amqp"
)

type fakeSummaryStore struct {
	rebuilt []string
	err     error
}

func (f *fakeSummaryStore) RebuildMonthlySummary(ctx context.Context, periodMonth string) error {
	if f.err != nil {
		return f.err
	}
	f.rebuilt = append(f.rebuilt, periodMonth)
	return nil
}

func TestSummaryProcessor_HandleEvent(t *testing.T) {
	store := &fakeSummaryStore{}
	p := NewSummaryProcessor(store, nil)

	event := amqp.NewTransactionEvent(amqp.EntityExpense, amqp.ActionCreated, "exp-1",
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	if err := p.HandleEvent(context.Background(), &event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(store.rebuilt) != 1 || store.rebuilt[0] != "2025-06" {
		t.Errorf("rebuilt = %v, want [2025-06]", store.rebuilt)
	}
}

func TestSummaryProcessor_HandleEventErrors(t *testing.T) {
	t.Run("invalid period", func(t *testing.T) {
		p := NewSummaryProcessor(&fakeSummaryStore{}, nil)
		event := amqp.TransactionEvent{Entity: amqp.EntityExpense, Action: amqp.ActionCreated, ID: "x", PeriodMonth: "junio"}
		if err := p.HandleEvent(context.Background(), &event); err == nil {
			t.Error("HandleEvent() accepted a malformed period")
		}
	})

	t.Run("rebuild failure propagates", func(t *testing.T) {
		boom := errors.New("db locked")
		p := NewSummaryProcessor(&fakeSummaryStore{err: boom}, nil)
		event := amqp.NewTransactionEvent(amqp.EntityInvestment, amqp.ActionCreated, "inv-1", time.Now())
		if err := p.HandleEvent(context.Background(), &event); !errors.Is(err, boom) {
			t.Errorf("HandleEvent() error = %v, want wrapped %v", err, boom)
		}
	})
}
