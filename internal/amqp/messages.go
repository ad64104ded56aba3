package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entities and actions carried by transaction events.
const (
	EntityExpense    = "expense"
	EntityInvestment = "investment"

	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// TransactionEvent announces a successful write to a transaction table.
// Consumers use PeriodMonth to know which materialized rollup to rebuild;
// they never trust the event for amounts and always recompute from base rows.
type TransactionEvent struct {
	Entity      string    `json:"entity"`
	Action      string    `json:"action"`
	ID          string    `json:"id"`
	PeriodMonth string    `json:"period_month"`
	OccurredAt  time.Time `json:"occurred_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for a row that occurred at the given
// time.
func NewTransactionEvent(entity, action, id string, occurredAt time.Time) TransactionEvent {
	return TransactionEvent{
		Entity:      entity,
		Action:      action,
		ID:          id,
		PeriodMonth: occurredAt.UTC().Format("2006-01"),
		OccurredAt:  occurredAt,
		Timestamp:   time.Now().UTC(),
	}
}

// Validate checks that the event carries a known entity/action pair.
func (e TransactionEvent) Validate() error {
	if e.Entity != EntityExpense && e.Entity != EntityInvestment {
		return fmt.Errorf("unknown entity %q", e.Entity)
	}
	if e.Action != ActionCreated && e.Action != ActionDeleted {
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.ID == "" {
		return fmt.Errorf("empty event id")
	}
	return nil
}

// ToJSON serializes the event.
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON deserializes an event and validates it.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal transaction event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction event: %w", err)
	}
	return &e, nil
}
