package http

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/currency"
	"saldo/internal/services"
)

const maxBodyBytes = 1 << 20 // 1 MiB

var errEmptyBody = errors.New("empty request body")

// createExpenseRequest is the POST /api/expenses payload. The amount comes
// either as integer minor units or as a decimal string ("450.50"); exactly
// one of the two must be set.
type createExpenseRequest struct {
	AmountMinor  int64  `json:"amount_minor"`
	Amount       string `json:"amount"`
	CategoryID   string `json:"category_id"`
	CurrencyCode string `json:"currency_code"`
	DeviceID     string `json:"device_id"`
	Kind         string `json:"kind"`
	Note         string `json:"note"`
	OccurredAt   string `json:"occurred_at"`
}

type createInvestmentRequest struct {
	AccountID       string `json:"account_id"`
	AmountMinor     int64  `json:"amount_minor"`
	Amount          string `json:"amount"`
	Kind            string `json:"kind"`
	LinkedExpenseID string `json:"linked_expense_id"`
	DeviceID        string `json:"device_id"`
	Note            string `json:"note"`
	OccurredAt      string `json:"occurred_at"`
}

type createBudgetRequest struct {
	AmountMinor         int64  `json:"amount_minor"`
	Amount              string `json:"amount"`
	Scope               string `json:"scope"`
	CategoryID          string `json:"category_id"`
	PeriodMonth         string `json:"period_month"`
	WarningThresholdPct int    `json:"warning_threshold_pct"`
}

func decodeBody(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// resolveAmount turns the two accepted amount shapes into minor units.
func resolveAmount(amountMinor int64, amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amountMinor != 0 && amount != "" {
		return 0, errors.New("amount_minor and amount are mutually exclusive")
	}
	if amount != "" {
		return currency.ParseAmount(amount)
	}
	return amountMinor, nil
}

// resolveOccurredAt parses an optional timestamp. Empty means "now", decided
// later by the service. A plain date pins the time to midnight UTC.
func resolveOccurredAt(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, _, err := parseTimeParam(v)
	return t, err
}

func (req createExpenseRequest) toInput(defaultCurrency string) (services.CreateExpenseInput, error) {
	cents, err := resolveAmount(req.AmountMinor, req.Amount)
	if err != nil {
		return services.CreateExpenseInput{}, err
	}
	occurredAt, err := resolveOccurredAt(req.OccurredAt)
	if err != nil {
		return services.CreateExpenseInput{}, err
	}

	code := strings.TrimSpace(req.CurrencyCode)
	if code == "" {
		code = defaultCurrency
	}

	return services.CreateExpenseInput{
		AmountMinor:  cents,
		CategoryID:   strings.TrimSpace(req.CategoryID),
		CurrencyCode: code,
		DeviceID:     strings.TrimSpace(req.DeviceID),
		Kind:         core.ExpenseKind(strings.TrimSpace(req.Kind)),
		Note:         strings.TrimSpace(req.Note),
		OccurredAt:   occurredAt,
	}, nil
}

func (req createInvestmentRequest) toInput() (services.CreateInvestmentInput, error) {
	cents, err := resolveAmount(req.AmountMinor, req.Amount)
	if err != nil {
		return services.CreateInvestmentInput{}, err
	}
	occurredAt, err := resolveOccurredAt(req.OccurredAt)
	if err != nil {
		return services.CreateInvestmentInput{}, err
	}

	return services.CreateInvestmentInput{
		AccountID:       strings.TrimSpace(req.AccountID),
		AmountMinor:     cents,
		Kind:            core.InvestmentKind(strings.TrimSpace(req.Kind)),
		LinkedExpenseID: strings.TrimSpace(req.LinkedExpenseID),
		DeviceID:        strings.TrimSpace(req.DeviceID),
		Note:            strings.TrimSpace(req.Note),
		OccurredAt:      occurredAt,
	}, nil
}

func (req createBudgetRequest) toBudget() (core.Budget, error) {
	cents, err := resolveAmount(req.AmountMinor, req.Amount)
	if err != nil {
		return core.Budget{}, err
	}

	return core.Budget{
		Amount:              core.Money{Cents: cents},
		Scope:               core.BudgetScope(strings.TrimSpace(req.Scope)),
		CategoryID:          strings.TrimSpace(req.CategoryID),
		PeriodMonth:         strings.TrimSpace(req.PeriodMonth),
		WarningThresholdPct: req.WarningThresholdPct,
	}, nil
}
