package http

import (
	"time"

	"saldo/internal/core"
	"saldo/internal/currency"
	"saldo/internal/services"
)

// Responses carry both raw minor units and a display string so clients never
// re-implement currency formatting.

type balanceResponse struct {
	core.BalanceData
	Formatted struct {
		NetBalance string `json:"net_balance"`
		Income     string `json:"income"`
		Expenses   string `json:"expenses"`
		Investment string `json:"investment"`
	} `json:"formatted"`
}

type categoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji,omitempty"`
	Type      string `json:"type"`
	SortOrder int    `json:"sort_order"`
}

type expenseResponse struct {
	ID              string            `json:"id"`
	AmountMinor     int64             `json:"amount_minor"`
	AmountFormatted string            `json:"amount_formatted"`
	CategoryID      string            `json:"category_id"`
	Category        *categoryResponse `json:"category,omitempty"`
	CurrencyCode    string            `json:"currency_code"`
	DeviceID        string            `json:"device_id,omitempty"`
	Kind            string            `json:"kind"`
	Note            string            `json:"note,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type categoryTotalResponse struct {
	core.CategoryTotal
	AmountFormatted string `json:"amount_formatted"`
}

type platformResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type accountResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	CurrencyCode string            `json:"currency_code"`
	Type         string            `json:"type"`
	Platform     *platformResponse `json:"platform,omitempty"`
}

type investmentResponse struct {
	ID              string           `json:"id"`
	AccountID       string           `json:"account_id"`
	Account         *accountResponse `json:"account,omitempty"`
	AmountMinor     int64            `json:"amount_minor"`
	AmountFormatted string           `json:"amount_formatted"`
	Kind            string           `json:"kind"`
	LinkedExpenseID string           `json:"linked_expense_id,omitempty"`
	Note            string           `json:"note,omitempty"`
	OccurredAt      time.Time        `json:"occurred_at"`
}

type budgetStatusResponse struct {
	ID                  string  `json:"id"`
	AmountMinor         int64   `json:"amount_minor"`
	AmountFormatted     string  `json:"amount_formatted"`
	Scope               string  `json:"scope"`
	CategoryID          string  `json:"category_id,omitempty"`
	PeriodMonth         string  `json:"period_month"`
	WarningThresholdPct int     `json:"warning_threshold_pct"`
	Spent               float64 `json:"spent"`
	Remaining           float64 `json:"remaining"`
	PctUsed             float64 `json:"pct_used"`
	Warning             bool    `json:"warning"`
}

func (s *Server) buildBalanceResponse(data core.BalanceData) balanceResponse {
	resp := balanceResponse{BalanceData: data}
	resp.Formatted.NetBalance = s.formatter.Format(data.NetBalance, true)
	resp.Formatted.Income = s.formatter.Format(data.Income, true)
	resp.Formatted.Expenses = s.formatter.Format(data.Expenses, true)
	resp.Formatted.Investment = s.formatter.Format(data.Investment, true)
	return resp
}

func buildCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Emoji:     c.Emoji,
		Type:      string(c.Type),
		SortOrder: c.SortOrder,
	}
}

func buildExpenseResponse(e core.Expense) expenseResponse {
	resp := expenseResponse{
		ID:              e.ID,
		AmountMinor:     e.Amount.Cents,
		AmountFormatted: currency.NewFormatter(e.CurrencyCode).FormatMinor(e.Amount.Cents),
		CategoryID:      e.CategoryID,
		CurrencyCode:    e.CurrencyCode,
		DeviceID:        e.DeviceID,
		Kind:            string(e.Kind),
		Note:            e.Note,
		OccurredAt:      e.OccurredAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Category != nil {
		c := buildCategoryResponse(*e.Category)
		resp.Category = &c
	}
	return resp
}

func buildExpenseResponses(rows []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(rows))
	for _, e := range rows {
		out = append(out, buildExpenseResponse(e))
	}
	return out
}

func (s *Server) buildCategoryTotalResponses(totals []core.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryTotalResponse{
			CategoryTotal:   t,
			AmountFormatted: s.formatter.Format(t.Amount, true),
		})
	}
	return out
}

func buildAccountResponse(a core.InvestmentAccount) accountResponse {
	resp := accountResponse{
		ID:           a.ID,
		Name:         a.Name,
		CurrencyCode: a.CurrencyCode,
		Type:         string(a.Type),
	}
	if a.Platform != nil {
		resp.Platform = &platformResponse{ID: a.Platform.ID, Name: a.Platform.Name}
	}
	return resp
}

func (s *Server) buildInvestmentResponse(t core.InvestmentTransaction) investmentResponse {
	code := s.formatter.Code()
	if t.Account != nil && t.Account.CurrencyCode != "" {
		code = t.Account.CurrencyCode
	}
	resp := investmentResponse{
		ID:              t.ID,
		AccountID:       t.AccountID,
		AmountMinor:     t.Amount.Cents,
		AmountFormatted: currency.NewFormatter(code).FormatMinor(t.Amount.Cents),
		Kind:            string(t.Kind),
		LinkedExpenseID: t.LinkedExpenseID,
		Note:            t.Note,
		OccurredAt:      t.OccurredAt,
	}
	if t.Account != nil {
		a := buildAccountResponse(*t.Account)
		resp.Account = &a
	}
	return resp
}

func (s *Server) buildInvestmentResponses(rows []core.InvestmentTransaction) []investmentResponse {
	out := make([]investmentResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, s.buildInvestmentResponse(t))
	}
	return out
}

func (s *Server) buildBudgetStatusResponse(st services.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		ID:                  st.Budget.ID,
		AmountMinor:         st.Budget.Amount.Cents,
		AmountFormatted:     s.formatter.FormatMinor(st.Budget.Amount.Cents),
		Scope:               string(st.Budget.Scope),
		CategoryID:          st.Budget.CategoryID,
		PeriodMonth:         st.Budget.PeriodMonth,
		WarningThresholdPct: st.Budget.WarningThresholdPct,
		Spent:               st.Spent,
		Remaining:           st.Remaining,
		PctUsed:             st.PctUsed,
		Warning:             st.Warning,
	}
}
