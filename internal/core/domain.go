package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Expense kinds. A single row type carries both directions of cash
	// flow, discriminated by Kind.
	KindExpense ExpenseKind = "expense"
	KindIncome  ExpenseKind = "income"

	// Investment transaction kinds.
	KindContribution InvestmentKind = "contribution"
	KindWithdrawal   InvestmentKind = "withdrawal"
	KindRebalance    InvestmentKind = "rebalance"

	// Category types.
	CategoryExpense    CategoryType = "expense"
	CategoryIncome     CategoryType = "income"
	CategoryInvestment CategoryType = "investment"

	// Investment account types.
	AccountBrokerage AccountType = "brokerage"
	AccountSavings   AccountType = "savings"
	AccountCrypto    AccountType = "crypto"
	AccountOther     AccountType = "other"

	// Budget scopes.
	ScopeAll      BudgetScope = "all"
	ScopeCategory BudgetScope = "category"
)

type (
	ExpenseKind    string
	InvestmentKind string
	CategoryType   string
	AccountType    string
	BudgetScope    string

	// Money is an amount in integer minor units (cents). All arithmetic
	// happens on cents; conversion to major units is display-only.
	Money struct {
		Cents int64
	}

	// Range is a closed date interval. A zero Start or End means the bound
	// is open on that side.
	Range struct {
		Start time.Time
		End   time.Time
	}

	Category struct {
		ID        string
		Name      string
		Emoji     string
		Type      CategoryType
		SortOrder int
		UpdatedAt time.Time
	}

	// Expense is a single cash-flow row. Income rows live in the same
	// table, discriminated by Kind. DeletedAt non-nil marks a soft-deleted
	// row that must never enter an aggregate.
	Expense struct {
		ID           string
		Amount       Money
		CategoryID   string
		Category     *Category // populated when fetched with expansion
		CurrencyCode string
		DeviceID     string
		Kind         ExpenseKind
		Note         string
		OccurredAt   time.Time
		UpdatedAt    time.Time
		DeletedAt    *time.Time
	}

	InvestmentPlatform struct {
		ID        string
		Name      string
		UpdatedAt time.Time
	}

	InvestmentAccount struct {
		ID           string
		Name         string
		CurrencyCode string
		Type         AccountType
		PlatformID   string
		Platform     *InvestmentPlatform
		UpdatedAt    time.Time
	}

	InvestmentTransaction struct {
		ID              string
		AccountID       string
		Account         *InvestmentAccount
		Amount          Money
		Kind            InvestmentKind
		LinkedExpenseID string // optional cross-reference to an offsetting expense
		DeviceID        string
		Note            string
		OccurredAt      time.Time
		UpdatedAt       time.Time
	}

	Budget struct {
		ID                  string
		Amount              Money
		Scope               BudgetScope
		CategoryID          string // required iff Scope == ScopeCategory
		PeriodMonth         string // "2006-01"
		WarningThresholdPct int
		UpdatedAt           time.Time
	}

	// RecurringExpense is a template from which concrete expenses are
	// generated once per month on DayOfMonth.
	RecurringExpense struct {
		ID              string
		Amount          Money
		CategoryID      string
		CurrencyCode    string
		Kind            ExpenseKind
		Note            string
		DayOfMonth      int
		IsActive        bool
		LastGeneratedAt *time.Time
		UpdatedAt       time.Time
	}

	// MonthlySummary is a materialized per-month rollup maintained by the
	// summary worker. Never read by the aggregators, which always compute
	// from base rows.
	MonthlySummary struct {
		PeriodMonth  string
		Income       Money
		Expense      Money
		Contribution Money
		UpdatedAt    time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrEmptyCategory   = errors.New("empty category id")
	ErrEmptyAccount    = errors.New("empty account id")
	ErrInvalidRange    = errors.New("range end before start")
)

// Major returns the value in major currency units for display. Calculations
// stay on Cents to avoid floating-point drift.
func (m Money) Major() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k ExpenseKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

func (k InvestmentKind) Valid() bool {
	switch k {
	case KindContribution, KindWithdrawal, KindRebalance:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryExpense, CategoryIncome, CategoryInvestment:
		return true
	}
	return false
}

// CompatibleWith reports whether an expense of the given kind may reference
// a category of this type.
func (t CategoryType) CompatibleWith(k ExpenseKind) bool {
	switch k {
	case KindExpense:
		return t == CategoryExpense
	case KindIncome:
		return t == CategoryIncome
	}
	return false
}

func (r Range) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether t falls inside the closed interval. Open bounds
// always match.
func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// MonthRange returns the closed interval covering a "2006-01" period.
func MonthRange(periodMonth string) (Range, error) {
	start, err := time.Parse("2006-01", periodMonth)
	if err != nil {
		return Range{}, errors.New("invalid period month: " + periodMonth)
	}
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Range{Start: start, End: end}, nil
}

// PeriodOf returns the "2006-01" period a timestamp belongs to.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func (e Expense) Deleted() bool {
	return e.DeletedAt != nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(e.CurrencyCode)) != 3 {
		return ErrInvalidCurrency
	}
	if len(e.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (t InvestmentTransaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	switch b.Scope {
	case ScopeAll:
		if b.CategoryID != "" {
			return errors.New("category id must be empty for scope all")
		}
	case ScopeCategory:
		if b.CategoryID == "" {
			return errors.New("category id required for scope category")
		}
	default:
		return errors.New("invalid budget scope")
	}
	if b.WarningThresholdPct < 0 || b.WarningThresholdPct > 100 {
		return errors.New("warning threshold must be between 0 and 100")
	}
	if _, err := time.Parse("2006-01", b.PeriodMonth); err != nil {
		return errors.New("invalid period month: " + b.PeriodMonth)
	}
	return nil
}

func (re RecurringExpense) Validate() error {
	if err := re.Amount.Validate(); err != nil {
		return err
	}
	if !re.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(re.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if re.DayOfMonth < 1 || re.DayOfMonth > 31 {
		return errors.New("day of month must be between 1 and 31")
	}
	return nil
}
