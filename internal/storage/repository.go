package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"saldo/internal/core"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// timeLayout is the canonical timestamp encoding. Always UTC at second
// precision so lexical comparison matches chronological order.
const timeLayout = time.RFC3339

// SQLiteRepository implements the data-access layer over a local SQLite
// database, standing in for the managed remote store the mobile client
// talked to.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// rangeClause appends occurred_at bounds for the closed interval to a query.
func rangeClause(query string, column string, rng core.Range, args []any) (string, []any) {
	if !rng.Start.IsZero() {
		query += " AND " + column + " >= ?"
		args = append(args, encodeTime(rng.Start))
	}
	if !rng.End.IsZero() {
		query += " AND " + column + " <= ?"
		args = append(args, encodeTime(rng.End))
	}
	return query, args
}

// ListExpenses returns live (non-soft-deleted) expense rows inside the
// range, newest first, each expanded with its category when it resolves.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, rng core.Range) ([]core.Expense, error) {
	query := `SELECT e.id, e.amount_minor, e.category_id, e.currency_code, e.device_id,
		e.kind, e.note, e.occurred_at, e.updated_at,
		c.id, c.name, c.emoji, c.type, c.sort_order, c.updated_at
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.deleted_at IS NULL`
	var args []any
	query, args = rangeClause(query, "e.occurred_at", rng, args)
	query += " ORDER BY e.occurred_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e            core.Expense
			occurredAt   string
			updatedAt    string
			catID        sql.NullString
			catName      sql.NullString
			catEmoji     sql.NullString
			catType      sql.NullString
			catSortOrder sql.NullInt64
			catUpdatedAt sql.NullString
		)
		err := rows.Scan(&e.ID, &e.Amount.Cents, &e.CategoryID, &e.CurrencyCode, &e.DeviceID,
			&e.Kind, &e.Note, &occurredAt, &updatedAt,
			&catID, &catName, &catEmoji, &catType, &catSortOrder, &catUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.OccurredAt = decodeTime(occurredAt)
		e.UpdatedAt = decodeTime(updatedAt)
		if catID.Valid {
			e.Category = &core.Category{
				ID:        catID.String,
				Name:      catName.String,
				Emoji:     catEmoji.String,
				Type:      core.CategoryType(catType.String),
				SortOrder: int(catSortOrder.Int64),
				UpdatedAt: decodeTime(catUpdatedAt.String),
			}
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// CreateExpense inserts a new expense row, assigning its id and updated_at.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = uuid.NewString()
	e.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.UpdatedAt
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses
		(id, amount_minor, category_id, currency_code, device_id, kind, note, occurred_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.Cents, e.CategoryID, e.CurrencyCode, e.DeviceID,
		string(e.Kind), e.Note, encodeTime(e.OccurredAt), encodeTime(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

// SoftDeleteExpense marks an expense deleted without removing the row.
// Already-deleted rows report ErrNotFound so a double delete is visible.
func (r *SQLiteRepository) SoftDeleteExpense(ctx context.Context, id string) error {
	now := encodeTime(time.Now())
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetExpense fetches a single expense row by id, deleted or not.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var (
		e          core.Expense
		occurredAt string
		updatedAt  string
		deletedAt  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, amount_minor, category_id, currency_code,
		device_id, kind, note, occurred_at, updated_at, deleted_at
		FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Amount.Cents, &e.CategoryID, &e.CurrencyCode,
			&e.DeviceID, &e.Kind, &e.Note, &occurredAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	e.OccurredAt = decodeTime(occurredAt)
	e.UpdatedAt = decodeTime(updatedAt)
	if deletedAt.Valid {
		t := decodeTime(deletedAt.String)
		e.DeletedAt = &t
	}
	return e, nil
}

// GetCategory fetches a category by id.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var (
		c         core.Category
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, emoji, type, sort_order, updated_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Emoji, &c.Type, &c.SortOrder, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.UpdatedAt = decodeTime(updatedAt)
	return c, nil
}

// ListCategories returns categories in display order, optionally filtered by
// type (empty means all).
func (r *SQLiteRepository) ListCategories(ctx context.Context, typ core.CategoryType) ([]core.Category, error) {
	query := `SELECT id, name, emoji, type, sort_order, updated_at FROM categories`
	var args []any
	if typ != "" {
		query += ` WHERE type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY sort_order ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var (
			c         core.Category
			updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.Type, &c.SortOrder, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.UpdatedAt = decodeTime(updatedAt)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListInvestmentTransactions returns investment rows inside the range,
// newest first, expanded with account and platform. Investment rows have no
// soft-delete flag; all are live.
func (r *SQLiteRepository) ListInvestmentTransactions(ctx context.Context, rng core.Range) ([]core.InvestmentTransaction, error) {
	query := `SELECT t.id, t.account_id, t.amount_minor, t.kind, t.linked_expense_id,
		t.device_id, t.note, t.occurred_at, t.updated_at,
		a.id, a.name, a.currency_code, a.type, a.platform_id, a.updated_at,
		p.id, p.name, p.updated_at
		FROM investment_transactions t
		LEFT JOIN investment_accounts a ON a.id = t.account_id
		LEFT JOIN investment_platforms p ON p.id = a.platform_id
		WHERE 1 = 1`
	var args []any
	query, args = rangeClause(query, "t.occurred_at", rng, args)
	query += " ORDER BY t.occurred_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list investment transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.InvestmentTransaction
	for rows.Next() {
		var (
			t            core.InvestmentTransaction
			linked       sql.NullString
			occurredAt   string
			updatedAt    string
			accID        sql.NullString
			accName      sql.NullString
			accCurrency  sql.NullString
			accType      sql.NullString
			accPlatform  sql.NullString
			accUpdatedAt sql.NullString
			platID       sql.NullString
			platName     sql.NullString
			platUpdated  sql.NullString
		)
		err := rows.Scan(&t.ID, &t.AccountID, &t.Amount.Cents, &t.Kind, &linked,
			&t.DeviceID, &t.Note, &occurredAt, &updatedAt,
			&accID, &accName, &accCurrency, &accType, &accPlatform, &accUpdatedAt,
			&platID, &platName, &platUpdated)
		if err != nil {
			return nil, fmt.Errorf("scan investment transaction: %w", err)
		}
		t.LinkedExpenseID = linked.String
		t.OccurredAt = decodeTime(occurredAt)
		t.UpdatedAt = decodeTime(updatedAt)
		if accID.Valid {
			t.Account = &core.InvestmentAccount{
				ID:           accID.String,
				Name:         accName.String,
				CurrencyCode: accCurrency.String,
				Type:         core.AccountType(accType.String),
				PlatformID:   accPlatform.String,
				UpdatedAt:    decodeTime(accUpdatedAt.String),
			}
			if platID.Valid {
				t.Account.Platform = &core.InvestmentPlatform{
					ID:        platID.String,
					Name:      platName.String,
					UpdatedAt: decodeTime(platUpdated.String),
				}
			}
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list investment transactions: %w", err)
	}
	return txs, nil
}

// CreateInvestmentTransaction inserts a new investment row.
func (r *SQLiteRepository) CreateInvestmentTransaction(ctx context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error) {
	t.ID = uuid.NewString()
	t.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if t.OccurredAt.IsZero() {
		t.OccurredAt = t.UpdatedAt
	}

	var linked any
	if t.LinkedExpenseID != "" {
		linked = t.LinkedExpenseID
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO investment_transactions
		(id, account_id, amount_minor, kind, linked_expense_id, device_id, note, occurred_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Amount.Cents, string(t.Kind), linked,
		t.DeviceID, t.Note, encodeTime(t.OccurredAt), encodeTime(t.UpdatedAt))
	if err != nil {
		return core.InvestmentTransaction{}, fmt.Errorf("create investment transaction: %w", err)
	}
	return t, nil
}

// GetInvestmentAccount fetches an account by id.
func (r *SQLiteRepository) GetInvestmentAccount(ctx context.Context, id string) (core.InvestmentAccount, error) {
	var (
		a         core.InvestmentAccount
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, currency_code, type, platform_id, updated_at
		FROM investment_accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.CurrencyCode, &a.Type, &a.PlatformID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InvestmentAccount{}, ErrNotFound
	}
	if err != nil {
		return core.InvestmentAccount{}, fmt.Errorf("get investment account: %w", err)
	}
	a.UpdatedAt = decodeTime(updatedAt)
	return a, nil
}

// ListInvestmentAccounts returns all accounts with their platform, ordered
// by name.
func (r *SQLiteRepository) ListInvestmentAccounts(ctx context.Context) ([]core.InvestmentAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT a.id, a.name, a.currency_code, a.type, a.platform_id, a.updated_at,
		p.id, p.name, p.updated_at
		FROM investment_accounts a
		LEFT JOIN investment_platforms p ON p.id = a.platform_id
		ORDER BY a.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list investment accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.InvestmentAccount
	for rows.Next() {
		var (
			a           core.InvestmentAccount
			updatedAt   string
			platID      sql.NullString
			platName    sql.NullString
			platUpdated sql.NullString
		)
		err := rows.Scan(&a.ID, &a.Name, &a.CurrencyCode, &a.Type, &a.PlatformID, &updatedAt,
			&platID, &platName, &platUpdated)
		if err != nil {
			return nil, fmt.Errorf("scan investment account: %w", err)
		}
		a.UpdatedAt = decodeTime(updatedAt)
		if platID.Valid {
			a.Platform = &core.InvestmentPlatform{
				ID:        platID.String,
				Name:      platName.String,
				UpdatedAt: decodeTime(platUpdated.String),
			}
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list investment accounts: %w", err)
	}
	return accounts, nil
}

// ListBudgets returns budgets for a "2006-01" period.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, periodMonth string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, amount_minor, scope, category_id,
		period_month, warning_threshold_pct, updated_at
		FROM budgets WHERE period_month = ? ORDER BY scope ASC, id ASC`, periodMonth)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b          core.Budget
			categoryID sql.NullString
			updatedAt  string
		)
		err := rows.Scan(&b.ID, &b.Amount.Cents, &b.Scope, &categoryID,
			&b.PeriodMonth, &b.WarningThresholdPct, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CategoryID = categoryID.String
		b.UpdatedAt = decodeTime(updatedAt)
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// CreateBudget inserts a budget row.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	b.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	var categoryID any
	if b.CategoryID != "" {
		categoryID = b.CategoryID
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO budgets
		(id, amount_minor, scope, category_id, period_month, warning_threshold_pct, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Amount.Cents, string(b.Scope), categoryID,
		b.PeriodMonth, b.WarningThresholdPct, encodeTime(b.UpdatedAt))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

// ListActiveRecurringExpenses returns every active recurring template.
func (r *SQLiteRepository) ListActiveRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, amount_minor, category_id, currency_code,
		kind, note, day_of_month, is_active, last_generated_at, updated_at
		FROM recurring_expenses WHERE is_active = 1 ORDER BY day_of_month ASC`)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringExpense
	for rows.Next() {
		var (
			re            core.RecurringExpense
			lastGenerated sql.NullString
			updatedAt     string
		)
		err := rows.Scan(&re.ID, &re.Amount.Cents, &re.CategoryID, &re.CurrencyCode,
			&re.Kind, &re.Note, &re.DayOfMonth, &re.IsActive, &lastGenerated, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		if lastGenerated.Valid {
			t := decodeTime(lastGenerated.String)
			re.LastGeneratedAt = &t
		}
		re.UpdatedAt = decodeTime(updatedAt)
		templates = append(templates, re)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	return templates, nil
}

// MarkRecurringGenerated records that a template produced an expense at t.
func (r *SQLiteRepository) MarkRecurringGenerated(ctx context.Context, id string, t time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_expenses SET last_generated_at = ?, updated_at = ? WHERE id = ?`,
		encodeTime(t), encodeTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark recurring generated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark recurring generated: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RebuildMonthlySummary recomputes a period's materialized rollup from base
// rows and upserts it. Soft-deleted expenses are excluded; only contribution
// investment rows count.
func (r *SQLiteRepository) RebuildMonthlySummary(ctx context.Context, periodMonth string) error {
	rng, err := core.MonthRange(periodMonth)
	if err != nil {
		return fmt.Errorf("rebuild monthly summary: %w", err)
	}
	start, end := encodeTime(rng.Start), encodeTime(rng.End)

	var income, expense, contribution int64
	err = r.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_minor ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_minor ELSE 0 END), 0)
		FROM expenses
		WHERE deleted_at IS NULL AND occurred_at >= ? AND occurred_at <= ?`,
		start, end).Scan(&income, &expense)
	if err != nil {
		return fmt.Errorf("sum expenses for summary: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_minor), 0)
		FROM investment_transactions
		WHERE kind = 'contribution' AND occurred_at >= ? AND occurred_at <= ?`,
		start, end).Scan(&contribution)
	if err != nil {
		return fmt.Errorf("sum contributions for summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO monthly_summaries
		(period_month, income_minor, expense_minor, contribution_minor, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (period_month) DO UPDATE SET
			income_minor = excluded.income_minor,
			expense_minor = excluded.expense_minor,
			contribution_minor = excluded.contribution_minor,
			updated_at = excluded.updated_at`,
		periodMonth, income, expense, contribution, encodeTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert monthly summary: %w", err)
	}
	return nil
}

// GetMonthlySummary fetches a period's materialized rollup.
func (r *SQLiteRepository) GetMonthlySummary(ctx context.Context, periodMonth string) (core.MonthlySummary, error) {
	var (
		s         core.MonthlySummary
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `SELECT period_month, income_minor, expense_minor,
		contribution_minor, updated_at FROM monthly_summaries WHERE period_month = ?`, periodMonth).
		Scan(&s.PeriodMonth, &s.Income.Cents, &s.Expense.Cents, &s.Contribution.Cents, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlySummary{}, ErrNotFound
	}
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("get monthly summary: %w", err)
	}
	s.UpdatedAt = decodeTime(updatedAt)
	return s, nil
}
