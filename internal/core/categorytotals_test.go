package core

import (
	"testing"
	"time"
)

func cat(id, name, emoji string) *Category {
	return &Category{ID: id, Name: name, Emoji: emoji, Type: CategoryExpense}
}

func TestCategoryTotals(t *testing.T) {
	deleted := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	food := cat("c1", "Alimentación", "🍽️")
	transport := cat("c2", "Transporte", "🚗")

	tests := []struct {
		name string
		rows []Expense
		want []CategoryTotal
	}{
		{
			name: "empty input",
			rows: nil,
			want: []CategoryTotal{},
		},
		{
			name: "sums per category, income row in same category excluded",
			rows: []Expense{
				{Amount: Money{Cents: 120000}, Kind: KindExpense, CategoryID: "c1", Category: food},
				{Amount: Money{Cents: 30000}, Kind: KindExpense, CategoryID: "c1", Category: food},
				{Amount: Money{Cents: 500000}, Kind: KindIncome, CategoryID: "c1", Category: food},
			},
			want: []CategoryTotal{
				{CategoryID: "c1", Name: "Alimentación", Emoji: "🍽️", Amount: 1500},
			},
		},
		{
			name: "insertion order is first seen, not amount order",
			rows: []Expense{
				{Amount: Money{Cents: 10000}, Kind: KindExpense, CategoryID: "c2", Category: transport},
				{Amount: Money{Cents: 90000}, Kind: KindExpense, CategoryID: "c1", Category: food},
				{Amount: Money{Cents: 5000}, Kind: KindExpense, CategoryID: "c2", Category: transport},
			},
			want: []CategoryTotal{
				{CategoryID: "c2", Name: "Transporte", Emoji: "🚗", Amount: 150},
				{CategoryID: "c1", Name: "Alimentación", Emoji: "🍽️", Amount: 900},
			},
		},
		{
			name: "missing category buckets as uncategorized",
			rows: []Expense{
				{Amount: Money{Cents: 2500}, Kind: KindExpense},
				{Amount: Money{Cents: 2500}, Kind: KindExpense},
			},
			want: []CategoryTotal{
				{CategoryID: "", Name: UncategorizedName, Amount: 50},
			},
		},
		{
			name: "soft-deleted rows excluded",
			rows: []Expense{
				{Amount: Money{Cents: 10000}, Kind: KindExpense, CategoryID: "c1", Category: food},
				{Amount: Money{Cents: 99999}, Kind: KindExpense, CategoryID: "c1", Category: food, DeletedAt: &deleted},
			},
			want: []CategoryTotal{
				{CategoryID: "c1", Name: "Alimentación", Emoji: "🍽️", Amount: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryTotals(tt.rows)
			if len(got) != len(tt.want) {
				t.Fatalf("CategoryTotals() returned %d entries, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCategoryTotalsConservation(t *testing.T) {
	// The sum over all buckets must equal the sum over all live expense rows.
	rows := []Expense{
		{Amount: Money{Cents: 12345}, Kind: KindExpense, CategoryID: "a", Category: cat("a", "A", "")},
		{Amount: Money{Cents: 678}, Kind: KindExpense, CategoryID: "b", Category: cat("b", "B", "")},
		{Amount: Money{Cents: 90000}, Kind: KindExpense},
		{Amount: Money{Cents: 55555}, Kind: KindIncome, CategoryID: "a"},
	}

	var wantCents int64
	for _, e := range rows {
		if e.Kind == KindExpense && !e.Deleted() {
			wantCents += e.Amount.Cents
		}
	}

	var got float64
	for _, ct := range CategoryTotals(rows) {
		got += ct.Amount
	}
	if want := float64(wantCents) / 100; got != want {
		t.Errorf("sum over buckets = %v, want %v", got, want)
	}
}

func TestSortByAmountAndTopN(t *testing.T) {
	totals := []CategoryTotal{
		{Name: "Hogar", Amount: 1200},
		{Name: "Transporte", Amount: 800},
		{Name: "Alimentación", Amount: 1200},
		{Name: "Ocio", Amount: 100},
	}

	SortByAmount(totals)

	wantOrder := []string{"Hogar", "Alimentación", "Transporte", "Ocio"}
	for i, name := range wantOrder {
		if totals[i].Name != name {
			t.Fatalf("after sort, entry %d = %s, want %s", i, totals[i].Name, name)
		}
	}

	top := TopN(totals, 3)
	if len(top) != 3 {
		t.Errorf("TopN(3) returned %d entries", len(top))
	}
	if got := TopN(totals, 0); len(got) != len(totals) {
		t.Errorf("TopN(0) should return input unchanged, got %d entries", len(got))
	}
	if got := TopN(totals, 10); len(got) != len(totals) {
		t.Errorf("TopN beyond length should return input unchanged, got %d entries", len(got))
	}
}
