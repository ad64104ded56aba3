package core

import "sort"

// UncategorizedName is the bucket for expense rows whose category reference
// is missing or was not expanded.
const UncategorizedName = "Sin categoría"

// CategoryTotal is a per-category spending sum in major units.
type CategoryTotal struct {
	CategoryID string  `json:"category_id"`
	Name       string  `json:"name"`
	Emoji      string  `json:"emoji,omitempty"`
	Amount     float64 `json:"amount"`
}

// CategoryTotals collapses expense rows into per-category totals.
//
// Only kind=expense rows accumulate; income rows are skipped even when
// present in the input. Soft-deleted rows are skipped. The result keeps
// first-seen insertion order; callers wanting a ranked list sort explicitly.
// Rows without an expanded category land in the "Sin categoría" bucket keyed
// by their raw category id (empty for a null reference).
func CategoryTotals(rows []Expense) []CategoryTotal {
	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)

	for _, e := range rows {
		if e.Kind != KindExpense || e.Deleted() {
			continue
		}

		key := e.CategoryID
		i, seen := index[key]
		if !seen {
			t := CategoryTotal{CategoryID: e.CategoryID, Name: UncategorizedName}
			if e.Category != nil {
				t.Name = e.Category.Name
				t.Emoji = e.Category.Emoji
			}
			index[key] = len(totals)
			totals = append(totals, t)
			i = len(totals) - 1
		}
		totals[i].Amount += e.Amount.Major()
	}

	return totals
}

// SortByAmount orders totals by amount descending, in place. Stable so that
// equal amounts keep insertion order.
func SortByAmount(totals []CategoryTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount > totals[j].Amount
	})
}

// TopN returns at most n leading entries. n <= 0 returns the input unchanged.
func TopN(totals []CategoryTotal, n int) []CategoryTotal {
	if n <= 0 || n >= len(totals) {
		return totals
	}
	return totals[:n]
}
