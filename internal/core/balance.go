package core

// BalanceData is the computed balance summary over a date interval. Values
// are in major currency units; cent-level floating-point rounding is accepted
// because these figures are display-only.
type BalanceData struct {
	NetBalance float64 `json:"net_balance"`
	Income     float64 `json:"income"`
	Expenses   float64 `json:"expenses"`
	Investment float64 `json:"investment"`
}

// Summarize reduces expense and investment rows into a BalanceData.
//
// Soft-deleted expense rows are skipped even if the caller forgot to filter
// them. Investment rows count toward the Investment figure only when they are
// contributions: withdrawals and rebalances do not move the balance, only net
// new money set aside does.
func Summarize(expenses []Expense, investments []InvestmentTransaction) BalanceData {
	var d BalanceData

	for _, e := range expenses {
		if e.Deleted() {
			continue
		}
		amount := e.Amount.Major()
		if e.Kind == KindIncome {
			d.Income += amount
		} else {
			d.Expenses += amount
		}
	}

	for _, t := range investments {
		if t.Kind == KindContribution {
			d.Investment += t.Amount.Major()
		}
	}

	d.NetBalance = d.Income - d.Expenses - d.Investment
	return d
}
