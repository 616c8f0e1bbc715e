package core

// Totals is the aggregate summary over a set of transactions.
type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// Entry is a transaction together with its position in the full ledger.
type Entry struct {
	Index       int
	Transaction Transaction
}

// Aggregate sums income and expense over txs, skipping records whose date
// differs from filterDate when filterDate is set. Balance is computed once
// from the final totals.
func Aggregate(txs []Transaction, filterDate string) Totals {
	var t Totals
	for _, tx := range txs {
		if filterDate != "" && tx.Date != filterDate {
			continue
		}
		amount := tx.Amount.Value()
		if tx.Type.IsIncome() {
			t.Income += amount
		} else {
			t.Expense += amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}

// FilterByDate returns the entries to display for filterDate, in ledger
// order. An empty filter keeps every record.
func FilterByDate(txs []Transaction, filterDate string) []Entry {
	out := make([]Entry, 0, len(txs))
	for i, tx := range txs {
		if filterDate != "" && tx.Date != filterDate {
			continue
		}
		out = append(out, Entry{Index: i, Transaction: tx})
	}
	return out
}
