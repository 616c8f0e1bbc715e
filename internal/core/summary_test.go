package core

import "testing"

func sample() []Transaction {
	return []Transaction{
		{Type: Income, Description: "Salary", Amount: "1000", Date: "2024-01-01"},
		{Type: Expense, Description: "Rent", Amount: "400", Date: "2024-01-02"},
		{Type: Expense, Description: "Coffee", Amount: "3.25", Date: "2024-01-01"},
		{Type: "Gift", Description: "Malformed type", Amount: "5", Date: "2024-01-03"},
		{Type: Income, Description: "Garbage amount", Amount: "n/a", Date: "2024-01-03"},
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		txs    []Transaction
		filter string
		want   Totals
	}{
		{"empty", nil, "", Totals{}},
		{"empty with filter", nil, "2024-01-01", Totals{}},
		{"no match", sample(), "1999-12-31", Totals{}},
		{"all", sample(), "", Totals{Income: 1000, Expense: 408.25, Balance: 591.75}},
		{"by date", sample(), "2024-01-01", Totals{Income: 1000, Expense: 3.25, Balance: 996.75}},
		{"malformed counts as expense", sample(), "2024-01-03", Totals{Income: 0, Expense: 5, Balance: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.txs, tt.filter)
			if got != tt.want {
				t.Fatalf("Aggregate=%+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAggregateBalanceIsIncomeMinusExpense(t *testing.T) {
	txs := sample()
	for _, filter := range []string{"", "2024-01-01", "2024-01-02", "2024-01-03", "nope"} {
		got := Aggregate(txs, filter)
		if got.Balance != got.Income-got.Expense {
			t.Fatalf("filter %q: balance %v != %v - %v", filter, got.Balance, got.Income, got.Expense)
		}
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	txs := sample()
	before := append([]Transaction(nil), txs...)
	_ = Aggregate(txs, "")
	for i := range txs {
		if txs[i] != before[i] {
			t.Fatalf("record %d mutated", i)
		}
	}
}

func TestFilterByDate(t *testing.T) {
	entries := FilterByDate(sample(), "2024-01-01")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Index != 0 || entries[1].Index != 2 {
		t.Fatalf("unexpected indexes: %d, %d", entries[0].Index, entries[1].Index)
	}
	if entries[1].Transaction.Description != "Coffee" {
		t.Fatalf("unexpected entry: %+v", entries[1])
	}

	all := FilterByDate(sample(), "")
	if len(all) != len(sample()) {
		t.Fatalf("expected every record without filter, got %d", len(all))
	}
	for i, e := range all {
		if e.Index != i {
			t.Fatalf("entry %d has index %d", i, e.Index)
		}
	}
}
