package core

import (
	"errors"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

type (
	TransactionType string

	// Transaction is a single income or expense record. It has no identifier;
	// identity is its position in the ledger.
	Transaction struct {
		Type        TransactionType `json:"type"`
		Description string          `json:"description"`
		Amount      Amount          `json:"amount"`
		Date        string          `json:"date"`
	}
)

var (
	ErrMissingType        = errors.New("missing type")
	ErrMissingDescription = errors.New("missing description")
	ErrMissingAmount      = errors.New("missing amount")
)

// IsSubmissionError reports whether err comes from ValidateSubmission.
func IsSubmissionError(err error) bool {
	return errors.Is(err, ErrMissingType) ||
		errors.Is(err, ErrMissingDescription) ||
		errors.Is(err, ErrMissingAmount)
}

// IsIncome reports whether the transaction counts towards income.
// Every other type, including malformed ones, counts as expense.
func (t TransactionType) IsIncome() bool {
	return t == Income
}

func (t TransactionType) String() string {
	return string(t)
}

// ValidateSubmission checks the fields a submitted record must carry: each
// must be non-empty. Stored records are never re-validated.
func (tx Transaction) ValidateSubmission() error {
	if tx.Type == "" {
		return ErrMissingType
	}
	if tx.Description == "" {
		return ErrMissingDescription
	}
	if tx.Amount == "" {
		return ErrMissingAmount
	}
	return nil
}
