// Package ledger holds the ordered transaction sequence and the pure
// transition function that mutates it.
package ledger

import "fintrack/internal/core"

// ActionKind tags an Action.
type ActionKind int

const (
	ActionAppend ActionKind = iota + 1
	ActionRemoveAt
)

func (k ActionKind) String() string {
	switch k {
	case ActionAppend:
		return "append"
	case ActionRemoveAt:
		return "remove"
	default:
		return "unknown"
	}
}

// Action is a state transition request. Transaction is set for
// ActionAppend, Index for ActionRemoveAt.
type Action struct {
	Kind        ActionKind
	Transaction core.Transaction
	Index       int
}

// Append builds an action adding tx at the end of the sequence.
func Append(tx core.Transaction) Action {
	return Action{Kind: ActionAppend, Transaction: tx}
}

// RemoveAt builds an action removing the record at index.
func RemoveAt(index int) Action {
	return Action{Kind: ActionRemoveAt, Index: index}
}

// Reduce returns the state after applying a. The input slice is never
// modified. An out-of-range RemoveAt or an unknown kind returns a copy of
// the state unchanged.
func Reduce(state []core.Transaction, a Action) []core.Transaction {
	switch a.Kind {
	case ActionAppend:
		next := make([]core.Transaction, 0, len(state)+1)
		next = append(next, state...)
		return append(next, a.Transaction)
	case ActionRemoveAt:
		next := make([]core.Transaction, 0, len(state))
		for i, tx := range state {
			if i != a.Index {
				next = append(next, tx)
			}
		}
		return next
	default:
		return clone(state)
	}
}

func clone(state []core.Transaction) []core.Transaction {
	next := make([]core.Transaction, len(state))
	copy(next, state)
	return next
}
