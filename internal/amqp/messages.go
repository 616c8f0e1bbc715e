package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// TransactionEvent is published after a ledger mutation was persisted.
// Transaction is set for appends only.
type TransactionEvent struct {
	Action      string            `json:"action"`
	Index       int               `json:"index"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Count       int               `json:"count"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewAppendEvent describes tx landing at index, leaving count records.
func NewAppendEvent(index int, tx core.Transaction, count int) *TransactionEvent {
	return &TransactionEvent{
		Action:      "append",
		Index:       index,
		Transaction: &tx,
		Count:       count,
		Timestamp:   time.Now(),
	}
}

// NewRemoveEvent describes a removal request at index, leaving count records.
func NewRemoveEvent(index, count int) *TransactionEvent {
	return &TransactionEvent{
		Action:    "remove",
		Index:     index,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
