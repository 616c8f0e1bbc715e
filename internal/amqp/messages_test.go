package amqp

import (
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestAppendEventJSON(t *testing.T) {
	tx := core.Transaction{Type: core.Income, Description: "Salary", Amount: "1000", Date: "2024-01-01"}
	e := NewAppendEvent(0, tx, 1)
	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"action":"append"`) || !strings.Contains(string(body), `"amount":"1000"`) {
		t.Fatalf("unexpected body: %s", body)
	}

	parsed, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Transaction == nil || *parsed.Transaction != tx || parsed.Count != 1 || parsed.Index != 0 {
		t.Fatalf("unexpected event: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(e.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", parsed.Timestamp, e.Timestamp)
	}
}

func TestRemoveEventOmitsTransaction(t *testing.T) {
	body, err := NewRemoveEvent(3, 2).ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), "transaction\"") {
		t.Fatalf("remove event should not carry a transaction: %s", body)
	}
	if !strings.Contains(string(body), `"action":"remove"`) || !strings.Contains(string(body), `"index":3`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestTransactionEventFromJSONInvalid(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected error")
	}
}
