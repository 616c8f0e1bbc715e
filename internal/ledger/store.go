package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/kv"
)

// DefaultKey is the key the sequence is persisted under.
const DefaultKey = "transactions"

// Store owns the in-memory sequence and its persisted copy in a kv.Store.
// A mutation changes memory first and then persists; a failed write leaves
// memory ahead of storage until the next successful write.
type Store struct {
	mu       sync.Mutex
	kv       kv.Store
	key      string
	state    []core.Transaction
	revision uint64
}

// NewStore builds an empty store. Call Load before serving reads.
func NewStore(backend kv.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: backend, key: key, state: []core.Transaction{}}
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Load reads the persisted sequence into memory and returns a copy of it.
// A missing key or a value that is not a JSON array yields the empty
// sequence. A backend read error is returned and leaves memory untouched,
// so a later write cannot overwrite records that were never read.
func (s *Store) Load(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", s.key, err)
	}
	if !found {
		s.state = []core.Transaction{}
		return clone(s.state), nil
	}
	txs, err := Decode(raw)
	if err != nil {
		slog.WarnContext(ctx, "Persisted transactions are not parsable, starting empty",
			"key", s.key, "error", err)
		txs = []core.Transaction{}
	}
	s.state = txs
	return clone(s.state), nil
}

// Save writes the current sequence to the backend.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	raw, err := Encode(s.state)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist %q: %w", s.key, err)
	}
	return nil
}

// Dispatch applies a, then persists the new sequence. It returns a copy of
// the new sequence even when persisting fails.
func (s *Store) Dispatch(ctx context.Context, a Action) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)
	s.revision++
	return clone(s.state), s.save(ctx)
}

// Transactions returns a copy of the current sequence.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.state)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state)
}

// Revision counts dispatched actions since the store was built.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Summary aggregates the current sequence.
func (s *Store) Summary(filterDate string) core.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Aggregate(s.state, filterDate)
}

// Encode serializes a sequence to the persisted JSON array form.
func Encode(txs []core.Transaction) (string, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	b, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("encode transactions: %w", err)
	}
	return string(b), nil
}

// Decode parses the persisted JSON array form. Only a value that is not an
// array fails; elements are decoded one by one with decodeRecord, so a
// malformed record is kept rather than dropping its neighbours. JSON null
// decodes to the empty sequence.
func Decode(raw string) ([]core.Transaction, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(elems))
	for _, elem := range elems {
		txs = append(txs, decodeRecord(elem))
	}
	return txs, nil
}

// decodeRecord reads one stored element. Fields of the wrong JSON kind keep
// their JSON text, so an amount of true aggregates as 0 and a type of 1
// counts as expense. An element that is not an object becomes an empty
// record and keeps its position.
func decodeRecord(elem json.RawMessage) core.Transaction {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return core.Transaction{}
	}
	return core.Transaction{
		Type:        core.TransactionType(fieldText(fields["type"])),
		Description: fieldText(fields["description"]),
		Amount:      core.Amount(fieldText(fields["amount"])),
		Date:        fieldText(fields["date"]),
	}
}

// fieldText returns the value of a JSON string, "" for null or an absent
// field, and the compact JSON text of anything else.
func fieldText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}
