package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/kv"
)

// failingKV fails every write after reads succeed.
type failingKV struct{ *kv.MemoryStore }

func (f *failingKV) Set(context.Context, string, string) error { return errors.New("quota exceeded") }

// flakyKV fails the first failures reads, then serves from the embedded store.
type flakyKV struct {
	*kv.MemoryStore
	failures int
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failures > 0 {
		f.failures--
		return "", false, errors.New("storage unavailable")
	}
	return f.MemoryStore.Get(ctx, key)
}

func persisted(t *testing.T, backend kv.Store, key string) []core.Transaction {
	t.Helper()
	raw, found, err := backend.Get(context.Background(), key)
	if err != nil || !found {
		t.Fatalf("nothing persisted under %q: found=%v err=%v", key, found, err)
	}
	txs, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode persisted: %v", err)
	}
	return txs
}

func TestLoadEmptyAndGarbage(t *testing.T) {
	ctx := context.Background()
	cases := map[string]kv.Store{
		"missing key": kv.NewMemoryStore(),
		"garbage":     kv.NewMemoryStoreWith(map[string]string{DefaultKey: "{not json"}),
		"null":        kv.NewMemoryStoreWith(map[string]string{DefaultKey: "null"}),
		"wrong shape": kv.NewMemoryStoreWith(map[string]string{DefaultKey: `{"type":"Income"}`}),
	}
	for name, backend := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewStore(backend, "")
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != 0 || got == nil {
				t.Fatalf("expected empty non-nil sequence, got %#v", got)
			}
		})
	}
}

func TestLoadKeepsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStoreWith(map[string]string{DefaultKey: `[
		{"type":"Income","description":"Salary","amount":"1000","date":"2024-01-01"},
		{"type":"Expense","description":"bool","amount":true,"date":"2024-01-01"},
		{"type":"Expense","description":"object","amount":{"v":5}},
		{"type":1,"description":42,"amount":"25","date":20240102},
		{"description":"no type","amount":"abc"},
		null,
		7
	]`})
	s := NewStore(backend, "")

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []core.Transaction{
		salary,
		{Type: core.Expense, Description: "bool", Amount: "true", Date: "2024-01-01"},
		{Type: core.Expense, Description: "object", Amount: `{"v":5}`},
		{Type: "1", Description: "42", Amount: "25", Date: "20240102"},
		{Description: "no type", Amount: "abc"},
		{},
		{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() =\n%+v\nwant\n%+v", got, want)
	}
	if sum := s.Summary(""); sum != (core.Totals{Income: 1000, Expense: 25, Balance: 975}) {
		t.Fatalf("Summary() = %+v", sum)
	}

	if _, err := s.Dispatch(ctx, Append(rent)); err != nil {
		t.Fatalf("append: %v", err)
	}
	stored := persisted(t, backend, DefaultKey)
	if len(stored) != len(want)+1 || stored[0] != salary || stored[len(stored)-1] != rent {
		t.Fatalf("records lost after append: %+v", stored)
	}
}

func TestLoadReadErrorKeepsStoredRecords(t *testing.T) {
	ctx := context.Background()
	raw, err := Encode([]core.Transaction{salary})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	backend := &flakyKV{MemoryStore: kv.NewMemoryStoreWith(map[string]string{DefaultKey: raw}), failures: 1}
	s := NewStore(backend, "")

	if _, err := s.Load(ctx); err == nil {
		t.Fatalf("expected read error")
	}
	if got := persisted(t, backend.MemoryStore, DefaultKey); !reflect.DeepEqual(got, []core.Transaction{salary}) {
		t.Fatalf("stored records changed: %+v", got)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if !reflect.DeepEqual(got, []core.Transaction{salary}) {
		t.Fatalf("retry Load() = %+v", got)
	}
}

func TestLoadNumericAmounts(t *testing.T) {
	backend := kv.NewMemoryStoreWith(map[string]string{
		DefaultKey: `[{"type":"Income","description":"Salary","amount":1000,"date":"2024-01-01"}]`,
	})
	s := NewStore(backend, DefaultKey)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Amount != "1000" {
		t.Fatalf("unexpected load: %+v", got)
	}
	if sum := s.Summary(""); sum.Income != 1000 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestDispatchPersistsAfterEveryAction(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	s := NewStore(backend, "ledger")
	s.Load(ctx)

	steps := []Action{Append(salary), Append(rent), RemoveAt(5), RemoveAt(0), Append(coffee)}
	for i, a := range steps {
		state, err := s.Dispatch(ctx, a)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := persisted(t, backend, "ledger"); !reflect.DeepEqual(got, state) {
			t.Fatalf("step %d: persisted %+v, memory %+v", i, got, state)
		}
	}
	if want := []core.Transaction{rent, coffee}; !reflect.DeepEqual(s.Transactions(), want) {
		t.Fatalf("final state %+v, want %+v", s.Transactions(), want)
	}
	if s.Revision() != uint64(len(steps)) {
		t.Fatalf("revision=%d, want %d", s.Revision(), len(steps))
	}
}

func TestAppendRemoveRestoresPersistedValue(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	s := NewStore(backend, "")
	s.Load(ctx)
	if _, err := s.Dispatch(ctx, Append(salary)); err != nil {
		t.Fatalf("append: %v", err)
	}
	before := s.Transactions()

	if _, err := s.Dispatch(ctx, Append(rent)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Dispatch(ctx, RemoveAt(1)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !reflect.DeepEqual(s.Transactions(), before) {
		t.Fatalf("memory not restored: %+v", s.Transactions())
	}
	if got := persisted(t, backend, DefaultKey); !reflect.DeepEqual(got, before) {
		t.Fatalf("persisted not restored: %+v", got)
	}
}

func TestRemoveOnEmptyStillPersists(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	s := NewStore(backend, "")
	s.Load(ctx)
	state, err := s.Dispatch(ctx, RemoveAt(0))
	if err != nil || len(state) != 0 {
		t.Fatalf("unexpected result: %+v %v", state, err)
	}
	if raw, _, _ := backend.Get(ctx, DefaultKey); raw != "[]" {
		t.Fatalf("expected [] persisted, got %q", raw)
	}
}

func TestReloadSeesPersistedState(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	first := NewStore(backend, "")
	first.Load(ctx)
	_, _ = first.Dispatch(ctx, Append(salary))
	_, _ = first.Dispatch(ctx, Append(rent))

	second := NewStore(backend, "")
	if got, err := second.Load(ctx); err != nil || !reflect.DeepEqual(got, []core.Transaction{salary, rent}) {
		t.Fatalf("reload got %+v", got)
	}
}

func TestDispatchPersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&failingKV{kv.NewMemoryStore()}, "")
	s.Load(ctx)
	state, err := s.Dispatch(ctx, Append(salary))
	if err == nil {
		t.Fatalf("expected persist error")
	}
	if len(state) != 1 || s.Len() != 1 {
		t.Fatalf("memory should hold the appended record, got %+v", state)
	}
}

func TestEndToEndSummary(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemoryStore(), "")
	s.Load(ctx)

	if _, err := s.Dispatch(ctx, Append(salary)); err != nil {
		t.Fatalf("append salary: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}
	if got := s.Summary(""); got != (core.Totals{Income: 1000, Expense: 0, Balance: 1000}) {
		t.Fatalf("after salary: %+v", got)
	}

	if _, err := s.Dispatch(ctx, Append(rent)); err != nil {
		t.Fatalf("append rent: %v", err)
	}
	if got := s.Summary(""); got != (core.Totals{Income: 1000, Expense: 400, Balance: 600}) {
		t.Fatalf("after rent: %+v", got)
	}
	if got := s.Summary("2024-01-01"); got != (core.Totals{Income: 1000, Expense: 0, Balance: 1000}) {
		t.Fatalf("filtered: %+v", got)
	}
}

func TestEncodeNil(t *testing.T) {
	raw, err := Encode(nil)
	if err != nil || raw != "[]" {
		t.Fatalf("Encode(nil)=%q, %v", raw, err)
	}
}
