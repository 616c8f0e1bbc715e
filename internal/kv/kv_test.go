package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}
	if err := s.Set(ctx, "transactions", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "other", "x"); err != nil {
		t.Fatalf("set other: %v", err)
	}
	if err := s.Set(ctx, "transactions", `[{"type":"Income"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, found, err := s.Get(ctx, "transactions")
	if err != nil || !found || v != `[{"type":"Income"}]` {
		t.Fatalf("get: v=%q found=%v err=%v", v, found, err)
	}
	if v, _, _ := s.Get(ctx, "other"); v != "x" {
		t.Fatalf("other key clobbered: %q", v)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	s := NewMemoryStoreWith(map[string]string{"k": "v"})
	if v, found, _ := s.Get(context.Background(), "k"); !found || v != "v" {
		t.Fatalf("seeded value missing: %q %v", v, found)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fintrack.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, s)

	// A second instance over the same file sees the persisted entries.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, found, err := reopened.Get(context.Background(), "other"); err != nil || !found || v != "x" {
		t.Fatalf("reopened get: v=%q found=%v err=%v", v, found, err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, _, err := s.Get(context.Background(), "transactions"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewFileStoreEmptyPath(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
