package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"fintrack/internal/kv"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

func newTestService(t *testing.T) *services.TransactionService {
	t.Helper()
	store := ledger.NewStore(kv.NewMemoryStore(), ledger.DefaultKey)
	store.Load(context.Background())
	return services.NewTransactionService(store, nil, nil)
}

func runCmd(t *testing.T, svc *services.TransactionService, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), svc, args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun(t *testing.T) {
	svc := newTestService(t)

	out, _, err := runCmd(t, svc, "add", "-type", "Income", "-description", "Salary", "-amount", "1000", "-date", "2024-01-01")
	if err != nil || out != "added #0\n" {
		t.Fatalf("add = %q, %v", out, err)
	}
	if _, _, err := runCmd(t, svc, "add", "-type", "Expense", "-description", "Rent", "-amount", "400", "-date", "2024-01-02"); err != nil {
		t.Fatalf("add rent: %v", err)
	}

	out, _, err = runCmd(t, svc, "summary")
	if err != nil || out != "Total Income: $1000.00\nTotal Expense: $400.00\nBalance: $600.00\n" {
		t.Fatalf("summary = %q, %v", out, err)
	}
	out, _, _ = runCmd(t, svc, "summary", "-date", "2024-01-01")
	if !strings.Contains(out, "Balance: $1000.00") {
		t.Fatalf("filtered summary = %q", out)
	}

	out, _, err = runCmd(t, svc, "list", "-date", "2024-01-02")
	if err != nil || !strings.Contains(out, "Rent") || strings.Contains(out, "Salary") {
		t.Fatalf("list = %q, %v", out, err)
	}
	if !strings.Contains(out, "1 ") {
		t.Fatalf("list must show the ledger position: %q", out)
	}

	out, _, err = runCmd(t, svc, "rm", "1")
	if err != nil || out != "removed #1\n" {
		t.Fatalf("rm = %q, %v", out, err)
	}
	out, _, err = runCmd(t, svc, "rm", "7")
	if err != nil || out != "no transaction at #7\n" {
		t.Fatalf("rm out of range = %q, %v", out, err)
	}
}

func TestRunUsageErrors(t *testing.T) {
	svc := newTestService(t)
	cases := [][]string{
		{},
		{"explode"},
		{"add", "-type", "Income", "-amount", "5"},
		{"rm"},
		{"rm", "first"},
		{"list", "-bogus"},
	}
	for _, args := range cases {
		if _, stderr, err := runCmd(t, svc, args...); !errors.Is(err, errUsage) || stderr == "" {
			t.Errorf("run(%v) = %v, stderr %q; want usage error", args, err, stderr)
		}
	}
	if svc.Store().Len() != 0 {
		t.Errorf("usage errors must not change the ledger")
	}
}
