// Package kv defines the host key-value storage the ledger persists into,
// plus the in-process implementations (memory and JSON file).
package kv

import "context"

// Store is a string key-value store. Get reports found=false for a key that
// was never set.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
