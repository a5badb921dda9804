package inventory

import (
	"context"
	"errors"
	"sort"
)

var ErrLockTimeout = errors.New("timed out waiting for product lock")

// Locker serializes checkouts that touch the same products. Acquire blocks
// until every product is held or ctx ends; the returned release func is safe
// to call more than once.
type Locker interface {
	Acquire(ctx context.Context, productIDs []string) (func(), error)
}

// lockOrder returns the distinct, non-empty ids sorted so that every caller
// takes locks in the same order.
func lockOrder(productIDs []string) []string {
	seen := make(map[string]struct{}, len(productIDs))
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
