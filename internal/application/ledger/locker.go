package ledger

import (
	"context"
	"sort"
	"time"
)

// Locker grants mutual exclusion over a set of keys.
// Implementations acquire the keys in the order given and release them all
// when unlock is called. If the keys cannot be acquired before the context
// or the locker's own timeout expires, Acquire returns shared.ErrBusy and
// holds nothing.
type Locker interface {
	Acquire(ctx context.Context, keys []string) (unlock func(), err error)
}

// LockKeys returns the keys deduplicated and in the global acquisition order.
// Every mutating operation acquires through this so two operations can never
// wait on each other in opposite orders.
func LockKeys(keys ...string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OperationObserver receives the outcome of every ledger operation
type OperationObserver interface {
	ObserveOperation(operation, outcome string, duration time.Duration)
	ObserveLockWait(duration time.Duration)
	ObserveIntegrity(violations int)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, time.Duration) {}
func (noopObserver) ObserveLockWait(time.Duration)                  {}
func (noopObserver) ObserveIntegrity(int)                           {}
