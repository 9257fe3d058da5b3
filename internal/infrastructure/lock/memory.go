// Package lock provides the key lockers that serialise ledger operations.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/vaultledger/backend/internal/domain/shared"
)

// MemoryLocker grants per-key mutual exclusion inside a single process.
// Each key is a one-slot channel so a waiter can give up when its context ends.
type MemoryLocker struct {
	mu      sync.Mutex
	slots   map[string]*slot
	timeout time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates a MemoryLocker; timeout bounds how long Acquire waits
func NewMemoryLocker(timeout time.Duration) *MemoryLocker {
	return &MemoryLocker{
		slots:   make(map[string]*slot),
		timeout: timeout,
	}
}

// Acquire takes every key in the order given. If a key cannot be taken before
// the timeout it releases what it holds and returns ErrBusy.
func (l *MemoryLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	waitCtx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		s := l.ref(key)
		select {
		case s.ch <- struct{}{}:
			held = append(held, key)
		case <-waitCtx.Done():
			l.unref(key)
			l.release(held)
			return nil, busyOrCanceled(ctx, key)
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(held) })
	}, nil
}

// ref returns the slot of key, creating it if needed, and pins it
func (l *MemoryLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

// unref drops a pin and forgets the slot once nobody holds or waits on it
func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *MemoryLocker) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		s := l.slots[keys[i]]
		l.mu.Unlock()
		<-s.ch
		l.unref(keys[i])
	}
}

// size reports how many keys are currently tracked
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// busyOrCanceled reports the caller's own cancellation as is and anything
// else as contention
func busyOrCanceled(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return shared.ErrBusy.WithDetail("timed out waiting for %s", key)
}
