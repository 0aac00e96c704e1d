package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. It is enough for a single replica.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

// NewLocalLocker creates a LocalLocker that waits at most timeout per key.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{entries: make(map[string]*entry), timeout: timeout}
}

// Acquire blocks until key is free, the wait budget is spent or ctx ends.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	e := l.ref(key)

	waitCtx, cancel := waitBudget(ctx, l.timeout)
	defer cancel()

	select {
	case e.sem <- struct{}{}:
	case <-waitCtx.Done():
		l.unref(key)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, waitCtx.Err()
	}

	return once(func() {
		<-e.sem
		l.unref(key)
	}), nil
}

func (l *LocalLocker) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
