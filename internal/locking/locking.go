// Package locking provides the per-board serialization point: every mutation
// of a board's columns, tasks, labels, members or invites holds the board's
// lock while it reads, computes and writes.
package locking

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired is returned when the lock could not be taken within the wait
// budget.
var ErrNotAcquired = errors.New("locking: lock not acquired")

// Locker hands out exclusive locks by key.
type Locker interface {
	// Acquire blocks until the lock is held, ctx is done or the wait budget
	// is spent. The returned release func is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// BoardKey is the lock key for a board.
func BoardKey(boardID string) string {
	return "board:" + boardID
}

// LocalLocker serializes within one process. Entries are reference counted
// and dropped once nobody holds or waits for them.
type LocalLocker struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, locks: make(map[string]*localEntry)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
	case <-timer.C:
		l.unref(key, e)
		return nil, ErrNotAcquired
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports how many keys currently have holders or waiters.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
