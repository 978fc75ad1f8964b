package study

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type pairKey struct {
	userID uuid.UUID
	cardID uuid.UUID
}

// keyLock is a one-slot semaphore so that waiters can give up on ctx.
type keyLock struct {
	sem  chan struct{}
	refs int
}

// keyLocks hands out one mutex per (user, card) pair. An entry lives only
// while some caller holds or waits for it.
type keyLocks struct {
	mu    sync.Mutex
	locks map[pairKey]*keyLock
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[pairKey]*keyLock)}
}

// acquire blocks until the pair's lock is held or ctx is done. The returned
// release must be called exactly once.
func (k *keyLocks) acquire(ctx context.Context, key pairKey) (release func(), err error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			k.unref(key, l)
		}, nil
	case <-ctx.Done():
		k.unref(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyLocks) unref(key pairKey, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
