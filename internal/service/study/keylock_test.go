package study

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLocks_SerializesSameKey(t *testing.T) {
	t.Parallel()
	locks := newKeyLocks()
	key := pairKey{userID: uuid.New(), cardID: uuid.New()}

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.acquire(context.Background(), key)
			require.NoError(t, err)
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Zero(t, locks.size(), "released keys must not stay in the table")
}

func TestKeyLocks_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()
	locks := newKeyLocks()
	userID := uuid.New()

	releaseA, err := locks.acquire(context.Background(), pairKey{userID: userID, cardID: uuid.New()})
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := locks.acquire(ctx, pairKey{userID: userID, cardID: uuid.New()})
	require.NoError(t, err)
	releaseB()

	assert.Equal(t, 1, locks.size())
}

func TestKeyLocks_WaiterHonorsContext(t *testing.T) {
	t.Parallel()
	locks := newKeyLocks()
	key := pairKey{userID: uuid.New(), cardID: uuid.New()}

	release, err := locks.acquire(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.Zero(t, locks.size())
}
