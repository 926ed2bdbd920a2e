package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockManager_GetLockIsStable(t *testing.T) {
	lm := NewLockManager()
	assert.Same(t, lm.GetLock("a"), lm.GetLock("a"))
	assert.NotSame(t, lm.GetLock("a"), lm.GetLock("b"))
}

func TestLockManager_TryLock(t *testing.T) {
	lm := NewLockManager()

	unlock, ok := lm.TryLock("acc-1/daily")
	require.True(t, ok)

	_, ok = lm.TryLock("acc-1/daily")
	assert.False(t, ok, "held lock must not be re-acquired")

	other, ok := lm.TryLock("acc-1/new_player")
	require.True(t, ok, "keys are independent")
	other()

	unlock()
	unlock, ok = lm.TryLock("acc-1/daily")
	require.True(t, ok)
	unlock()
}

func TestLockManager_TryLockOneWinner(t *testing.T) {
	lm := NewLockManager()
	hold, ok := lm.TryLock("k")
	require.True(t, ok)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := lm.TryLock("k"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	hold()

	assert.Zero(t, wins.Load())
}
