// Package concurrency provides named in-process locks.
package concurrency

import (
	"sync"
)

// LockManager handles named locks
type LockManager struct {
	locks sync.Map
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// GetLock returns a mutex for the given key
func (lm *LockManager) GetLock(key string) *sync.Mutex {
	lock, _ := lm.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// TryLock acquires the named lock without waiting. On success the returned
// func releases it; ok is false if another caller holds the lock.
func (lm *LockManager) TryLock(key string) (unlock func(), ok bool) {
	mu := lm.GetLock(key)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}
