// Package keylock provides per-key mutual exclusion.
//
// Mutating stock operations must be serialized per (product, warehouse)
// pair: the sufficiency check, the lot reconstruction and the ledger
// append have to observe a frozen ledger slice. A coarse global lock
// would serialize unrelated products, so locks are keyed.
package keylock

import "sync"

// KeyLock serializes callers contending on the same string key.
// Different keys proceed independently.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock acquires the lock for key, blocking until available.
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for key. The entry is dropped once no
// goroutine holds or waits on it, keeping the map from growing with
// every key ever seen.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
