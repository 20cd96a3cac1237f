package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameKeySerializes(t *testing.T) {
	kl := New()

	const goroutines = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			kl.Lock("a")
			defer kl.Unlock("a")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	kl := New()

	kl.Lock("a")
	defer kl.Unlock("a")

	done := make(chan struct{})
	go func() {
		kl.Lock("b")
		kl.Unlock("b")
		close(done)
	}()

	// Finishes while "a" is still held.
	<-done
}

func TestEntriesAreReclaimed(t *testing.T) {
	kl := New()

	kl.Lock("a")
	kl.Unlock("a")
	kl.Lock("b")
	kl.Unlock("b")

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks)
}

func TestUnlockWithoutLockPanics(t *testing.T) {
	kl := New()
	assert.Panics(t, func() { kl.Unlock("never-locked") })
}
