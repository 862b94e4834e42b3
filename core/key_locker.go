package core

import (
	"fmt"
	"strings"
	"sync"
)

type keyLock struct {
	mu      sync.Mutex
	holders int
}

// KeyLocker hands out one mutex per composite key. Entries are dropped once no
// goroutine holds or waits for them.
type KeyLocker struct {
	guard sync.Mutex
	locks map[string]*keyLock
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until the key is free and returns the matching unlock function.
//
//	defer locker.Lock("sequence", id)()
func (kl *KeyLocker) Lock(keys ...any) func() {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%v", k))
	}
	key := strings.Join(parts, ":")

	kl.guard.Lock()
	lock, ok := kl.locks[key]
	if !ok {
		lock = &keyLock{}
		kl.locks[key] = lock
	}
	lock.holders++
	kl.guard.Unlock()

	lock.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()
			kl.guard.Lock()
			lock.holders--
			if lock.holders == 0 {
				delete(kl.locks, key)
			}
			kl.guard.Unlock()
		})
	}
}

// size reports how many keys are currently tracked.
func (kl *KeyLocker) size() int {
	kl.guard.Lock()
	defer kl.guard.Unlock()
	return len(kl.locks)
}
