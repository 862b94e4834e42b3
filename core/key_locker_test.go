package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLocker_SerializesSameKey(t *testing.T) {
	locker := NewKeyLocker()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("sequence", 1)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, locker.size())
}

func TestKeyLocker_IndependentKeysAndIdempotentUnlock(t *testing.T) {
	locker := NewKeyLocker()
	unlockA := locker.Lock("a")
	unlockB := locker.Lock("b")
	assert.Equal(t, 2, locker.size())

	unlockA()
	unlockA()
	assert.Equal(t, 1, locker.size())
	unlockB()
	assert.Zero(t, locker.size())
}
