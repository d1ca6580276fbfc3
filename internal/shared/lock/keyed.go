package lock

import (
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex serializes critical sections per key while letting distinct keys
// proceed in parallel. Used to serialize the read-validate-write sequence of
// bid submission per listing.
//
// Entries are reference counted and removed once the last holder releases, so
// the map does not grow with the number of listings ever bid on.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*entry)}
}

// Lock acquires the mutex for key, blocking until any other holder of the
// same key releases it.
func (k *KeyedMutex) Lock(key uuid.UUID) {
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

// Unlock releases the mutex for key. Must pair with a prior Lock on the same key.
func (k *KeyedMutex) Unlock(key uuid.UUID) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("lock: Unlock of unlocked key " + key.String())
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
