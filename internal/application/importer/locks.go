package importapp

import (
	"sync"

	"github.com/google/uuid"
)

// lockKey identifies one import stream: all tasks for one provider
// connection of one owner share a key.
type lockKey struct {
	ownerID      uuid.UUID
	connectionID uuid.UUID
}

// connectionLocks serializes task execution per (owner, connection) so that
// at most one task mutates a given business record at any instant. Locks
// are created on first use and kept for the process lifetime; the map is
// bounded by the number of active connections.
type connectionLocks struct {
	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

func newConnectionLocks() *connectionLocks {
	return &connectionLocks{
		locks: make(map[lockKey]*sync.Mutex),
	}
}

// get returns the mutex for a key, creating it if needed
func (c *connectionLocks) get(key lockKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}
