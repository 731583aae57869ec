package memory

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// SessionLockRepository hands out one mutex per session id so turns on the
// same session serialize while distinct sessions proceed concurrently.
// Entries never age out on their own: a lock aging away while held would let
// a second turn acquire a fresh mutex for the same session. The sweeper
// deletes the entry when it purges the session.
type SessionLockRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionLockRepository() *SessionLockRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &SessionLockRepository{
		cache: c,
	}
}

func (r *SessionLockRepository) Get(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionID); found {
		return x.(*sync.Mutex)
	}
	lock := &sync.Mutex{}
	r.cache.Set(sessionID, lock, cache.NoExpiration)
	return lock
}

func (r *SessionLockRepository) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(sessionID)
}
