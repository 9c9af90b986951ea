package memory

import (
	"errors"
	"sync"
	"time"

	"oss-clearance-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository holds live clearance sessions. Entries expire after the
// configured TTL of inactivity.
type SessionRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	r := &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
		locks: make(map[string]*sync.Mutex),
	}
	r.cache.OnEvicted(func(id string, _ interface{}) {
		r.mu.Lock()
		delete(r.locks, id)
		r.mu.Unlock()
	})
	return r
}

func (r *SessionRepository) Save(session *entity.ClearanceSession) {
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*entity.ClearanceSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.ClearanceSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

func (r *SessionRepository) lock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	return l
}

// WithSession runs fn while holding the session's lock, so turns of one
// session never interleave. The entry's expiry is refreshed afterwards.
func (r *SessionRepository) WithSession(sessionID string, fn func(*entity.ClearanceSession) error) error {
	l := r.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	session, ok := r.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if err := fn(session); err != nil {
		return err
	}
	r.Save(session)
	return nil
}

func (r *SessionRepository) Exists(sessionID string) bool {
	_, ok := r.cache.Get(sessionID)
	return ok
}
