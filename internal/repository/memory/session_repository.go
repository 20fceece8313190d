package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"ai-docpilot-be/pkg/store"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps editor sessions for ttl since their last
// Save. Eviction closes the session so a pending highlight timer never
// outlives it.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if session, ok := v.(*store.EditorSession); ok {
			session.Close()
		}
	})
	return &SessionRepository{
		cache: c,
	}
}

// Save stores the session and resets its expiry.
func (r *SessionRepository) Save(session *store.EditorSession) {
	r.cache.Set(session.Id, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionId string) (*store.EditorSession, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*store.EditorSession), true
	}
	return nil, false
}

// Touch extends the session's expiry without replacing it.
func (r *SessionRepository) Touch(sessionId string) {
	if x, found := r.cache.Get(sessionId); found {
		r.cache.Set(sessionId, x, cache.DefaultExpiration)
	}
}

// Delete removes the session; the eviction hook closes it.
func (r *SessionRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}
