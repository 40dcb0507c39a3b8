package memory

import (
	"sync"
	"time"

	"voc-chatbot-be/pkg/flow"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds in-flight conversation state. Sessions idle for an
// hour are evicted; a returning visitor then starts a fresh conversation.
type SessionRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionRepository) Save(state *flow.State) {
	r.cache.Set(state.SessionID, state, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*flow.State, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*flow.State), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Lock returns the mutex serializing turns for one session. Two concurrent
// messages on the same session would otherwise race on the shared state.
func (r *SessionRepository) Lock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[sessionID] = m
	}
	return m
}
