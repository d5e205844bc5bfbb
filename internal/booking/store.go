package booking

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds active wizard sessions in memory. Sessions are discarded on
// process restart by design: a half-finished booking is cheap to restart and
// the backend owns all durable state.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a session store. Sessions idle longer than ttl are
// evicted lazily on access.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewID returns a fresh session identifier.
func (st *Store) NewID() string {
	return uuid.NewString()
}

// Put registers a session.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	st.sessions[s.ID()] = s
}

// Get returns the session with the given id, if present and not expired.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	return len(st.sessions)
}

func (st *Store) sweepLocked() {
	if st.ttl <= 0 {
		return
	}
	cutoff := st.now().Add(-st.ttl)
	for id, s := range st.sessions {
		if s.touched().Before(cutoff) {
			delete(st.sessions, id)
		}
	}
}
