package session

import (
	"sort"
	"sync"
)

// Store holds every known session. Implementations make Update and Scan
// atomic with respect to each other; callbacks must not block or perform I/O.
type Store interface {
	// Get returns a copy of the session for userID.
	Get(userID string) (Session, bool)

	// GetOrCreate returns a copy of the session for userID, creating a zeroed
	// one on first contact. Callers that mutate on first contact use Update
	// instead, which creates the record the same way.
	GetOrCreate(userID string) Session

	// Update applies fn to the session for userID and returns a copy of the
	// result. An unknown userID gets a zeroed session before fn runs, so the
	// inbound path needs no separate GetOrCreate.
	Update(userID string, fn func(*Session)) Session

	// Scan applies fn to every session while holding the store lock.
	Scan(fn func(*Session))

	// Snapshot returns copies of all sessions ordered by user id.
	Snapshot() []Session

	Len() int
}

// MemoryStore is a Store guarded by a single mutex. Sessions are never
// evicted.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(userID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return s.clone(), true
}

func (m *MemoryStore) GetOrCreate(userID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(userID).clone()
}

func (m *MemoryStore) Update(userID string, fn func(*Session)) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.lookup(userID)
	fn(s)
	s.UserID = userID
	return s.clone()
}

func (m *MemoryStore) Scan(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		fn(s)
		s.UserID = id
	}
}

func (m *MemoryStore) Snapshot() []Session {
	m.mu.Lock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.clone())
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// lookup must be called with mu held.
func (m *MemoryStore) lookup(userID string) *Session {
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{UserID: userID}
		m.sessions[userID] = s
	}
	return s
}
