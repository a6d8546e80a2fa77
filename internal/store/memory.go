package store

import (
	"sync"
	"time"

	"deals-chat-backend/internal/chat"
)

type sessionEntry struct {
	session  *chat.Session
	lastSeen time.Time
}

// MemoryStore keeps widget sessions in process. Sessions idle for longer than
// ttl are dropped on access and by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCreate returns the live session for id, creating it with the greeting
// pair if it does not exist or has expired. created reports the latter.
func (m *MemoryStore) GetOrCreate(id string) (s *chat.Session, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.sessions[id]; ok && !m.expiredLocked(e, now) {
		e.lastSeen = now
		return e.session, false
	}
	s = chat.NewSession(id)
	m.sessions[id] = &sessionEntry{session: s, lastSeen: now}
	return s, true
}

// Delete forgets the session so the next request starts a fresh one.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.sessions {
		if m.expiredLocked(e, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len is the number of sessions held, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) expiredLocked(e *sessionEntry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.lastSeen) > m.ttl
}
