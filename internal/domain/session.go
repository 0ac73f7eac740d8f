package domain

import (
	"sync"
	"time"
)

// Session tracks one connection's progress through the
// Connected -> Authenticated -> Disconnected state machine. It is read
// from the connection's worker goroutine and written on login, so access
// goes through its own lock.
type Session struct {
	ConnID        string
	UserID        string
	Username      string
	Role          Role
	Authenticated bool
	ConnectedAt   time.Time
	LastActiveAt  time.Time
	mu            sync.RWMutex
}

func NewSession(connID string) *Session {
	now := time.Now()
	return &Session{
		ConnID:       connID,
		ConnectedAt:  now,
		LastActiveAt: now,
	}
}

// Authenticate records a completed login.
func (s *Session) Authenticate(userID, username string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserID = userID
	s.Username = username
	s.Role = role
	s.Authenticated = true
	s.LastActiveAt = time.Now()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Authenticated
}

func (s *Session) GetUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserID
}

func (s *Session) GetUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Username
}

func (s *Session) GetRole() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Role
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
