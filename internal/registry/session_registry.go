package registry

import (
	"sync"
	"time"

	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/pkg/log"
)

type session struct {
	conn        Conn
	connectedAt time.Time
}

// sessionRegistry keeps userID -> session plus a reverse index
// connID -> userID so disconnect removal is O(1) instead of a scan.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	owners   map[string]string // connID -> userID
}

// New creates an empty session registry.
func New() SessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
		owners:   make(map[string]string),
	}
}

func (r *sessionRegistry) Register(userID string, role domain.Role, conn Conn) {
	r.mu.Lock()
	if prev, ok := r.sessions[userID]; ok {
		// Superseding login: detach the old handle from routing. The old
		// connection is not forcibly closed here.
		delete(r.owners, prev.conn.ID())
	}
	// Re-login on a connection that already owns a different identity:
	// that identity has no handle left, so it must go offline now.
	if oldID, ok := r.owners[conn.ID()]; ok && oldID != userID {
		if cur, exists := r.sessions[oldID]; exists && cur.conn.ID() == conn.ID() {
			delete(r.sessions, oldID)
		}
	}
	r.sessions[userID] = &session{
		conn:        conn,
		connectedAt: time.Now(),
	}
	r.owners[conn.ID()] = userID
	r.mu.Unlock()

	log.L().Debug().
		Str(log.FieldUserID, userID).
		Str(log.FieldConnID, conn.ID()).
		Str(log.FieldRole, role.String()).
		Msg("session registered")
}

func (r *sessionRegistry) Unregister(conn Conn) {
	r.mu.Lock()
	userID, ok := r.owners[conn.ID()]
	if !ok {
		// Already superseded or never registered.
		r.mu.Unlock()
		return
	}
	delete(r.owners, conn.ID())
	// Compare by handle identity, not userID: a supersede that raced this
	// disconnect must keep the newer session.
	var removed *session
	if cur, exists := r.sessions[userID]; exists && cur.conn.ID() == conn.ID() {
		delete(r.sessions, userID)
		removed = cur
	}
	r.mu.Unlock()

	evt := log.L().Debug().
		Str(log.FieldUserID, userID).
		Str(log.FieldConnID, conn.ID())
	if removed != nil {
		evt = evt.Dur("session_duration", time.Since(removed.connectedAt))
	}
	evt.Msg("session unregistered")
}

func (r *sessionRegistry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	return s.conn, true
}

func (r *sessionRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

func (r *sessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *sessionRegistry) Drain() {
	r.mu.Lock()
	n := len(r.sessions)
	r.sessions = make(map[string]*session)
	r.owners = make(map[string]string)
	r.mu.Unlock()

	if n > 0 {
		log.L().Info().Int("sessions", n).Msg("registry drained")
	}
}
