package registry

import "github.com/supdesk/relay-service/internal/domain"

// Conn is the live channel to one client. Send fails once the underlying
// connection is closed.
type Conn interface {
	ID() string
	Send(event string, payload interface{}) error
}

// SessionRegistry is the single source of truth for presence: a
// concurrency-safe mapping from user identity to its current connection.
// All synchronization is internal; callers never take a lock around it.
type SessionRegistry interface {
	// Register inserts or replaces the session for userID. Last writer
	// wins; it never fails.
	Register(userID string, role domain.Role, conn Conn)

	// Unregister removes the session owning conn. It is a no-op when the
	// connection was already superseded by a newer login, so a racing
	// supersede never loses the newer session.
	Unregister(conn Conn)

	// Lookup returns the current connection for userID, if any.
	Lookup(userID string) (Conn, bool)

	// IsOnline reports whether userID has an active session.
	IsOnline(userID string) bool

	// Count returns the number of active sessions.
	Count() int

	// Drain removes every session. Called at shutdown.
	Drain()
}
