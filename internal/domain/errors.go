package domain

import "fmt"

// Failure classes. Every handler catches these at its boundary and renders
// them into the correlated response with success=false; none of them may
// close the connection or crash the process.

// AuthError reports rejected credentials or an unknown role.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// ValidationError reports a missing or malformed payload field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field %q", e.Field)
}

// ProtocolError reports an event that is not allowed in the connection's
// current state, such as send_message before login.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol violation: " + e.Reason
}

// PersistenceError reports a failed or rejected durable write. A persistence
// failure strictly prevents delivery: no notification is pushed for an
// unpersisted message.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
