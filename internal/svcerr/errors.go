// Package svcerr defines the error kinds surfaced as NACK by the service
// loop. Each kind is a distinct type so callers can distinguish them with
// errors.As instead of string matching.
package svcerr

import "fmt"

// ProtocolError covers malformed frames, unknown message types, and
// gated-message misuse (pre-login requests other than LOGIN, post-login
// LOGIN).
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// StateError covers an operation attempted against an Invitation or Game
// in the wrong state, or by a session holding the wrong role.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error: %s", e.Reason)
}

// LookupError covers an unknown target username or an unknown local
// invitation ID.
type LookupError struct {
	Kind string
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup error: unknown %s %q", e.Kind, e.Key)
}

// ConflictError covers a LOGIN attempt for a username already held by
// another live session.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict error: %q already logged in", e.Name)
}

// CapacityError covers a Client Registry at capacity.
type CapacityError struct {
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity error: registry full at %d", e.Capacity)
}

// TransportError wraps a failed socket read or write.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
