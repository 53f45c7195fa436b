package shared

import "errors"

// Engine error taxonomy. Domain packages declare their own sentinels wrapping
// these classes so callers can match either the specific error or the class.
var (
	// ErrNotFound indicates an entity id or name has no row. Surfaced to the
	// caller, never retried.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input rejected before any write.
	ErrValidation = errors.New("invalid input")
	// ErrConflict indicates a uniqueness violation (e.g. duplicate budget month).
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock is raised inside the stock-adjustment step when an
	// outbound movement would drive quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnauthenticated occurs when no actor is signed in.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden occurs when the actor's role is not in the operation allow-list.
	ErrForbidden = errors.New("operation not allowed for role")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
