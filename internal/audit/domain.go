package audit

import "time"

// Kind classifies a security-relevant occurrence.
type Kind string

// Event kinds emitted by the admission pipeline.
const (
	// KindAccess records every admitted, authenticated request.
	KindAccess Kind = "ACCESS"
	// KindAuthorizationFailure records role allow-list denials.
	KindAuthorizationFailure Kind = "AUTHORIZATION_FAILURE"
	// KindSecurityAlert records failed elevated-credential proofs. Repeated
	// failures here indicate a targeted compromise attempt, so they are kept
	// distinct from ordinary denials.
	KindSecurityAlert Kind = "SECURITY_ALERT"
	// KindCriticalOperation records successfully authorized command-critical
	// operations.
	KindCriticalOperation Kind = "CRITICAL_OPERATION"
	// KindRateLimit records per-origin throttling of sensitive routes.
	KindRateLimit Kind = "RATE_LIMIT"
)

// Outcome values for events.
const (
	OutcomeAdmitted = "admitted"
	OutcomeDenied   = "denied"
)

// Event is an immutable record of a security-relevant occurrence. Actor is
// empty when the caller was never identified (for example a rate-limited or
// tokenless request). Events are appended once and never mutated.
type Event struct {
	ID      string
	Kind    Kind
	Actor   string
	Action  string
	Outcome string
	Origin  string
	Meta    map[string]any
	At      time.Time
}
