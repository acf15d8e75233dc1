package respondsdk

import "errors"

// Sentinel errors for the two failure classes that actually surface as
// errors. Everything else in the taxonomy (missing multiplier, thin corpus,
// unresolved persona) degrades to a default and is flagged on the result
// instead of failing the event.
var (
	// ErrInvalidEvent marks a malformed MessageEvent. The event is dropped
	// before touching profile or cooldown state.
	ErrInvalidEvent = errors.New("invalid message event")

	// ErrRepository wraps profile persistence failures. The in-memory
	// decision already made is never rolled back because of one.
	ErrRepository = errors.New("profile repository")
)
