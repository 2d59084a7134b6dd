package geocode

import "errors"

// ValidationError reports caller input that violates a precondition. Its
// message is safe to return to the client verbatim.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Sentinel errors forming the proxy's failure taxonomy. Adapters wrap
// these with provider detail for server-side logs; the HTTP layer maps
// them to status codes with sanitized bodies.
var (
	// ErrRateLimited: the proxy's own per-client limit was hit.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstreamRateLimited: the provider itself returned a
	// too-many-requests response.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamFailed: any other non-success status or transport
	// failure from the provider.
	ErrUpstreamFailed = errors.New("upstream request failed")

	// ErrNoCredential / ErrBadCredential: the provider credential is
	// missing or was rejected. Logged with detail, never shown to the
	// caller.
	ErrNoCredential  = errors.New("missing provider credential")
	ErrBadCredential = errors.New("provider rejected credential")
)

// IsConfiguration reports whether err is a credential/configuration
// failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrNoCredential) || errors.Is(err, ErrBadCredential)
}
