package tradier

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a client that cannot be built, most often
// because a credential is missing.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tradier config: %s: %s", e.Field, e.Reason)
}

// TransportError wraps a failure below HTTP: DNS, refused connections,
// timeouts and context cancellation. It is never retried.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tradier %s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthenticationError is returned for 401 and 403 responses. Body is the
// response payload byte for byte.
type AuthenticationError struct {
	StatusCode int
	Body       string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("tradier auth rejected (status %d): %s", e.StatusCode, truncate(e.Body))
}

// APIError carries a non-2xx response, or a 2xx response whose body is a
// Tradier error envelope, verbatim. Error() quotes at most 64 KiB of it.
type APIError struct {
	StatusCode int
	Body       string

	// Parsed from {"code":..,"message":..} bodies when present.
	Code    int
	Message string

	// Parsed from {"errors":{"error":[...]}} bodies.
	Errors []string
}

func (e *APIError) Error() string {
	switch {
	case len(e.Errors) > 0:
		return fmt.Sprintf("tradier api error (status %d): %s", e.StatusCode, strings.Join(e.Errors, "; "))
	case e.Message != "":
		return fmt.Sprintf("tradier api error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	default:
		return fmt.Sprintf("tradier api error (status %d): %s", e.StatusCode, truncate(e.Body))
	}
}

// OrderFinalizedError is what Tradier's 400 means on modify and cancel:
// the order was already filled, canceled or otherwise closed.
type OrderFinalizedError struct {
	OrderID int64
	APIError
}

func (e *OrderFinalizedError) Error() string {
	return fmt.Sprintf("tradier order %d already finalized: %s", e.OrderID, truncate(e.Body))
}

func (e *OrderFinalizedError) Unwrap() error { return &e.APIError }

// ValidationError reports a response body (or an outgoing request) that
// does not match the expected schema.
type ValidationError struct {
	Type   string
	Reason string
	Body   string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tradier validate %s: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("tradier validate %s: %s", e.Type, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(typ, format string, args ...any) *ValidationError {
	return &ValidationError{Type: typ, Reason: fmt.Sprintf(format, args...)}
}
