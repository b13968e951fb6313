package fitapi

import (
	"errors"
	"fmt"
)

// Kind classifies API client failures so views can render a distinct
// state for each one.
type Kind string

const (
	// KindUnauthorized means the credential is missing or was rejected
	// by the backend. Resolved by forcing the session back to re-login.
	KindUnauthorized Kind = "unauthorized"
	// KindNotFound means the requested activity does not exist. Terminal,
	// not retried.
	KindNotFound Kind = "not_found"
	// KindValidation means the payload was rejected, either locally
	// before submission or by the backend.
	KindValidation Kind = "validation"
	// KindTransport covers network failures, timeouts and unexpected
	// server errors. Retryable by re-triggering the action.
	KindTransport Kind = "transport"
)

// Error is the discriminated failure result of every API operation.
// Status is the upstream HTTP status when one was received, 0 otherwise.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the failure kind from an error returned by this
// package. Unknown errors are treated as transport failures.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
