// Package errors defines the error taxonomy shared by all chaincodes.
// Every contract failure is one of five kinds so callers can decide
// retry versus surface-to-user behavior from the kind alone. The kind
// name prefixes the message, which keeps failures distinguishable after
// they cross the peer response boundary as plain strings.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindValidation covers malformed input, unauthorized-by-shape
	// requests and unsatisfied fees. No state change occurred.
	KindValidation Kind = iota + 1
	// KindNotFound covers absent identities, credentials, attestations
	// and dispute cases.
	KindNotFound
	// KindConflict covers duplicate creates and stale optimistic updates.
	KindConflict
	// KindPolicyViolation covers status transitions the state machine
	// does not permit, expired delegations and non-future expiries.
	KindPolicyViolation
	// KindAuthorization covers callers that are not the controller,
	// issuer, attester or required authority.
	KindAuthorization
)

// String returns the wire prefix for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindPolicyViolation:
		return "POLICY_VIOLATION"
	case KindAuthorization:
		return "AUTHORIZATION_ERROR"
	default:
		return "UNKNOWN"
	}
}

// DomainError carries a kind, a message and an optional wrapped cause.
type DomainError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error renders the kind prefix, the message, and any wrapped cause.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewValidation creates a validation error.
func NewValidation(format string, args ...interface{}) error {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound creates a not-found error.
func NewNotFound(format string, args ...interface{}) error {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewConflict creates a conflict error.
func NewConflict(format string, args ...interface{}) error {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewPolicyViolation creates a policy violation error.
func NewPolicyViolation(format string, args ...interface{}) error {
	return &DomainError{Kind: KindPolicyViolation, Message: fmt.Sprintf(format, args...)}
}

// NewAuthorization creates an authorization error.
func NewAuthorization(format string, args ...interface{}) error {
	return &DomainError{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain, or 0 for non-domain errors.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsValidation reports whether the error is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether the error is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether the error is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsPolicyViolation reports whether the error is a policy violation.
func IsPolicyViolation(err error) bool { return KindOf(err) == KindPolicyViolation }

// IsAuthorization reports whether the error is an authorization error.
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
