// Package errors provides explicit, human-readable error types for querygate.
// Every error carries a Kind that decides the HTTP status class it is rendered with,
// plus an optional Reason and Suggestion so callers can self-correct.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind is the status class of an error.
type Kind int

const (
	// KindInternal covers database failures, panics and anything unmapped.
	KindInternal Kind = iota
	// KindBadRequest covers unknown catalog keys and invalid identifiers.
	KindBadRequest
	// KindUnauthorized covers missing or wrong credentials.
	KindUnauthorized
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// GatewayError is the base error type for all querygate errors.
type GatewayError struct {
	Kind       Kind
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors of the same kind and message.
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Sentinels usable with errors.Is.
var (
	ErrUnauthorized      = &GatewayError{Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrQueryNotAllowed   = &GatewayError{Kind: KindBadRequest, Message: "query not allowed"}
	ErrInvalidIdentifier = &GatewayError{Kind: KindBadRequest, Message: "invalid table name"}
	ErrInternal          = &GatewayError{Kind: KindInternal, Message: "Internal Server Error"}
)

// NewUnauthorized creates an authentication failure. The reason is for logs only.
func NewUnauthorized(reason string) *GatewayError {
	return &GatewayError{
		Kind:    KindUnauthorized,
		Message: ErrUnauthorized.Message,
		Reason:  reason,
	}
}

// NewBadRequest creates a client-side validation error.
func NewBadRequest(message, suggestion string) *GatewayError {
	return &GatewayError{
		Kind:       KindBadRequest,
		Message:    message,
		Suggestion: suggestion,
	}
}

// QueryNotAllowedError is returned when a catalog key is not in the whitelist.
type QueryNotAllowedError struct {
	GatewayError
	Key     string
	Allowed []string
}

// NewQueryNotAllowed creates a QueryNotAllowedError listing every allowed key.
func NewQueryNotAllowed(key string, allowed []string) *QueryNotAllowedError {
	return &QueryNotAllowedError{
		GatewayError: GatewayError{
			Kind:       KindBadRequest,
			Message:    ErrQueryNotAllowed.Message,
			Reason:     fmt.Sprintf("%q is not a catalog key", key),
			Suggestion: "Use one of: " + strings.Join(allowed, ", "),
		},
		Key:     key,
		Allowed: allowed,
	}
}

// PublicMessage is the text shown to clients.
func (e *QueryNotAllowedError) PublicMessage() string {
	return "Query not allowed. " + e.Suggestion
}

// InvalidIdentifierError is returned when a table name fails the allow-pattern.
type InvalidIdentifierError struct {
	GatewayError
	Name string
}

// NewInvalidIdentifier creates an InvalidIdentifierError.
func NewInvalidIdentifier(name, reason string) *InvalidIdentifierError {
	return &InvalidIdentifierError{
		GatewayError: GatewayError{
			Kind:       KindBadRequest,
			Message:    ErrInvalidIdentifier.Message,
			Reason:     reason,
			Suggestion: "table names may contain only ASCII letters, digits and underscores",
		},
		Name: name,
	}
}

// PublicMessage is the text shown to clients.
func (e *InvalidIdentifierError) PublicMessage() string {
	return fmt.Sprintf("Invalid table name %q: %s", e.Name, e.Suggestion)
}

// NewInternal wraps an unexpected failure. The cause is never shown to clients.
func NewInternal(cause error) *GatewayError {
	return &GatewayError{
		Kind:    KindInternal,
		Message: ErrInternal.Message,
		Cause:   cause,
	}
}

// KindOf reports the status class of err. Errors that are not GatewayErrors are internal.
func KindOf(err error) Kind {
	var ge *GatewayError
	if stderrors.As(err, &ge) {
		return ge.Kind
	}
	var qe *QueryNotAllowedError
	if stderrors.As(err, &qe) {
		return qe.Kind
	}
	var ie *InvalidIdentifierError
	if stderrors.As(err, &ie) {
		return ie.Kind
	}
	return KindInternal
}

// PublicMessage returns the message that may be sent to a client for err.
// Internal errors always collapse to "Internal Server Error".
func PublicMessage(err error) string {
	var qe *QueryNotAllowedError
	if stderrors.As(err, &qe) {
		return qe.PublicMessage()
	}
	var ie *InvalidIdentifierError
	if stderrors.As(err, &ie) {
		return ie.PublicMessage()
	}
	switch KindOf(err) {
	case KindUnauthorized:
		return ErrUnauthorized.Message
	case KindBadRequest:
		var ge *GatewayError
		if stderrors.As(err, &ge) {
			return ge.Message
		}
	}
	return ErrInternal.Message
}
