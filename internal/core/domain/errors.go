package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies a failure so callers can branch on data instead of
// matching individual sentinels.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalid
	KindUnauthorized
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a domain failure tagged with its kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrPatientNotFound    = &Error{Kind: KindNotFound, Message: "patient not found"}
	ErrEmailAlreadyExists = &Error{Kind: KindConflict, Message: "a patient with this email already exists"}

	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrUserExists         = &Error{Kind: KindConflict, Message: "user already exists"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}
	ErrInvalidRole        = &Error{Kind: KindInvalid, Message: "role must be one of: ADMIN, USER"}

	ErrIncompleteEvent = &Error{Kind: KindInvalid, Message: "patient event missing patient id or event type"}
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed validation for a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// KindOf reports the kind of err. Errors that are neither *Error nor
// *ValidationError are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindInvalid
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
