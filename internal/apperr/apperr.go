// Package apperr holds the typed errors returned by the workflow services.
// Each error carries a Kind for callers that branch on category and a Reason
// for callers that need the exact rule that was violated.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindPeriodClosed        Kind = "period_closed"
	KindPondokNotVerified   Kind = "pondok_not_verified"
	KindPrerequisiteMissing Kind = "prerequisite_document_missing"
	KindInvalidTransition   Kind = "invalid_transition"
	KindPersistence         Kind = "persistence"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Reason != "" {
		b.WriteString(" (" + e.Reason + ")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, and on Reason when the target sets one, so that
// errors.Is(err, apperr.ErrPeriodClosed) works for any closed window.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrPeriodClosed        = &Error{Kind: KindPeriodClosed}
	ErrPondokNotVerified   = &Error{Kind: KindPondokNotVerified}
	ErrPrerequisiteMissing = &Error{Kind: KindPrerequisiteMissing}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition}
	ErrPersistence         = &Error{Kind: KindPersistence}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
)

// ErrOptimisticLock is returned by repositories when a compare-and-swap update
// matched no row because the record changed since it was read.
var ErrOptimisticLock = errors.New("record was modified by another operation")

// ErrRecordNotFound is returned by repositories for a missing row.
var ErrRecordNotFound = errors.New("record not found")

func Validation(reason, message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: message, Fields: fields}
}

// PeriodClosed reports that the rab or lpj window of a periode is not open.
func PeriodClosed(window, periodeID string) *Error {
	return &Error{
		Kind:    KindPeriodClosed,
		Reason:  window + "_window_closed",
		Message: fmt.Sprintf("periode %s is not accepting %s submissions", periodeID, strings.ToUpper(window)),
	}
}

func PondokNotVerified(pondokID string) *Error {
	return &Error{
		Kind:    KindPondokNotVerified,
		Reason:  "pondok_pending_verification",
		Message: fmt.Sprintf("pondok %s has not been verified", pondokID),
	}
}

func PrerequisiteMissing(message string) *Error {
	return &Error{Kind: KindPrerequisiteMissing, Reason: "approved_rab_required", Message: message}
}

func InvalidTransition(reason, message string) *Error {
	return &Error{Kind: KindInvalidTransition, Reason: reason, Message: message}
}

// Persistence wraps a store or upload failure. The cause stays reachable
// through errors.Unwrap but is never rendered to API clients.
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Reason: op, Message: "failed to " + strings.ReplaceAll(op, "_", " "), Err: err}
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Reason: entity + "_not_found", Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func Forbidden(reason, message string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason, Message: message}
}

func Conflict(reason, message string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: message}
}

// Unauthorized reports missing, invalid or revoked credentials.
func Unauthorized(reason, message string) *Error {
	return &Error{Kind: KindUnauthorized, Reason: reason, Message: message}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is a shorthand for errors.As against *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
