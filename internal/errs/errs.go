// Package errs defines the failure kinds shared by every record store,
// the audit layer and the authorization policy.
//
// Callers branch on the Kind, never on backend-specific error types:
//
//	if errs.Is(err, errs.NotFound) { ... }
//	if errors.Is(err, errs.ErrNotFound) { ... }
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a failure.
type Kind string

const (
	WriteFailure        Kind = "write_failure"
	ReadFailure         Kind = "read_failure"
	NotFound            Kind = "not_found"
	MalformedRecord     Kind = "malformed_record"
	ValidationFailure   Kind = "validation_failure"
	AuthorizationDenied Kind = "authorization_denied"
	DuplicateKey        Kind = "duplicate_key"
	Timeout             Kind = "timeout"
	AuthFailure         Kind = "auth_failure"
	OperationFailure    Kind = "operation_failure"
	UnknownFailure      Kind = "unknown_failure"
)

// Sentinels usable with errors.Is. Any *Error of the same kind matches.
var (
	ErrWriteFailure        = &Error{Kind: WriteFailure}
	ErrReadFailure         = &Error{Kind: ReadFailure}
	ErrNotFound            = &Error{Kind: NotFound}
	ErrMalformedRecord     = &Error{Kind: MalformedRecord}
	ErrValidationFailure   = &Error{Kind: ValidationFailure}
	ErrAuthorizationDenied = &Error{Kind: AuthorizationDenied}
	ErrDuplicateKey        = &Error{Kind: DuplicateKey}
	ErrTimeout             = &Error{Kind: Timeout}
	ErrAuthFailure         = &Error{Kind: AuthFailure}
	ErrOperationFailure    = &Error{Kind: OperationFailure}
	ErrUnknownFailure      = &Error{Kind: UnknownFailure}
)

// Error is a classified failure.
type Error struct {
	// Kind identifies the failure category.
	Kind Kind

	// Op is the operation that failed, e.g. "tasks.update".
	Op string

	// Entity and ID identify the affected record, when known.
	Entity string
	ID     string

	// Msg is a human-readable description.
	Msg string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	msg := e.Msg
	if msg == "" {
		msg = strings.ReplaceAll(string(e.Kind), "_", " ")
	}
	b.WriteString(msg)
	if e.Entity != "" && e.ID != "" {
		fmt.Fprintf(&b, " (%s %s)", e.Entity, e.ID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// E builds an *Error of kind k for op wrapping err.
func E(k Kind, op string, err error) *Error {
	return &Error{Kind: k, Op: op, Err: err}
}

// Errorf builds an *Error of kind k with a formatted message.
func Errorf(k Kind, op, format string, args ...any) *Error {
	return &Error{Kind: k, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf reports that the record entity/id does not exist.
func NotFoundf(op, entity, id string) *Error {
	return &Error{Kind: NotFound, Op: op, Entity: entity, ID: id, Msg: entity + " not found"}
}

// Validation reports invalid input for field.
func Validation(op, field, reason string) *Error {
	return &Error{Kind: ValidationFailure, Op: op, Msg: fmt.Sprintf("%s %s", field, reason)}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// UnknownFailure when err is not classified. A nil err has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownFailure
}

// Is reports whether err carries kind k anywhere in its chain.
func Is(err error, k Kind) bool {
	return errors.Is(err, &Error{Kind: k})
}
