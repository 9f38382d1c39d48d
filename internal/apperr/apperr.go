// Package apperr defines the closed set of failure kinds surfaced by the
// service layer. Callers branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NetworkUnavailable   Kind = "network_unavailable"
	UserNotFound         Kind = "user_not_found"
	BadPassword          Kind = "bad_password"
	DuplicateIdentifier  Kind = "duplicate_identifier"
	CodeExpired          Kind = "code_expired"
	CodeMismatch         Kind = "code_mismatch"
	RateLimited          Kind = "rate_limited"
	RemoteStoreError     Kind = "remote_store_error"
	UnknownAction        Kind = "unknown_action"
	RegistrationNotFound Kind = "registration_not_found"
	DeliveryFailed       Kind = "delivery_failed"
	InvalidInput         Kind = "invalid_input"
	Unauthorized         Kind = "unauthorized"
	Banned               Kind = "banned"
	NotFound             Kind = "not_found"
)

func (k Kind) Error() string { return string(k) }

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.CodeExpired) match on kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind carried by err. Errors without a kind are
// reported as RemoteStoreError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return RemoteStoreError
}

// Message returns the human readable part of err without the op chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		return string(e.Kind)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
