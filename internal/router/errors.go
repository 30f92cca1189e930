package router

import (
	"errors"
	"fmt"
)

// Kind classifies router failures.
type Kind string

const (
	KindUnknownMethod    Kind = "UnknownMethod"
	KindUnknownBackend   Kind = "UnknownBackend"
	KindUnknownAction    Kind = "UnknownAction"
	KindInvalidParams    Kind = "InvalidParams"
	KindMalformedRequest Kind = "MalformedRequest"
	KindForwardFailure   Kind = "ForwardFailure"
)

// Error is the failure type returned by every router operation. Transports
// show Message to callers; the HTTP adapter maps any Error to status 500 and
// the JSON-RPC codec to code -32000.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Message: fmt.Sprintf("%s: %v", msg, err), Err: err}
}

// ErrUnknownBackend is returned when a call names a backend that is not running.
func ErrUnknownBackend(name string) *Error {
	return newError(KindUnknownBackend, "backend %q is not available", name)
}

// IsKind reports whether err is a router Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}

// KindOf returns the Kind of a router Error, or "" for any other error.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return ""
}
