// Package apperr defines the error kinds surfaced at operation boundaries.
//
// Collaborator failures (catalog, Wings, local I/O) are converted into an
// *Error carrying one of the kinds below so the HTTP and CLI layers can map
// them to a status code without inspecting concrete error types.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// KindInternal is an unexpected local failure.
	KindInternal Kind = iota
	// KindInvalidRequest is a missing or malformed user-supplied field.
	KindInvalidRequest
	// KindUpstream is a catalog network failure or non-success response.
	KindUpstream
	// KindRemoteWrite is a failure reported by the remote file daemon.
	KindRemoteWrite
	// KindNotFound is an absent server, node or world.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindUpstream:
		return "upstream_error"
	case KindRemoteWrite:
		return "remote_write_error"
	case KindNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

// HTTPStatus returns the status code for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// InvalidRequest reports a user-correctable problem.
func InvalidRequest(op, format string, args ...any) *Error {
	return newError(KindInvalidRequest, op, fmt.Sprintf(format, args...), nil)
}

// Upstream wraps a catalog failure. The message is passed through verbatim.
func Upstream(op, message string, err error) *Error {
	return newError(KindUpstream, op, message, err)
}

// RemoteWrite wraps a file daemon failure.
func RemoteWrite(op, message string, err error) *Error {
	return newError(KindRemoteWrite, op, message, err)
}

// NotFound reports a missing server, node or world.
func NotFound(op, format string, args ...any) *Error {
	return newError(KindNotFound, op, fmt.Sprintf(format, args...), nil)
}

// Internal wraps an unexpected local failure.
func Internal(op string, err error) *Error {
	return newError(KindInternal, op, "", err)
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing message of err. For classified errors the
// operation prefix is omitted.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}
