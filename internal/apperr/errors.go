// Package apperr carries the service error taxonomy. Every deterministic
// failure has a stable Kind that clients branch on and a message string that
// stays byte-for-byte identical across releases.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindUpstream     Kind = "UPSTREAM"
	KindInternal     Kind = "INTERNAL"
)

// Stable messages. Clients match on these, do not reword.
const (
	MsgLinkNotFound     = "Share link not found"
	MsgFileNotFound     = "File not found"
	MsgPackageNotFound  = "Package not found"
	MsgUploadNotOpened  = "Failed to initiate multipart upload"
	MsgLinkInactive     = "This link is no longer active"
	MsgLinkExpired      = "This link has expired"
	MsgLimitExceeded    = "Download limit exceeded"
	MsgPasswordRequired = "Password required"
	MsgInvalidPassword  = "Invalid password"
	MsgEmailExists      = "Email already exists"
	MsgBadCredentials   = "Invalid credentials"
	MsgUploadCompleted  = "Upload already completed"
	MsgUploadAborted    = "Upload was aborted"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and message so sentinel-style
// comparisons work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func BadRequest(msg string) *Error   { return New(KindBadRequest, msg) }
func Forbidden(msg string) *Error    { return New(KindForbidden, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }

// Upstream wraps a failed object-store or notification call.
func Upstream(msg string, err error) *Error {
	return Wrap(KindUpstream, msg, err)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message. Internal errors are not echoed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch {
		case e.Kind == KindInternal:
			return "internal server error"
		case e.Kind == KindUpstream && e.Message == "":
			return "upstream service failed"
		}
		return e.Error()
	}
	return "internal server error"
}
