// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package apperr defines the client-safe error taxonomy shared by the
// repositories, the account service and the HTTP layer.
//
// An *Error carries a Kind (mapped to an HTTP status by the API layer) and a
// message that is safe to show to end users. Anything that is not an *Error is
// treated as an internal failure and is never described to a client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a client-facing failure.
type Kind int

// Error kinds.
const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindConflict
	KindBadRequest
	KindUnauthorized
)

// Sentinels for errors.Is matching against a Kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
)

// Operation names the CRUD operation a Forbidden error refers to.
type Operation string

// CRUD operations.
const (
	OpCreate  Operation = "create"
	OpReceive Operation = "receive"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
)

// Error is a failure whose message may be disclosed to the requester.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the Kind sentinel so callers can use errors.Is(err, ErrForbidden).
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	return e.Kind.Status()
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindForbidden:
		return ErrForbidden
	case KindConflict:
		return ErrConflict
	case KindBadRequest:
		return ErrBadRequest
	case KindUnauthorized:
		return ErrUnauthorized
	default:
		return nil
	}
}

// Status maps a Kind to an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// NotFound reports that a row of relation does not exist.
func NotFound(relation string) *Error {
	return &Error{Kind: KindNotFound, Message: relation + " was not found"}
}

// Forbidden reports that the requester may not perform op on relation.
func Forbidden(op Operation, relation string) *Error {
	return &Error{
		Kind:    KindForbidden,
		Message: fmt.Sprintf("You have no permission to %s this %s", op, relation),
	}
}

// Conflict reports a uniqueness violation with a safe message.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// BadRequest reports malformed or incomplete input.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Unauthorized reports missing or invalid authentication.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// As extracts the client-facing error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
