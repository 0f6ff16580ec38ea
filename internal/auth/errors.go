// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package auth

import (
	"errors"

	"github.com/lentos/lentos/internal/apperr"
)

// InvalidCredentialsMessage is shown for every failed login, whatever the cause.
const InvalidCredentialsMessage = "Invalid email or password provided. Try again."

var (
	// ErrInvalidCredentials is returned by Login for an unknown email, a wrong
	// password and an unreadable stored hash alike.
	ErrInvalidCredentials = apperr.Unauthorized(InvalidCredentialsMessage)

	// ErrUnauthorized is returned when a request carries no valid session.
	ErrUnauthorized = apperr.Unauthorized("You must be logged in to access this resource.")

	// ErrSessionNotFound is returned by a SessionStore when the key does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionCorrupt is returned by a SessionStore when the stored state cannot be decoded.
	ErrSessionCorrupt = errors.New("session state corrupt")
)
