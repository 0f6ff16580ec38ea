// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package middleware holds the echo middleware of the lentos HTTP API.
package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lentos/lentos/internal/auth"
)

// CookieName is the name of the session cookie.
const CookieName = "lentos_session"

const (
	ctxUserID     = "lentos.user_id"
	ctxSessionKey = "lentos.session_key"
)

// Authenticator resolves a session key to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (int64, error)
}

// Cookies reads and writes the signed session cookie.
type Cookies struct {
	Signer *auth.CookieSigner
	// Secure marks cookies HTTPS-only.
	Secure bool
}

// Set issues the session cookie for key. The cookie lives for the browser
// session; expiry is enforced server-side.
func (jar Cookies) Set(c echo.Context, key string) {
	c.SetCookie(jar.cookie(jar.Signer.Sign(key), 0))
}

// Clear expires the session cookie.
func (jar Cookies) Clear(c echo.Context) {
	c.SetCookie(jar.cookie("", -1))
}

// Key returns the verified session key carried by the request, if any.
func (jar Cookies) Key(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return jar.Signer.Verify(cookie.Value)
}

func (jar Cookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   jar.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Session requires a valid session cookie. It resolves the user and stores
// the user ID and session key on the echo context. Missing, tampered,
// unknown or expired sessions are answered with auth.ErrUnauthorized.
func Session(jar Cookies, authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := jar.Key(c)
			if !ok {
				return auth.ErrUnauthorized
			}

			userID, err := authn.Authenticate(c.Request().Context(), key)
			if err != nil {
				return err
			}

			c.Set(ctxUserID, userID)
			c.Set(ctxSessionKey, key)
			return next(c)
		}
	}
}

// UserID returns the authenticated user set by Session.
func UserID(c echo.Context) (int64, bool) {
	id, ok := c.Get(ctxUserID).(int64)
	return id, ok
}

// SessionKey returns the session key set by Session.
func SessionKey(c echo.Context) (string, bool) {
	key, ok := c.Get(ctxSessionKey).(string)
	return key, ok
}
