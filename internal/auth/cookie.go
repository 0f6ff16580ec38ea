// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/samber/oops"
)

// MinSigningKeyLength is the minimum accepted signing key length in bytes.
const MinSigningKeyLength = 32

// CookieSigner signs session keys so tampered cookies are rejected before
// reaching the session store. Signed values have the form "<key>.<mac>".
type CookieSigner struct {
	secret []byte
}

// NewCookieSigner creates a CookieSigner from the configured signing key.
func NewCookieSigner(signingKey string) (*CookieSigner, error) {
	if len(signingKey) < MinSigningKeyLength {
		return nil, oops.Code("COOKIE_SIGNING_KEY_TOO_SHORT").
			With("min_length", MinSigningKeyLength).
			Errorf("session signing key must be at least %d bytes", MinSigningKeyLength)
	}
	return &CookieSigner{secret: []byte(signingKey)}, nil
}

// Sign returns the cookie value for a session key.
func (s *CookieSigner) Sign(sessionKey string) string {
	return sessionKey + "." + base64.RawURLEncoding.EncodeToString(s.mac(sessionKey))
}

// Verify returns the session key of a signed value, or false if the value
// is malformed or its signature does not match.
func (s *CookieSigner) Verify(value string) (string, bool) {
	key, sig, ok := strings.Cut(value, ".")
	if !ok || !ValidSessionKey(key) {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, s.mac(key)) {
		return "", false
	}
	return key, true
}

func (s *CookieSigner) mac(key string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(key))
	return m.Sum(nil)
}
