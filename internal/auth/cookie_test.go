// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/pkg/errutil"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func TestNewCookieSigner_RejectsShortKey(t *testing.T) {
	_, err := auth.NewCookieSigner("short")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "COOKIE_SIGNING_KEY_TOO_SHORT")
}

func TestCookieSigner(t *testing.T) {
	signer, err := auth.NewCookieSigner(testSigningKey)
	require.NoError(t, err)

	key, err := auth.GenerateSessionKey()
	require.NoError(t, err)

	t.Run("signed value verifies", func(t *testing.T) {
		got, ok := signer.Verify(signer.Sign(key))
		require.True(t, ok)
		assert.Equal(t, key, got)
	})

	t.Run("tampered key is rejected", func(t *testing.T) {
		signed := signer.Sign(key)
		other := strings.Repeat("A", auth.SessionKeyLength)
		_, ok := signer.Verify(other + signed[auth.SessionKeyLength:])
		assert.False(t, ok)
	})

	t.Run("other signing key is rejected", func(t *testing.T) {
		otherSigner, err := auth.NewCookieSigner(strings.Repeat("z", 32))
		require.NoError(t, err)
		_, ok := signer.Verify(otherSigner.Sign(key))
		assert.False(t, ok)
	})

	t.Run("malformed values are rejected", func(t *testing.T) {
		for _, v := range []string{"", key, key + ".", key + ".!!!", "short.sig"} {
			_, ok := signer.Verify(v)
			assert.False(t, ok, "value %q", v)
		}
	})
}
