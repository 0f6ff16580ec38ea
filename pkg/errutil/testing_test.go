// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("MY_CODE").Errorf("test error")
	errutil.AssertErrorCode(t, err, "MY_CODE")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", "123").Errorf("test error")
	errutil.AssertErrorContext(t, err, "user_id", "123")
}

func TestAssertAppError_ThroughOops(t *testing.T) {
	err := oops.Code("USER_NOT_FOUND").Wrap(apperr.NotFound("User"))
	errutil.AssertAppError(t, err, apperr.KindNotFound, "User was not found")
}
