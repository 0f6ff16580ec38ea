// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package auth provides password hashing, server-side sessions and the
// account service that binds them to user accounts.
//
// # Sessions
//
// A session is an opaque 64-character alphanumeric key mapped to a small
// string state ([SessionState]). The state always carries the owning user's
// ID and an RFC 3339 expiry; expiry is enforced when the key is
// authenticated, and [SessionStore.DeleteExpired] prunes stale rows.
// Store adapters live in the postgres and redis sub-packages; authtest holds
// an in-memory fake.
//
// # Services
//
// [Service] coordinates accounts and sessions:
//   - Register, Login, Logout and Authenticate
//   - Profile, UpdateAccount and DeleteAccount
//   - EnsureGuest, the idempotent guest-account seed
//
// Client-facing failures are [apperr.Error] values; everything else is an
// oops error carrying a code and is never shown to clients.
package auth
