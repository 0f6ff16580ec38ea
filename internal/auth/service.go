// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/internal/user"
)

// Login and registration results reported to Metrics.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultInvalid            = "invalid"
	ResultConflict           = "conflict"
	ResultError              = "error"
)

// Metrics receives account events. observability.Metrics implements it.
type Metrics interface {
	LoginAttempt(result string)
	Registration(result string)
}

type noopMetrics struct{}

func (noopMetrics) LoginAttempt(string) {}
func (noopMetrics) Registration(string) {}

// ServiceConfig holds the dependencies of a Service.
// Users, Sessions and Hasher are required.
type ServiceConfig struct {
	Users    user.Repository
	Sessions SessionStore
	Hasher   PasswordHasher
	Logger   *slog.Logger
	Metrics  Metrics

	// SessionTTL is the session lifetime. Zero means DefaultSessionTTL.
	SessionTTL time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service provides account and session operations.
type Service struct {
	users    user.Repository
	sessions SessionStore
	hasher   PasswordHasher
	logger   *slog.Logger
	metrics  Metrics
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a new Service. Returns an error if a required dependency is nil.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if cfg.Sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if cfg.Hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}

	s := &Service{
		users:    cfg.Users,
		sessions: cfg.Sessions,
		hasher:   cfg.Hasher,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		ttl:      cfg.SessionTTL,
		now:      cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// SessionTTL returns the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// dummyPasswordHash is verified when an email is unknown so that response
// time does not reveal which emails are registered. It matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// RegisterInput holds the fields of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateAccountInput is a partial account update. Nil fields are unchanged.
type UpdateAccountInput struct {
	Name     *string
	Email    *string
	Password *string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User       *user.User
	SessionKey string
	ExpiresAt  time.Time
}

// GuestAccount describes the seeded guest user.
type GuestAccount struct {
	Name     string
	Email    string
	Password string
}

// Register creates an account. The password is hashed before it reaches the repository.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		s.metrics.Registration(ResultInvalid)
		return nil, apperr.BadRequest("name, email and password are required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.Registration(ResultError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	u, err := s.users.Create(ctx, user.CreateUser{
		Name:         strings.TrimSpace(in.Name),
		Email:        user.NormalizeEmail(in.Email),
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrConflict):
			s.metrics.Registration(ResultConflict)
		case errors.Is(err, apperr.ErrBadRequest):
			s.metrics.Registration(ResultInvalid)
		default:
			s.metrics.Registration(ResultError)
		}
		return nil, oops.With("operation", "register").Wrap(err)
	}

	s.metrics.Registration(ResultSuccess)
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and opens a new session. If previousKey names an
// existing session it is deleted, so a login always rotates the session key.
// Unknown emails, wrong passwords and unreadable stored hashes all return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password, previousKey string) (*LoginResult, error) {
	u, lookupErr := s.users.GetByEmail(ctx, user.NormalizeEmail(email))

	var targetHash string
	userExists := lookupErr == nil
	switch {
	case userExists:
		targetHash = u.PasswordHash
	case errors.Is(lookupErr, apperr.ErrNotFound):
		targetHash = dummyPasswordHash
	default:
		s.metrics.LoginAttempt(ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	// Always verify so unknown emails cost the same as wrong passwords.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		s.logger.ErrorContext(ctx, "stored password hash unreadable",
			"code", "AUTH_STORED_HASH_INVALID",
			"user_id", u.ID,
			"error", verifyErr)
		s.metrics.LoginAttempt(ResultInvalidCredentials)
		return nil, oops.Code("AUTH_STORED_HASH_INVALID").
			With("user_id", u.ID).
			Wrap(ErrInvalidCredentials)
	}
	if !userExists || !valid {
		s.metrics.LoginAttempt(ResultInvalidCredentials)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if s.hasher.NeedsUpgrade(u.PasswordHash) {
		s.upgradeHash(ctx, u, password)
	}

	if previousKey != "" {
		if err := s.sessions.Delete(ctx, previousKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous session", "error", err)
		}
	}

	expiresAt := s.now().Add(s.ttl)
	key, err := s.sessions.Save(ctx, NewSessionState(u.ID, expiresAt), s.ttl)
	if err != nil {
		s.metrics.LoginAttempt(ResultError)
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "save session").
			With("user_id", u.ID).
			Wrap(err)
	}

	s.metrics.LoginAttempt(ResultSuccess)
	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return &LoginResult{User: u, SessionKey: key, ExpiresAt: expiresAt}, nil
}

// upgradeHash re-hashes the password with current parameters. Failures are
// logged; the login still succeeds.
func (s *Service) upgradeHash(ctx context.Context, u *user.User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", u.ID, "error", err)
		return
	}
	updated, err := s.users.Update(ctx, user.UpdateUser{PasswordHash: &newHash}, u.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash not stored", "user_id", u.ID, "error", err)
		return
	}
	*u = *updated
}

// Authenticate resolves a session key to its user ID. A missing, corrupt or
// expired session returns ErrUnauthorized; corrupt and expired sessions are
// deleted. Sessions past half their lifetime get a fresh expiry.
func (s *Service) Authenticate(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrUnauthorized
	}

	state, err := s.sessions.Load(ctx, key)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return 0, oops.Code("SESSION_INVALID").Wrap(ErrUnauthorized)
	case errors.Is(err, ErrSessionCorrupt):
		s.discard(ctx, key, "corrupt")
		return 0, oops.Code("SESSION_CORRUPT").Wrap(ErrUnauthorized)
	case err != nil:
		return 0, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "load session").
			Wrap(err)
	}

	userID, idErr := state.UserID()
	expiresAt, expErr := state.ExpiresAt()
	if idErr != nil || expErr != nil {
		s.discard(ctx, key, "corrupt")
		return 0, oops.Code("SESSION_CORRUPT").Wrap(ErrUnauthorized)
	}

	now := s.now()
	if !now.Before(expiresAt) {
		s.discard(ctx, key, "expired")
		return 0, oops.Code("SESSION_EXPIRED").
			With("user_id", userID).
			Wrap(ErrUnauthorized)
	}

	if expiresAt.Sub(now) < s.ttl/2 {
		renewed := state.Clone()
		renewed[StateExpiresAt] = NewSessionState(userID, now.Add(s.ttl))[StateExpiresAt]
		if _, err := s.sessions.Update(ctx, key, renewed, s.ttl); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return 0, oops.Code("SESSION_INVALIDATED").
					With("user_id", userID).
					Wrap(ErrUnauthorized)
			}
			return 0, oops.Code("SESSION_RENEW_FAILED").
				With("operation", "update session").
				With("user_id", userID).
				Wrap(err)
		}
	}

	return userID, nil
}

func (s *Service) discard(ctx context.Context, key, reason string) {
	if err := s.sessions.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete session", "reason", reason, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "session discarded", "reason", reason)
}

// Logout deletes the session. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, key); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// Profile returns the user's account.
func (s *Service) Profile(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, oops.With("operation", "profile").Wrap(err)
	}
	return u, nil
}

// UpdateAccount applies a partial account update. A new password is hashed first.
func (s *Service) UpdateAccount(ctx context.Context, in UpdateAccountInput, userID int64) (*user.User, error) {
	update := user.UpdateUser{Name: in.Name}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.BadRequest("name must not be empty")
	}
	if in.Email != nil {
		email := user.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, apperr.BadRequest("email must not be empty")
		}
		update.Email = &email
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if errors.Is(err, ErrEmptyPassword) {
			return nil, apperr.BadRequest("password must not be empty")
		}
		if err != nil {
			return nil, oops.Code("AUTH_UPDATE_FAILED").
				With("operation", "hash password").
				Wrap(err)
		}
		update.PasswordHash = &hash
	}

	u, err := s.users.Update(ctx, update, userID)
	if err != nil {
		return nil, oops.With("operation", "update account").Wrap(err)
	}
	return u, nil
}

// DeleteAccount deletes the user and then every session the user holds,
// including the current one.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, key string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return oops.With("operation", "delete account").Wrap(err)
	}
	removed, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return oops.Code("AUTH_DELETE_SESSIONS_FAILED").
			With("operation", "delete user sessions").
			With("user_id", userID).
			Wrap(err)
	}
	if err := s.Logout(ctx, key); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", userID, "sessions_removed", removed)
	return nil
}

// EnsureGuest creates the guest account if it does not exist yet.
// Running it repeatedly, or concurrently with another instance, is safe.
func (s *Service) EnsureGuest(ctx context.Context, guest GuestAccount) error {
	_, err := s.users.GetByEmail(ctx, user.NormalizeEmail(guest.Email))
	if err == nil {
		s.logger.DebugContext(ctx, "guest account present", "email", guest.Email)
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return oops.Code("AUTH_GUEST_SEED_FAILED").
			With("operation", "lookup guest").
			Wrap(err)
	}

	_, err = s.Register(ctx, RegisterInput(guest))
	if errors.Is(err, apperr.ErrConflict) {
		return nil
	}
	if err != nil {
		return oops.Code("AUTH_GUEST_SEED_FAILED").
			With("operation", "register guest").
			Wrap(err)
	}
	s.logger.InfoContext(ctx, "guest account created", "email", guest.Email)
	return nil
}
