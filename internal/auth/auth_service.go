// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/opsboard/opsboard/internal/observability"
	"github.com/opsboard/opsboard/pkg/errutil"
)

// Service provides the authentication operations consumed by request
// handlers.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	hasher   PasswordHasher
	codec    TokenCodec
	policy   LockoutPolicy
	logger   *slog.Logger
}

// NewService creates a new Service. A zero-valued policy falls back to
// DefaultLockoutPolicy.
func NewService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, codec TokenCodec, policy LockoutPolicy) (*Service, error) {
	return NewServiceWithLogger(accounts, sessions, hasher, codec, policy, slog.Default())
}

// NewServiceWithLogger creates a new Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, codec TokenCodec, policy LockoutPolicy, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if policy == (LockoutPolicy{}) {
		policy = DefaultLockoutPolicy()
	}

	return &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		codec:    codec,
		policy:   policy,
		logger:   logger,
	}, nil
}

// dummyPasswordHash is used when an account doesn't exist to prevent timing
// attacks. We still run password verification to keep response time
// consistent. This is NOT a real credential - it is a fake hash that will
// never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login authenticates a credential pair and mints a session.
// Returns the raw bearer token and a sanitized view of the account.
// Unknown email, wrong password and inactive account all fail with the same
// AUTH_INVALID_CREDENTIALS error to prevent account enumeration.
func (s *Service) Login(ctx context.Context, email, password, clientIP, clientAgent string) (string, AccountSummary, error) {
	email = NormalizeEmail(email)

	account, lookupErr := s.accounts.GetByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		observability.RecordLoginAttempt(observability.LoginOutcomeError)
		return "", AccountSummary{}, oops.Code(CodeStoreUnavailable).
			With("operation", "get account by email").
			Wrap(lookupErr)
	}

	if account == nil {
		// Burn a hash comparison against a fake record so an absent email
		// is not distinguishable by response time.
		_, _ = s.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck // timing equalization only
		observability.RecordLoginAttempt(observability.LoginOutcomeInvalid)
		return "", AccountSummary{}, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	if !account.IsActive {
		// Same error surface as an unknown email.
		_, _ = s.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck // timing equalization only
		observability.RecordLoginAttempt(observability.LoginOutcomeInvalid)
		return "", AccountSummary{}, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	now := time.Now()
	if s.policy.IsLocked(account.LockedUntil, now) {
		observability.RecordLoginAttempt(observability.LoginOutcomeLocked)
		return "", AccountSummary{}, oops.Code(CodeAccountLocked).
			With("locked_until", account.LockedUntil).
			Errorf("account is temporarily locked")
	}

	valid, verifyErr := s.hasher.Verify(password, account.PasswordHash)
	if verifyErr != nil {
		// A stored record the hasher cannot parse is an integrity fault,
		// not a user mistake.
		observability.RecordLoginAttempt(observability.LoginOutcomeError)
		return "", AccountSummary{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !valid {
		s.recordFailedAttempt(ctx, account)
		observability.RecordLoginAttempt(observability.LoginOutcomeInvalid)
		return "", AccountSummary{}, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	// Success: reset the counter, clear any elapsed lock and stamp the
	// login time. The login proceeds even if this write fails.
	if err := s.accounts.RecordSuccess(ctx, account.ID, now); err != nil {
		errutil.LogError(s.logger, "failed to reset lockout counters after login", err)
	}
	account.FailedAttempts, account.LockedUntil = s.policy.OnSuccess()
	account.LastLogin = &now

	s.maybeUpgradeHash(ctx, account, password)

	token, err := s.codec.Sign(account, SessionTTL)
	if err != nil {
		observability.RecordLoginAttempt(observability.LoginOutcomeError)
		return "", AccountSummary{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "sign token").
			Wrap(err)
	}

	session, err := NewSession(account.ID, HashToken(token), clientIP, clientAgent, now.Add(SessionTTL))
	if err != nil {
		observability.RecordLoginAttempt(observability.LoginOutcomeError)
		return "", AccountSummary{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	// Token issuance and session persistence are one logical unit: if this
	// write does not land, no token reaches the caller.
	if err := s.sessions.Create(ctx, session); err != nil {
		observability.RecordLoginAttempt(observability.LoginOutcomeError)
		return "", AccountSummary{}, oops.Code(CodeStoreUnavailable).
			With("operation", "persist session").
			Wrap(err)
	}

	observability.RecordLoginAttempt(observability.LoginOutcomeSuccess)
	return token, account.Summary(), nil
}

// recordFailedAttempt persists the atomic counter increment. A failed write
// never changes the caller-visible outcome, but it is loud in the logs
// because a silently degraded lockout is an attack surface.
func (s *Service) recordFailedAttempt(ctx context.Context, account *Account) {
	attempts, lockedUntil, err := s.accounts.RecordFailure(ctx, account.ID, s.policy.MaxFailedAttempts, s.policy.LockDuration)
	if err != nil {
		errutil.LogError(s.logger, "failed to record failed login attempt", err)
		return
	}
	if lockedUntil != nil {
		s.logger.Warn("account locked after repeated failures",
			"account_id", account.ID.String(),
			"failed_attempts", attempts,
			"locked_until", lockedUntil,
		)
	}
}

// maybeUpgradeHash re-hashes the password under the current scheme when the
// stored record is legacy. Best effort; login succeeds regardless.
func (s *Service) maybeUpgradeHash(ctx context.Context, account *Account, password string) {
	if !s.hasher.NeedsUpgrade(account.PasswordHash) {
		return
	}
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogError(s.logger, "failed to compute upgraded password hash", err)
		return
	}
	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, newHash); err != nil {
		errutil.LogError(s.logger, "failed to store upgraded password hash", err)
		return
	}
	account.PasswordHash = newHash
}

// VerifySession validates a bearer token and returns its claims. The codec
// check runs first so expired or forged tokens fail without touching
// storage; the session lookup then catches revocation, and the owning
// account's active flag is re-checked.
func (s *Service) VerifySession(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, oops.Code(CodeTokenMalformed).Errorf("bearer token cannot be empty")
	}

	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeSessionRevoked).Errorf("session has been revoked")
		}
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, oops.Code(CodeSessionRevoked).Errorf("session has expired")
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Owner deleted since issuance; cascade may still be in flight.
			return nil, oops.Code(CodeSessionRevoked).Errorf("session has been revoked")
		}
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "get session owner").
			Wrap(err)
	}

	if !account.IsActive {
		return nil, oops.Code(CodeAccountInactive).Errorf("account has been deactivated")
	}

	return claims, nil
}

// Logout revokes the session backing the token. Idempotent: a token that
// matches no session, or was never issued, is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return oops.Code(CodeStoreUnavailable).
			With("operation", "delete session by token hash").
			Wrap(err)
	}
	return nil
}

// CreateAccount hashes the password and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, email, password, name string, role Role, caps Capabilities, createdBy *ulid.ULID) (AccountSummary, error) {
	if err := ValidatePassword(password); err != nil {
		return AccountSummary{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return AccountSummary{}, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(email, hash, name, role, caps, createdBy)
	if err != nil {
		return AccountSummary{}, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return AccountSummary{}, oops.Code(CodeEmailExists).
				With("email", account.Email).
				Errorf("email already exists")
		}
		return AccountSummary{}, oops.Code(CodeStoreUnavailable).
			With("operation", "insert account").
			Wrap(err)
	}

	s.logger.Info("account created",
		"account_id", account.ID.String(),
		"email", account.Email,
		"role", string(account.Role),
	)
	return account.Summary(), nil
}

// ListAccounts returns sanitized views of all accounts, newest first.
func (s *Service) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "list accounts").
			Wrap(err)
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, a.Summary())
	}
	return summaries, nil
}

// ReapExpiredSessions deletes all sessions past expiry and returns the
// count. Safe to run concurrently with logouts; deletion is commutative.
func (s *Service) ReapExpiredSessions(ctx context.Context) (int64, error) {
	count, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code(CodeStoreUnavailable).
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	if count > 0 {
		observability.RecordSessionsReaped(count)
		s.logger.Info("reaped expired sessions", "count", count)
	}
	return count, nil
}
