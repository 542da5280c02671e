// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionTTL is how long an issued session (and its signed token) stays
// valid.
const SessionTTL = 24 * time.Hour

// Session is the durable proof that a token was legitimately issued and has
// not been revoked. Only the SHA-256 hash of the token is stored; the raw
// token exists solely in the client's hands.
type Session struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewSession creates a validated Session. IPAddress and UserAgent are
// optional client metadata and may be empty.
func NewSession(accountID ulid.ULID, tokenHash, ipAddress, userAgent string, expiresAt time.Time) (*Session, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	return &Session{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: tokenHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsExpiredAt returns true if the session would be expired at the given
// time. Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// HashToken computes the hex-encoded SHA-256 hash of a raw bearer token.
// This is the only form in which tokens touch storage.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// MatchesToken checks whether the raw token hashes to the stored value,
// using a constant-time comparison.
func (s *Session) MatchesToken(token string) bool {
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(s.TokenHash)) == 1
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash. Expired rows
	// are still returned; expiry is the caller's decision.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// GetByAccount retrieves all sessions for an account, newest first.
	GetByAccount(ctx context.Context, accountID ulid.ULID) ([]*Session, error)

	// DeleteByTokenHash removes all sessions matching the token hash.
	// Deleting a hash that matches nothing is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByAccount removes all sessions for an account.
	DeleteByAccount(ctx context.Context, accountID ulid.ULID) error

	// DeleteExpired removes all sessions past expiry and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
