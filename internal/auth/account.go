// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted plaintext password length.
const MinPasswordLength = 8

// Role is the admin-tier label attached to an account.
type Role string

// Known roles, from most to least privileged.
const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleViewer     Role = "viewer"
)

// Valid reports whether the role is one of the known labels.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleViewer:
		return true
	}
	return false
}

// emailRegex is a deliberately loose shape check; the store's unique index
// on the normalized email is the real gatekeeper.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Capabilities are the four independent permission flags carried by an
// account and embedded into issued tokens.
type Capabilities struct {
	ManageUsers   bool `json:"manage_users"`
	ManageAI      bool `json:"manage_ai"`
	ViewAnalytics bool `json:"view_analytics"`
	ManageSystem  bool `json:"manage_system"`
}

// Account is an administrator identity record.
type Account struct {
	ID             ulid.ULID
	Email          string
	PasswordHash   string
	Name           string
	Role           Role
	Capabilities   Capabilities
	IsActive       bool
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	CreatedBy      *ulid.ULID
}

// NewAccount creates a validated Account. Email is normalized, the password
// hash must already be computed, and createdBy is an optional audit pointer
// to the creating account.
func NewAccount(email, passwordHash, name string, role Role, caps Capabilities, createdBy *ulid.ULID) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidCredentials).Errorf("password hash cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").With("role", string(role)).Errorf("unknown role %q", role)
	}
	if createdBy != nil && createdBy.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("AUTH_INVALID_CREATOR").Errorf("creator ID cannot be zero when provided")
	}

	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		Capabilities: caps,
		IsActive:     true,
		CreatedAt:    time.Now(),
		CreatedBy:    createdBy,
	}, nil
}

// IsLocked returns true if the account is currently inside a lockout window.
func (a *Account) IsLocked() bool {
	return a.LockedUntil != nil && a.LockedUntil.After(time.Now())
}

// Summary returns the sanitized caller-facing view of the account. The
// password hash and lockout counters never leave the core.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		Role:         a.Role,
		Capabilities: a.Capabilities,
		IsActive:     a.IsActive,
		LastLogin:    a.LastLogin,
		CreatedAt:    a.CreatedAt,
	}
}

// AccountSummary is the sanitized view of an account returned to callers.
type AccountSummary struct {
	ID           ulid.ULID    `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
	IsActive     bool         `json:"is_active"`
	LastLogin    *time.Time   `json:"last_login,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NormalizeEmail lowercases and trims an email address. All lookups and
// uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates the shape of a normalized email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").With("email", email).Errorf("malformed email address")
	}
	return nil
}

// ValidatePassword validates a candidate plaintext password.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_WEAK_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrDuplicateEmail (wrapped) when
	// the normalized email is already taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by normalized email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// List retrieves all accounts, newest first.
	List(ctx context.Context) ([]*Account, error)

	// RecordFailure atomically increments the failed-attempt counter and,
	// when the new count reaches threshold, sets the lockout timestamp to
	// now+lockFor. The increment and the threshold decision execute as a
	// single storage-side statement so concurrent failures cannot lose
	// updates or slip past the threshold. Returns the post-increment
	// counter and lockout timestamp.
	RecordFailure(ctx context.Context, id ulid.ULID, threshold int, lockFor time.Duration) (int, *time.Time, error)

	// RecordSuccess resets the failed-attempt counter, clears the lockout
	// timestamp and stamps the last successful login.
	RecordSuccess(ctx context.Context, id ulid.ULID, lastLogin time.Time) error

	// UpdatePasswordHash replaces only the stored password hash.
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string) error

	// SetActive flips the active flag (soft deactivate/reactivate).
	SetActive(ctx context.Context, id ulid.ULID, active bool) error

	// Delete removes an account. Sessions cascade at the storage layer.
	Delete(ctx context.Context, id ulid.ULID) error
}
