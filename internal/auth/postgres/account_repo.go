// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/opsboard/opsboard/internal/auth"
)

// pool abstracts pgxpool query execution so repositories can be unit
// tested against pgxmock.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id, email, password_hash, name, role,
	       manage_users, manage_ai, view_analytics, manage_system,
	       is_active, failed_attempts, locked_until, last_login,
	       created_at, created_by`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, email, password_hash, name, role,
			manage_users, manage_ai, view_analytics, manage_system,
			is_active, failed_attempts, locked_until, last_login,
			created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		account.Name,
		string(account.Role),
		account.Capabilities.ManageUsers,
		account.Capabilities.ManageAI,
		account.Capabilities.ViewAnalytics,
		account.Capabilities.ManageSystem,
		account.IsActive,
		account.FailedAttempts,
		account.LockedUntil,
		account.LastLogin,
		account.CreatedAt,
		ulidToStringPtr(account.CreatedBy),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_EMAIL_TAKEN").
				With("email", account.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// List retrieves all accounts, newest first.
func (r *AccountRepository) List(ctx context.Context) ([]*auth.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "list accounts").
			Wrap(err)
	}
	defer rows.Close()

	var accounts []*auth.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_SCAN_FAILED").
				With("operation", "scan account row").
				Wrap(err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_ROWS_ERROR").
			With("operation", "iterate account rows").
			Wrap(err)
	}

	return accounts, nil
}

// RecordFailure increments the failed-attempt counter and applies the
// lockout in one statement. The counter guard lives database-side so
// concurrent failures serialize on the row: no increment is lost and the
// attempt that reaches threshold always sets the lock.
func (r *AccountRepository) RecordFailure(ctx context.Context, id ulid.ULID, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	lockUntil := time.Now().Add(lockFor)

	var attempts int
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE accounts SET
			failed_attempts = failed_attempts + 1,
			locked_until = CASE
				WHEN failed_attempts + 1 >= $2 THEN $3
				ELSE locked_until
			END
		WHERE id = $1
		RETURNING failed_attempts, locked_until
	`, id.String(), threshold, lockUntil).Scan(&attempts, &lockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, nil, oops.Code("ACCOUNT_RECORD_FAILURE_FAILED").
			With("operation", "increment failed attempts").
			With("id", id.String()).
			Wrap(err)
	}
	return attempts, lockedUntil, nil
}

// RecordSuccess resets lockout state and stamps the last login.
func (r *AccountRepository) RecordSuccess(ctx context.Context, id ulid.ULID, lastLogin time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			failed_attempts = 0,
			locked_until = NULL,
			last_login = $2
		WHERE id = $1
	`, id.String(), lastLogin)
	if err != nil {
		return oops.Code("ACCOUNT_RECORD_SUCCESS_FAILED").
			With("operation", "reset lockout state").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePasswordHash replaces only the stored password hash.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2
		WHERE id = $1
	`, id.String(), passwordHash)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password hash").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetActive flips the active flag.
func (r *AccountRepository) SetActive(ctx context.Context, id ulid.ULID, active bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET is_active = $2
		WHERE id = $1
	`, id.String(), active)
	if err != nil {
		return oops.Code("ACCOUNT_SET_ACTIVE_FAILED").
			With("operation", "set active flag").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes an account. Session rows cascade via the foreign key.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM accounts WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr          string
		email          string
		passwordHash   string
		name           string
		role           string
		manageUsers    bool
		manageAI       bool
		viewAnalytics  bool
		manageSystem   bool
		isActive       bool
		failedAttempts int
		lockedUntil    *time.Time
		lastLogin      *time.Time
		createdAt      time.Time
		createdByStr   *string
	)

	err := row.Scan(
		&idStr,
		&email,
		&passwordHash,
		&name,
		&role,
		&manageUsers,
		&manageAI,
		&viewAnalytics,
		&manageSystem,
		&isActive,
		&failedAttempts,
		&lockedUntil,
		&lastLogin,
		&createdAt,
		&createdByStr,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	createdBy, err := parseOptionalULID(createdByStr, "created_by")
	if err != nil {
		return nil, err
	}

	return &auth.Account{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         auth.Role(role),
		Capabilities: auth.Capabilities{
			ManageUsers:   manageUsers,
			ManageAI:      manageAI,
			ViewAnalytics: viewAnalytics,
			ManageSystem:  manageSystem,
		},
		IsActive:       isActive,
		FailedAttempts: failedAttempts,
		LockedUntil:    lockedUntil,
		LastLogin:      lastLogin,
		CreatedAt:      createdAt,
		CreatedBy:      createdBy,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
