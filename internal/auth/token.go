// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Claims are the fields embedded in a signed token. They reflect the
// account's state at issuance time; later edits to the account do not
// change tokens already in the wild.
type Claims struct {
	jwt.RegisteredClaims
	AccountID    string       `json:"account_id"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
}

// ParsedAccountID returns the claim's account ID as a ULID.
func (c *Claims) ParsedAccountID() (ulid.ULID, error) {
	id, err := ulid.Parse(c.AccountID)
	if err != nil {
		return ulid.ULID{}, oops.Code(CodeTokenMalformed).
			With("account_id", c.AccountID).
			Wrap(err)
	}
	return id, nil
}

// TokenCodec signs and verifies the compact claims blob presented by
// clients as a bearer token.
type TokenCodec interface {
	// Sign mints a token for the account, valid for ttl.
	Sign(account *Account, ttl time.Duration) (string, error)

	// Verify checks the signature and embedded expiry and returns the
	// claims. Failures carry one of the TOKEN_* error codes.
	Verify(token string) (*Claims, error)
}

// JWTCodec implements TokenCodec with HMAC-SHA256 JWTs. The secret is
// process-wide; rotating it invalidates all previously issued tokens.
type JWTCodec struct {
	secret []byte
}

// NewJWTCodec creates a JWTCodec signing with the given secret.
func NewJWTCodec(secret []byte) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_EMPTY_SECRET").Errorf("signing secret cannot be empty")
	}
	return &JWTCodec{secret: secret}, nil
}

// Sign mints a signed token embedding the account's identity, role and
// capability flags.
func (c *JWTCodec) Sign(account *Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID:    account.ID.String(),
		Email:        account.Email,
		Role:         account.Role,
		Capabilities: account.Capabilities,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
func (c *JWTCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	switch {
	case err == nil:
		// fall through to the validity check
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, oops.Code(CodeTokenExpired).Wrap(err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, oops.Code(CodeTokenBadSignature).Wrap(err)
	default:
		return nil, oops.Code(CodeTokenMalformed).Wrap(err)
	}

	if !token.Valid {
		return nil, oops.Code(CodeTokenBadSignature).Errorf("token failed validation")
	}

	return claims, nil
}

// Compile-time interface check.
var _ TokenCodec = (*JWTCodec)(nil)
