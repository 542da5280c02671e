// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

// Package auth provides the credential-authentication and session-lifecycle
// core of the Opsboard admin console.
//
// # Domain Types
//
// Domain types (Account, Session, Claims) should be created using their
// respective constructors:
//   - NewAccount - creates an Account with a normalized email and validated role
//   - NewSession - creates a Session with a validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Service
//
// Service orchestrates the domain operations: Login, VerifySession, Logout,
// CreateAccount, ListAccounts and ReapExpiredSessions. It is constructed
// with NewService, which validates its dependencies. Reaper drives
// ReapExpiredSessions on a fixed interval.
package auth
