// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/internal/auth"
	authpg "github.com/opsboard/opsboard/internal/auth/postgres"
	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/store"
)

// deps bundles the wired service dependencies for a subcommand run.
type deps struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	sessions *authpg.SessionRepository
	service  *auth.Service
}

// buildDeps loads configuration, connects to the database and assembles
// the auth service.
func buildDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireTokenSecret(); err != nil {
		return nil, err
	}

	pool, err := store.Open(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewJWTCodec([]byte(cfg.TokenSecret))
	if err != nil {
		pool.Close()
		return nil, err
	}

	sessions := authpg.NewSessionRepository(pool)
	service, err := auth.NewService(
		authpg.NewAccountRepository(pool),
		sessions,
		auth.NewArgon2idHasher(auth.HasherParams{}),
		codec,
		auth.LockoutPolicy{
			MaxFailedAttempts: cfg.Lockout.MaxFailedAttempts,
			LockDuration:      cfg.Lockout.LockDuration,
		},
	)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &deps{cfg: cfg, pool: pool, sessions: sessions, service: service}, nil
}

// Close releases the database pool.
func (d *deps) Close() {
	d.pool.Close()
}
