// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/observability"
	"github.com/opsboard/opsboard/pkg/errutil"
)

// NewReapCmd creates the reap subcommand, the long-running session sweeper.
func NewReapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Run the expired-session reaper daemon",
		Long: `Continuously delete expired session rows on a fixed interval and
serve metrics and health probes until interrupted.`,
		RunE: runReap,
	}
}

func runReap(cmd *cobra.Command, _ []string) error {
	deps, err := buildDeps(cmd)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs := observability.NewServer(deps.cfg.MetricsAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		return deps.pool.Ping(pingCtx) == nil
	})
	if err := obs.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			errutil.LogError(slog.Default(), "observability shutdown failed", err)
		}
	}()

	reaper, err := auth.NewReaper(deps.service, deps.cfg.ReapInterval, slog.Default())
	if err != nil {
		return err
	}

	go exportSessionGauge(ctx, deps, obs, deps.cfg.ReapInterval)

	slog.Info("reaper started", "interval", deps.cfg.ReapInterval.String())
	if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err //nolint:wrapcheck // reaper errors are already annotated
	}
	slog.Info("reaper stopped")
	return nil
}

// exportSessionGauge refreshes the active-session gauge on the same cadence
// as the reaper until the context ends.
func exportSessionGauge(ctx context.Context, deps *deps, obs *observability.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		count, err := deps.sessions.CountActive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				errutil.LogError(slog.Default(), "failed to count active sessions", err)
			}
		} else {
			obs.Metrics().SessionsActive.Set(float64(count))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
