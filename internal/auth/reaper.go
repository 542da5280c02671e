// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/opsboard/opsboard/pkg/errutil"
)

// DefaultReapInterval is how often the reaper sweeps expired sessions.
const DefaultReapInterval = 15 * time.Minute

// Reaper periodically deletes expired sessions. It is the only background
// work in the core; every other operation runs on a caller's goroutine.
type Reaper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewReaper creates a Reaper. A non-positive interval falls back to
// DefaultReapInterval.
func NewReaper(service *Service, interval time.Duration, logger *slog.Logger) (*Reaper, error) {
	if service == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{service: service, interval: interval, logger: logger}, nil
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
// Sweep failures are logged and do not stop the loop.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err() //nolint:wrapcheck // cancellation passes through unchanged
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	if _, err := r.service.ReapExpiredSessions(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		errutil.LogError(r.logger, "session sweep failed", err)
	}
}
