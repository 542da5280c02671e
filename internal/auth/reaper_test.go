// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/opsboard/opsboard/internal/auth"
)

func TestNewReaper_Validation(t *testing.T) {
	svc := newTestService(t, newMemAccountRepo(), newMemSessionRepo(), &fakeHasher{})

	_, err := auth.NewReaper(nil, time.Minute, slog.Default())
	require.Error(t, err)

	_, err = auth.NewReaper(svc, time.Minute, nil)
	require.Error(t, err)

	t.Run("non-positive interval falls back to default", func(t *testing.T) {
		reaper, err := auth.NewReaper(svc, 0, slog.Default())
		require.NoError(t, err)
		require.NotNil(t, reaper)
	})
}

func TestReaper_Run_SweepsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	account := newTestAccount(t)
	sessions := newMemSessionRepo()
	svc := newTestService(t, newMemAccountRepo(account), sessions, &fakeHasher{accept: testPassword})

	// Plant an expired session for the first sweep to collect.
	stale, err := auth.NewSession(account.ID, auth.HashToken("stale"), "", "", time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, sessions.Create(context.Background(), stale))
	sessions.mu.Lock()
	sessions.sessions[auth.HashToken("stale")].ExpiresAt = time.Now().Add(-time.Hour)
	sessions.mu.Unlock()

	reaper, err := auth.NewReaper(svc, time.Hour, slog.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- reaper.Run(ctx)
	}()

	// The immediate first sweep removes the stale session.
	assert.Eventually(t, func() bool {
		return sessions.count() == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on cancellation")
	}
}
