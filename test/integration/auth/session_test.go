// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

//go:build integration

package auth_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/pkg/errutil"
)

var _ = Describe("Sessions", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAccounts(ctx, env.pool)
	})

	It("verifies a live token end to end", func() {
		account := createAccount(ctx, "verify@example.com")

		token, _, err := env.Service.Login(ctx, "verify@example.com", integrationPassword, "", "")
		Expect(err).NotTo(HaveOccurred())

		claims, err := env.Service.VerifySession(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.AccountID).To(Equal(account.ID.String()))
		Expect(claims.Capabilities.ManageUsers).To(BeTrue())
	})

	It("revokes the session on logout", func() {
		createAccount(ctx, "logout@example.com")

		token, _, err := env.Service.Login(ctx, "logout@example.com", integrationPassword, "", "")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Service.Logout(ctx, token)).To(Succeed())
		Expect(env.Service.Logout(ctx, token)).To(Succeed(), "logout is idempotent")

		_, err = env.Service.VerifySession(ctx, token)
		Expect(err).To(HaveOccurred())
		Expect(errutil.HasCode(err, auth.CodeSessionRevoked)).To(BeTrue())
	})

	It("rejects sessions of a deactivated account", func() {
		account := createAccount(ctx, "inactive@example.com")

		token, _, err := env.Service.Login(ctx, "inactive@example.com", integrationPassword, "", "")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Accounts.SetActive(ctx, account.ID, false)).To(Succeed())

		_, err = env.Service.VerifySession(ctx, token)
		Expect(err).To(HaveOccurred())
		Expect(errutil.HasCode(err, auth.CodeAccountInactive)).To(BeTrue())
	})

	It("cascades session deletion when the account is removed", func() {
		account := createAccount(ctx, "cascade@example.com")

		token, _, err := env.Service.Login(ctx, "cascade@example.com", integrationPassword, "", "")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Accounts.Delete(ctx, account.ID)).To(Succeed())

		_, err = env.Sessions.GetByTokenHash(ctx, auth.HashToken(token))
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("reaps only expired rows", func() {
		account := createAccount(ctx, "reap@example.com")

		token, _, err := env.Service.Login(ctx, "reap@example.com", integrationPassword, "", "")
		Expect(err).NotTo(HaveOccurred())

		stale, err := auth.NewSession(account.ID, auth.HashToken("stale"), "", "", time.Now().Add(time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Sessions.Create(ctx, stale)).To(Succeed())
		_, err = env.pool.Exec(ctx,
			"UPDATE sessions SET expires_at = NOW() - INTERVAL '1 hour' WHERE token_hash = $1",
			stale.TokenHash)
		Expect(err).NotTo(HaveOccurred())

		count, err := env.Service.ReapExpiredSessions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))

		_, err = env.Service.VerifySession(ctx, token)
		Expect(err).NotTo(HaveOccurred(), "live session must survive the sweep")
	})

	It("lists sessions per account newest first", func() {
		account := createAccount(ctx, "list@example.com")

		_, _, err := env.Service.Login(ctx, "list@example.com", integrationPassword, "", "agent-1")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = env.Service.Login(ctx, "list@example.com", integrationPassword, "", "agent-2")
		Expect(err).NotTo(HaveOccurred())

		sessions, err := env.Sessions.GetByAccount(ctx, account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions).To(HaveLen(2))
	})
})
