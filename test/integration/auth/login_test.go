// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

//go:build integration

package auth_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/pkg/errutil"
)

const integrationPassword = "integration password"

func createAccount(ctx context.Context, email string) *auth.Account {
	GinkgoHelper()
	summary, err := env.Service.CreateAccount(
		ctx, email, integrationPassword, "Integration",
		auth.RoleAdmin, auth.Capabilities{ManageUsers: true}, nil,
	)
	Expect(err).NotTo(HaveOccurred())

	account, err := env.Accounts.GetByID(ctx, summary.ID)
	Expect(err).NotTo(HaveOccurred())
	return account
}

var _ = Describe("Login", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAccounts(ctx, env.pool)
	})

	It("issues a token backed by a session row", func() {
		account := createAccount(ctx, "login@example.com")

		token, summary, err := env.Service.Login(ctx, "login@example.com", integrationPassword, "203.0.113.7", "ginkgo")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).NotTo(BeEmpty())
		Expect(summary.ID).To(Equal(account.ID))

		session, err := env.Sessions.GetByTokenHash(ctx, auth.HashToken(token))
		Expect(err).NotTo(HaveOccurred())
		Expect(session.AccountID).To(Equal(account.ID))
		Expect(session.IPAddress).To(Equal("203.0.113.7"))
	})

	It("rejects a wrong password and counts the failure", func() {
		account := createAccount(ctx, "wrong@example.com")

		_, _, err := env.Service.Login(ctx, "wrong@example.com", "not the password", "", "")
		Expect(err).To(HaveOccurred())
		Expect(errutil.HasCode(err, auth.CodeInvalidCredentials)).To(BeTrue())

		stored, err := env.Accounts.GetByID(ctx, account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.FailedAttempts).To(Equal(1))
		Expect(stored.LockedUntil).To(BeNil())
	})

	It("matches emails case-insensitively", func() {
		createAccount(ctx, "case@example.com")

		_, _, err := env.Service.Login(ctx, "CASE@Example.COM", integrationPassword, "", "")
		Expect(err).NotTo(HaveOccurred())
	})

	It("refuses duplicate emails regardless of case", func() {
		createAccount(ctx, "dup@example.com")

		_, err := env.Service.CreateAccount(
			ctx, "DUP@example.com", integrationPassword, "Dup",
			auth.RoleViewer, auth.Capabilities{}, nil,
		)
		Expect(err).To(HaveOccurred())
		Expect(errutil.HasCode(err, auth.CodeEmailExists)).To(BeTrue())
	})

	Describe("lockout", func() {
		It("locks the account at the failure threshold", func() {
			account := createAccount(ctx, "lock@example.com")

			for i := 0; i < auth.DefaultMaxFailedAttempts; i++ {
				_, _, err := env.Service.Login(ctx, "lock@example.com", "bad", "", "")
				Expect(err).To(HaveOccurred())
			}

			stored, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedAttempts).To(Equal(auth.DefaultMaxFailedAttempts))
			Expect(stored.LockedUntil).NotTo(BeNil())

			_, _, err = env.Service.Login(ctx, "lock@example.com", integrationPassword, "", "")
			Expect(err).To(HaveOccurred())
			Expect(errutil.HasCode(err, auth.CodeAccountLocked)).To(BeTrue())
		})

		It("loses no increment under concurrent failures", func() {
			account := createAccount(ctx, "race@example.com")

			const attempts = 20
			var wg sync.WaitGroup
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, _, _ = env.Service.Login(ctx, "race@example.com", "bad", "", "")
				}()
			}
			wg.Wait()

			stored, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedAttempts).To(Equal(attempts), "row-level serialization must count every failure")
			Expect(stored.LockedUntil).NotTo(BeNil())
		})

		It("resets the counter after a successful login", func() {
			account := createAccount(ctx, "reset@example.com")

			for i := 0; i < auth.DefaultMaxFailedAttempts-1; i++ {
				_, _, _ = env.Service.Login(ctx, "reset@example.com", "bad", "", "")
			}

			_, _, err := env.Service.Login(ctx, "reset@example.com", integrationPassword, "", "")
			Expect(err).NotTo(HaveOccurred())

			stored, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedAttempts).To(BeZero())
			Expect(stored.LockedUntil).To(BeNil())
			Expect(stored.LastLogin).NotTo(BeNil())
		})
	})
})
