// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/identity/postgres"
	"github.com/idkit/identityd/pkg/errutil"
)

var _ = Describe("Store", func() {
	var (
		ctx context.Context
		s   *postgres.Store
		svc *identity.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncate(ctx)
		s = postgres.NewStore(pool)

		var err error
		svc, err = identity.NewService(s, identity.PlaintextVerifier{})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Register", func() {
		It("writes the user and its default profile", func() {
			user, err := svc.Register(ctx, "alice", "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(1)))

			stored, err := s.GetUser(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Password).To(Equal("p1"))
			Expect(stored.Permission).To(Equal(identity.DefaultPermission))
			Expect(stored.AuthMethod).To(Equal(identity.AuthMethodPassword))

			profile, err := s.GetProfile(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Gender).To(Equal(identity.DefaultGender))
			Expect(profile.UserID).To(Equal(user.ID))
			Expect(profile.Birthday).To(BeTemporally("~", time.Now(), time.Minute))
		})

		It("accepts duplicate usernames", func() {
			first, err := svc.Register(ctx, "dup", "a")
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Register(ctx, "dup", "b")
			Expect(err).NotTo(HaveOccurred())

			users, err := s.FindByUsername(ctx, "dup")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(users[0].ID).To(Equal(first.ID))
			Expect(users[1].ID).To(Equal(second.ID))
		})

		It("leaves no user behind when the profile insert fails", func() {
			user := identity.NewUser("orphan", "pw")
			profile := identity.NewProfile(time.Now())
			profile.Gender = string([]byte{0})

			err := s.Register(ctx, user, profile)
			Expect(err).To(HaveOccurred())

			users, err := s.FindByUsername(ctx, "orphan")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())
		})

		It("assigns distinct ids under concurrent registration", func() {
			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := svc.Register(ctx, "crowd", "pw")
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			users, err := s.FindByUsername(ctx, "crowd")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(10))
			for _, u := range users {
				_, err := s.GetProfile(ctx, u.ID)
				Expect(err).NotTo(HaveOccurred())
			}
		})
	})

	Describe("FindByUsername", func() {
		It("matches case-sensitively", func() {
			_, err := svc.Register(ctx, "Alice", "p1")
			Expect(err).NotTo(HaveOccurred())

			users, err := s.FindByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())
		})
	})

	Describe("lookups", func() {
		It("reports missing rows as not found", func() {
			_, err := s.GetUser(ctx, 42)
			Expect(errutil.Code(err)).To(Equal(identity.CodeUserNotFound))

			_, err = s.GetProfile(ctx, 42)
			Expect(errutil.Code(err)).To(Equal(identity.CodeProfileNotFound))
		})
	})

	Describe("end to end", func() {
		It("registers, logs in and looks up the profile", func() {
			_, err := svc.Register(ctx, "alice", "p1")
			Expect(err).NotTo(HaveOccurred())

			token, err := svc.Login(ctx, "alice", "p1")
			Expect(err).NotTo(HaveOccurred())

			profile, err := svc.LookupProfile(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.ID).To(Equal(int64(1)))
			Expect(profile.UserID).To(Equal(int64(1)))

			_, err = svc.Login(ctx, "alice", "wrong")
			Expect(errutil.Code(err)).To(Equal(identity.CodeInvalidCredentials))
		})
	})

	It("pings", func() {
		Expect(s.Ping(ctx)).To(Succeed())
	})
})
