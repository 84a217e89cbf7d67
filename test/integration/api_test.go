// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/idkit/identityd/internal/httpapi"
	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/identity/postgres"
	"github.com/idkit/identityd/internal/observability"
	"github.com/idkit/identityd/internal/seed"
	"github.com/idkit/identityd/internal/store"
)

// testEnv holds the resources shared by the end-to-end specs.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	svc       *identity.Service
	api       *httpapi.Server
	obs       *observability.Server
}

// setupTestEnv starts PostgreSQL, applies migrations and builds the full
// service stack with argon2id password storage.
func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	env := &testEnv{ctx: ctx, cancel: cancel}

	var err error
	env.container, err = tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("identityd_e2e"),
		tcpostgres.WithUsername("identityd"),
		tcpostgres.WithPassword("identityd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return env, err
	}

	url, err := env.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return env, err
	}

	migrator, err := store.NewMigrator(url)
	if err != nil {
		return env, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return env, err
	}
	if err := migrator.Close(); err != nil {
		return env, err
	}

	env.pool, err = store.Connect(ctx, url, 10*time.Second)
	if err != nil {
		return env, err
	}

	verifier, err := identity.NewPasswordVerifier(identity.SchemeArgon2id)
	if err != nil {
		return env, err
	}
	env.svc, err = identity.NewService(postgres.NewStore(env.pool), verifier)
	if err != nil {
		return env, err
	}

	env.obs = observability.NewServer("127.0.0.1:0", env.svc.Ping)
	observability.RegisterActiveSessions(env.obs.Registry(), env.svc.Sessions().Len)
	if _, err := env.obs.Start(); err != nil {
		return env, err
	}

	env.api, err = httpapi.New(env.svc, httpapi.Config{}, httpapi.WithMetrics(env.obs.Metrics()))
	return env, err
}

func (e *testEnv) cleanup() {
	if e.obs != nil {
		_ = e.obs.Stop(context.Background())
	}
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(context.Background())
	}
	e.cancel()
}

// call sends one request to the API and decodes the JSON body.
func (e *testEnv) call(method, target, body string) map[string]any {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.api.App().Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))

	var out map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return out
}

func (e *testEnv) login(username, password string) string {
	got := e.call(http.MethodPost, "/api/v1/user/session",
		`{"username":"`+username+`","password":"`+password+`"}`)
	token, _ := got["uuid"].(string)
	return token
}

var _ = Describe("identity API against PostgreSQL", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		if err != nil {
			if env != nil {
				env.cleanup()
			}
			Fail(err.Error())
		}
	})

	AfterAll(func() {
		if env != nil {
			env.cleanup()
		}
	})

	It("registers, logs in and serves the profile", func() {
		got := env.call(http.MethodPost, "/api/v1/user", `{"username":"alice","password":"pw1"}`)
		Expect(got).To(HaveKeyWithValue("message", "Success"))

		token := env.login("alice", "pw1")
		Expect(token).To(HaveLen(36))

		profile := env.call(http.MethodGet, "/api/v1/user/"+token, "")
		Expect(profile).To(HaveKeyWithValue("user_id", BeNumerically("==", 1)))
		Expect(profile).To(HaveKeyWithValue("gender", identity.DefaultGender))
	})

	It("stores an argon2id hash rather than the password", func() {
		var stored string
		err := env.pool.QueryRow(env.ctx, `SELECT password FROM users WHERE username = $1`, "alice").Scan(&stored)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(HavePrefix("$argon2id$"))
		Expect(stored).NotTo(ContainSubstring("pw1"))
	})

	It("rejects a wrong password without issuing a session", func() {
		before := env.svc.Sessions().Len()
		got := env.call(http.MethodPost, "/api/v1/user/session", `{"username":"alice","password":"nope"}`)
		Expect(got).To(HaveKeyWithValue("err", "AUTH_INVALID_CREDENTIALS"))
		Expect(env.svc.Sessions().Len()).To(Equal(before))
	})

	It("authenticates any of several accounts sharing a username", func() {
		env.call(http.MethodPost, "/api/v1/user", `{"username":"alice","password":"pw2"}`)

		first := env.call(http.MethodGet, "/api/v1/user/"+env.login("alice", "pw1"), "")
		second := env.call(http.MethodGet, "/api/v1/user/"+env.login("alice", "pw2"), "")
		Expect(first["user_id"]).To(BeNumerically("==", 1))
		Expect(second["user_id"]).To(BeNumerically("==", 2))
	})

	It("reports unknown tokens as errors", func() {
		got := env.call(http.MethodGet, "/api/v1/user/not-a-session", "")
		Expect(got).To(HaveKeyWithValue("message", "Error"))
		Expect(got).To(HaveKeyWithValue("err", "SESSION_NOT_FOUND"))
	})

	It("applies a seed file once", func() {
		path := filepath.Join(GinkgoT().TempDir(), "seed.yaml")
		Expect(os.WriteFile(path, []byte("version: \"1.0.0\"\nusers:\n  - username: carol\n    password: pw3\n"), 0o600)).To(Succeed())

		f, err := seed.Load(path)
		Expect(err).NotTo(HaveOccurred())

		finder := postgres.NewStore(env.pool)
		res, err := seed.Apply(env.ctx, env.svc, finder, f, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Created).To(Equal(1))

		res, err = seed.Apply(env.ctx, env.svc, finder, f, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Skipped).To(Equal(1))

		Expect(env.login("carol", "pw3")).NotTo(BeEmpty())
	})

	It("exposes readiness and session metrics", func() {
		resp, err := http.Get("http://" + env.obs.Addr() + "/healthz/readiness") //nolint:noctx // test
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		families, err := env.obs.Registry().Gather()
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		Expect(names).To(ContainElements("identityd_active_sessions", "identityd_logins_total"))
	})

	It("fails readiness once the database is gone", func() {
		env.pool.Close()
		env.pool = nil

		resp, err := http.Get("http://" + env.obs.Addr() + "/healthz/readiness") //nolint:noctx // test
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
	})
})
