// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package httpapi exposes the identity service over HTTP.
//
// Every API response uses status 200. Failures are reported in the body as
// {"message": "Error", "err": "<CODE>"}, so clients must inspect the body.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/oops"

	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/observability"
)

// Service is the identity behaviour the API needs.
type Service interface {
	Register(ctx context.Context, username, password string) (*identity.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	LookupProfile(ctx context.Context, token string) (*identity.UserProfile, error)
}

// Config tunes the HTTP server.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the /api/v1 routes.
type Server struct {
	app     *fiber.App
	svc     Service
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request outcomes in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server for svc with its routes registered.
func New(svc Service, cfg Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, oops.Errorf("identity service is required")
	}

	s := &Server{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "identityd",
		DisableStartupMessage: true,
		Immutable:             true, // parsed credentials outlive the request
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.requestContext)
	s.app.Use(recover.New())

	api := s.app.Group("/api/v1")
	api.Post("/user/session", s.createSession)
	api.Post("/user", s.createUser)
	api.Get("/user/:token", s.getProfile)

	return s, nil
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.app.Listener(ln); err != nil {
		return oops.Code("HTTP_SERVE_FAILED").With("addr", ln.Addr().String()).Wrap(err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return oops.With("operation", "shutdown_http_server").Wrap(err)
	}
	return nil
}

// handleError answers errors that escape the API handlers: unknown routes,
// disallowed methods and recovered panics.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := codeInternal

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		code = statusCode(fe.Code)
	} else {
		s.logger.ErrorContext(c.UserContext(), "unhandled request error", "error", err)
	}

	c.Locals(resultKey{}, code)
	return c.Status(status).JSON(errorBody(code))
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	case fiber.StatusRequestTimeout:
		return "REQUEST_TIMEOUT"
	default:
		return codeInternal
	}
}
