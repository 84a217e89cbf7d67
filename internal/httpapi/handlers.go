// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/observability"
	"github.com/idkit/identityd/pkg/errutil"
)

const (
	messageSuccess = "Success"
	messageError   = "Error"

	codeInvalidRequest = "INVALID_REQUEST"
	codeInternal       = "INTERNAL"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
	Err     string `json:"err,omitempty"`
}

type sessionResponse struct {
	UUID string `json:"uuid"`
}

func errorBody(code string) messageResponse {
	return messageResponse{Message: messageError, Err: code}
}

// resultKey holds the outcome code reported to the request metrics.
type resultKey struct{}

// POST /api/v1/user
func (s *Server) createUser(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, codeInvalidRequest, err)
	}

	if _, err := s.svc.Register(c.UserContext(), req.Username, req.Password); err != nil {
		s.count(s.registrations(), observability.StatusError)
		return s.fail(c, errutil.CodeOr(err, codeInternal), err)
	}

	s.count(s.registrations(), observability.StatusSuccess)
	return s.ok(c, messageResponse{Message: messageSuccess})
}

// POST /api/v1/user/session
func (s *Server) createSession(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, codeInvalidRequest, err)
	}

	token, err := s.svc.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		code := errutil.CodeOr(err, codeInternal)
		if code == identity.CodeInvalidCredentials {
			s.count(s.logins(), observability.StatusFailure)
		} else {
			s.count(s.logins(), observability.StatusError)
		}
		return s.fail(c, code, err)
	}

	s.count(s.logins(), observability.StatusSuccess)
	return s.ok(c, sessionResponse{UUID: token})
}

// GET /api/v1/user/:token
func (s *Server) getProfile(c *fiber.Ctx) error {
	profile, err := s.svc.LookupProfile(c.UserContext(), c.Params("token"))
	if err != nil {
		code := errutil.CodeOr(err, codeInternal)
		switch code {
		case identity.CodeSessionNotFound, identity.CodeProfileNotFound:
			s.count(s.lookups(), observability.StatusFailure)
		default:
			s.count(s.lookups(), observability.StatusError)
		}
		return s.fail(c, code, err)
	}

	s.count(s.lookups(), observability.StatusSuccess)
	return s.ok(c, profile)
}

func (s *Server) ok(c *fiber.Ctx, body any) error {
	c.Locals(resultKey{}, "OK")
	return c.Status(fiber.StatusOK).JSON(body)
}

// fail writes the uniform error body. The status stays 200.
func (s *Server) fail(c *fiber.Ctx, code string, err error) error {
	c.Locals(resultKey{}, code)
	errutil.LogWarn(c.UserContext(), s.logger, "request failed", err)
	return c.Status(fiber.StatusOK).JSON(errorBody(code))
}
