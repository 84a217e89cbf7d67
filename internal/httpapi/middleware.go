// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/idkit/identityd/internal/logging"
)

const headerRequestID = "X-Request-ID"

var tracer = otel.Tracer("github.com/idkit/identityd/internal/httpapi")

// requestContext assigns a request ID, opens a server span and writes the
// access log line. Route patterns are logged instead of raw paths so
// session tokens never reach the logs.
func (s *Server) requestContext(c *fiber.Ctx) error {
	start := time.Now()

	id := c.Get(headerRequestID)
	if id == "" {
		id = ulid.Make().String()
	}
	c.Set(headerRequestID, id)

	ctx := logging.WithRequestID(c.UserContext(), id)
	ctx, span := tracer.Start(ctx, c.Method(), trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.SetUserContext(ctx)

	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}

	route := c.Route().Path
	result, _ := c.Locals(resultKey{}).(string)
	span.SetName(c.Method() + " " + route)
	span.SetAttributes(
		attribute.String("http.route", route),
		attribute.String("identityd.result", result),
	)

	if s.metrics != nil && result != "" {
		s.metrics.Requests.WithLabelValues(route, result).Inc()
	}

	s.logger.InfoContext(ctx, "request",
		"method", c.Method(),
		"route", route,
		"status", c.Response().StatusCode(),
		"result", result,
		"latency", time.Since(start))
	return nil
}

func (s *Server) count(vec *prometheus.CounterVec, status string) {
	if vec != nil {
		vec.WithLabelValues(status).Inc()
	}
}

func (s *Server) registrations() *prometheus.CounterVec {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Registrations
}

func (s *Server) logins() *prometheus.CounterVec {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Logins
}

func (s *Server) lookups() *prometheus.CounterVec {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.ProfileLookups
}
