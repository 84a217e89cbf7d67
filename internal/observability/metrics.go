// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels used by the identity counters.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// Metrics holds the identityd application metrics.
type Metrics struct {
	Registrations  *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	ProfileLookups *prometheus.CounterVec
	Requests       *prometheus.CounterVec
}

// NewMetrics creates the identityd metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identityd_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"status"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identityd_logins_total",
				Help: "Login attempts by outcome (failure = no credential match)",
			},
			[]string{"status"},
		),
		ProfileLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identityd_profile_lookups_total",
				Help: "Profile lookups by outcome",
			},
			[]string{"status"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identityd_http_requests_total",
				Help: "API requests by route and result code",
			},
			[]string{"route", "result"},
		),
	}

	reg.MustRegister(m.Registrations, m.Logins, m.ProfileLookups, m.Requests)
	return m
}

// RegisterActiveSessions exposes count as the identityd_active_sessions gauge.
func RegisterActiveSessions(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "identityd_active_sessions",
			Help: "Session tokens currently held in memory",
		},
		func() float64 { return float64(count()) },
	))
}
