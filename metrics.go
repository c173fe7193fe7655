package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the blog's Prometheus counters.
type Metrics struct {
	Registrations *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	PostChanges   *prometheus.CounterVec
	Responses     *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleblog_registrations_total",
				Help: "Registration attempts by result",
			},
			[]string{"result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleblog_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		PostChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleblog_post_changes_total",
				Help: "Post mutations by operation and result",
			},
			[]string{"operation", "result"},
		),
		Responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleblog_http_responses_total",
				Help: "HTTP responses by method and status code",
			},
			[]string{"method", "code"},
		),
	}

	reg.MustRegister(m.Registrations, m.Logins, m.PostChanges, m.Responses)
	return m
}
