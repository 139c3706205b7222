package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wingman"

// Pipeline metrics
var (
	PassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "passes_total",
			Help:      "Pipeline passes by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "pass_duration_seconds",
			Help:      "Duration of pipeline passes in seconds",
			Buckets:   []float64{1, 5, 30, 60, 300, 900, 1800},
		},
	)

	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "conversations_total",
			Help:      "Conversations seen by a pass, by decision",
		},
		[]string{"decision"},
	)

	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "sends_total",
			Help:      "Outgoing messages by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// Generation metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "generations_total",
			Help:      "Reply generations by final outcome",
		},
		[]string{"outcome"},
	)

	BackendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "backend_calls_total",
			Help:      "Completion backend calls by result",
		},
		[]string{"result"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "tokens_total",
			Help:      "Tokens consumed by model",
		},
		[]string{"model"},
	)
)

// Dashboard metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "requests_total",
			Help:      "Dashboard API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)
