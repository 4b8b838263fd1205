// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voiceagent_calls_started_total",
		Help: "Calls that reached the active state.",
	})

	CallsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voiceagent_calls_closed_total",
		Help: "Calls that completed the full teardown path.",
	})

	LeadsQualified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceagent_leads_qualified_total",
		Help: "Lead records produced, by qualification status.",
	}, []string{"status"})

	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voiceagent_lead_persist_failures_total",
		Help: "Lead records that could not be written to the persistence sink.",
	})
)
