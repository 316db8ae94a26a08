// Package metrics defines and registers the custom Prometheus metrics shared
// by the gateway, auth, patient and analytics services. Every metric is
// registered with the default registry on import via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "patient_system"

// ── Gateway metrics ───────────────────────────────────────────────────────────

// GatewayAuthDecisionsTotal counts edge authentication decisions.
// Label:
//   - decision: "allow_listed", "forwarded", "missing_credentials",
//     "malformed_path", "rejected" or "verifier_unavailable"
var GatewayAuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_auth_decisions_total",
		Help:      "Total number of edge authentication decisions, by decision.",
	},
	[]string{"decision"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Label:
//   - outcome: "success", "rejected" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Patient metrics ───────────────────────────────────────────────────────────

// PatientsCreatedTotal counts committed patient records.
var PatientsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "patients_created_total",
		Help:      "Total number of patients persisted.",
	},
)

// BillingProvisionFailuresTotal counts committed patients whose billing
// account could not be created. Each increment is a record that needs
// reconciliation with billing.
var BillingProvisionFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_provision_failures_total",
		Help:      "Total number of persisted patients without a billing account.",
	},
)

// EventPublishFailuresTotal counts committed patients whose creation event was
// not handed to the event stream.
var EventPublishFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Total number of persisted patients whose creation event was not published.",
	},
)

// CreateStepDuration measures each step of the create flow.
// Label:
//   - step: "check_email", "persist", "billing" or "publish"
var CreateStepDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "patient_create_step_duration_seconds",
		Help:      "Duration of each patient creation step.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"step"},
)

// ── Analytics metrics ─────────────────────────────────────────────────────────

// AnalyticsEventsProcessedTotal counts stream events handled by analytics.
// Label:
//   - event_type: e.g. "PATIENT_CREATED"
var AnalyticsEventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analytics_events_processed_total",
		Help:      "Total number of patient events processed by analytics.",
	},
	[]string{"event_type"},
)

// AnalyticsEventsErrorsTotal counts stream entries analytics could not handle.
// Label:
//   - reason: "decode", "invalid", "process", "claim" or "ack"
var AnalyticsEventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analytics_events_errors_total",
		Help:      "Total number of patient events that failed in analytics.",
	},
	[]string{"reason"},
)

// AnalyticsEventsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event, processed)
var AnalyticsEventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analytics_events_dedup_total",
		Help:      "Total number of deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// AnalyticsQueueDepth tracks events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var AnalyticsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "analytics_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
