// Package metrics defines all custom Prometheus metrics for the YaMDb API.
// It is the single source of truth for metric names, labels, and help
// strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yamdb"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// ConfirmationCodesIssuedTotal counts confirmation codes sent out by signup.
var ConfirmationCodesIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmation_codes_issued_total",
		Help:      "Total number of confirmation codes issued.",
	},
)

// TokensIssuedTotal counts successful code-for-token exchanges.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of access tokens issued.",
	},
)

// AuthRejectionsTotal counts rejected authentication attempts.
// Label:
//   - reason: "invalid_code", "invalid_token", "rate_limited"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of rejected authentication attempts, by reason.",
	},
	[]string{"reason"},
)

// ── Review metrics ────────────────────────────────────────────────────────────

// ReviewsCreatedTotal counts stored reviews.
var ReviewsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_created_total",
		Help:      "Total number of reviews created.",
	},
)

// ReviewConflictsTotal counts second reviews rejected by the uniqueness rule.
var ReviewConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_conflicts_total",
		Help:      "Total number of review attempts rejected as duplicates.",
	},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailQueueDepth tracks the number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailSentTotal counts messages accepted by the mail transport.
var MailSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sent_total",
		Help:      "Total number of messages handed to the mail transport.",
	},
)

// MailErrorsTotal counts messages that could not be delivered.
// Label:
//   - reason: "queue_full", "transport" or "shutdown"
var MailErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_errors_total",
		Help:      "Total number of messages dropped or failed, by reason.",
	},
	[]string{"reason"},
)
