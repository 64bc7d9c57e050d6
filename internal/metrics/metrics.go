// Package metrics defines and registers the storefront's custom Prometheus
// metrics. It is the single source of truth for metric names, labels, and help
// strings.
//
// Metrics are registered with the default registry at package init through
// promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// --- Client core metrics ---

// RoleVerdictsTotal counts authorization verdicts.
// Labels:
//   - source: "anonymous", "cache", "backend" or "error"
//   - admin: "true" or "false"
var RoleVerdictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_verdicts_total",
		Help:      "Total number of admin verdicts, by source and outcome.",
	},
	[]string{"source", "admin"},
)

// IdentityCacheWritesTotal counts writes to the identity cache.
// Labels:
//   - op: "set", "merge", "refresh" or "clear"
//   - result: "ok" or "error"
var IdentityCacheWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_cache_writes_total",
		Help:      "Total number of identity cache writes, by operation and result.",
	},
	[]string{"op", "result"},
)

// BackendRequestDuration measures backend round trips from the client side.
// Labels:
//   - operation: logical backend call (e.g. "get_cart", "place_order")
//   - outcome: "ok", "not_found", "validation", "unauthorized" or "transport"
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend requests issued by the client.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)

// CartMutationsTotal counts cart mutations issued by the client.
// Label:
//   - op: "add", "merge" or "remove"
var CartMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Total number of cart mutations, by operation.",
	},
	[]string{"op"},
)

// CartTotalCorrectionsTotal counts fetched carts whose reported total
// disagreed with the recomputed one.
var CartTotalCorrectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_total_corrections_total",
		Help:      "Total number of fetched carts whose reported total was recomputed.",
	},
)

// OrdersPlacedTotal counts orders accepted by the backend.
var OrdersPlacedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	},
)

// GateDecisionsTotal counts catalog mutation gate decisions.
// Labels:
//   - action: "add", "update" or "delete"
//   - result: "allowed" or "denied"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of catalog mutation gate decisions.",
	},
	[]string{"action", "result"},
)

// --- Dispatcher metrics ---

// TasksQueueDepth tracks the number of tasks waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var TasksQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks_queue_depth",
		Help:      "Current number of tasks pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// TasksCompletedTotal counts finished tasks.
// Label:
//   - result: "applied", "stale" or "error"
var TasksCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Total number of dispatched tasks, by how their result was handled.",
	},
	[]string{"result"},
)

// TaskDuration measures how long a task runs before its result is handled.
var TaskDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Duration of dispatched tasks from dequeue to completion.",
		Buckets:   prometheus.DefBuckets,
	},
)

// --- Reference backend metrics ---

// ProductsMutatedTotal counts catalog writes accepted by the backend.
// Label:
//   - action: "add", "update", "delete" or "review"
var ProductsMutatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_mutated_total",
		Help:      "Total number of catalog mutations persisted by the backend.",
	},
	[]string{"action"},
)

// AdminRejectionsTotal counts catalog mutations refused by the backend.
// Label:
//   - reason: "missing_user", "not_admin" or "token_mismatch"
var AdminRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_rejections_total",
		Help:      "Total number of catalog mutations rejected by admin enforcement.",
	},
	[]string{"reason"},
)

// OrdersCreatedTotal counts orders persisted by the backend.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders persisted by the backend.",
	},
)
