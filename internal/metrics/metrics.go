// Package metrics holds the Prometheus collectors of LogiTrack.
// They are registered in the default registry and served on /metrics by track-api.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "logitrack"

// StoreRequestsTotal counts calls to the remote table API.
// Labels:
//   - table: "orders" or "notifications"
//   - method: HTTP method
//   - result: "ok", "denied", "error", "skipped"
var StoreRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_requests_total",
		Help:      "Total number of remote store requests, by table, method and result.",
	},
	[]string{"table", "method", "result"},
)

// SnapshotFallbacksTotal counts order fetches answered from the local snapshot.
// Label:
//   - reason: "not_ready" or "remote_error"
var SnapshotFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_fallbacks_total",
		Help:      "Total number of order fetches served from the local snapshot.",
	},
	[]string{"reason"},
)

// LookupsTotal counts shipment code lookups.
// Label:
//   - result: "found", "not_found", "connection_failed", "empty"
var LookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Total number of shipment code lookups, by result.",
	},
	[]string{"result"},
)

// ChangesPublishedTotal counts data-changed signals.
// Label:
//   - origin: "local", "kafka" (sent to other instances) or "remote" (received from them)
var ChangesPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "changes_published_total",
		Help:      "Total number of data-changed signals delivered to the local hub.",
	},
	[]string{"origin"},
)

// EmulatorRequestsTotal counts requests served by the store emulator.
// Labels:
//   - table: requested table
//   - method: HTTP method
//   - code: response status code
var EmulatorRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emulator_requests_total",
		Help:      "Total number of store emulator requests, by table, method and status code.",
	},
	[]string{"table", "method", "code"},
)
