// Package metrics exposes Prometheus counters and gauges for the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TradesSubmitted counts manual trades sent to the bot server, by side.
var TradesSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "trade",
		Name:      "submitted_total",
		Help:      "Total number of manual trades submitted to the bot server",
	},
	[]string{"side"},
)

// TradesConfirmed counts trades the server reported as executed.
var TradesConfirmed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "trade",
		Name:      "confirmed_total",
		Help:      "Total number of manual trades confirmed by the bot server",
	},
	[]string{"side"},
)

// TradesRejected counts validation rejections, by reason.
var TradesRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "trade",
		Name:      "rejected_total",
		Help:      "Total number of trade intents rejected by validation",
	},
	[]string{"reason"},
)

// TradesFailed counts submissions that errored at the server.
var TradesFailed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "trade",
		Name:      "failed_total",
		Help:      "Total number of trade submissions that failed",
	},
)

// FeedReconnects counts realtime feed reconnect attempts.
var FeedReconnects = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "feed",
		Name:      "reconnects_total",
		Help:      "Total number of websocket reconnect attempts",
	},
)

// FeedMessages counts realtime messages received, by type.
var FeedMessages = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "feed",
		Name:      "messages_total",
		Help:      "Total number of websocket messages received",
	},
	[]string{"type"},
)

// FeedConnected is 1 while the websocket feed is open.
var FeedConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradeboard",
		Subsystem: "feed",
		Name:      "connected",
		Help:      "Whether the websocket feed is currently connected",
	},
)

// PollErrors counts failed snapshot polls, by endpoint.
var PollErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "api",
		Name:      "poll_errors_total",
		Help:      "Total number of failed snapshot poll requests",
	},
	[]string{"endpoint"},
)

// UnrealizedPnL tracks the last computed unrealized profit in quote units.
var UnrealizedPnL = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradeboard",
		Subsystem: "pnl",
		Name:      "unrealized_quote",
		Help:      "Unrealized profit and loss of the open position in quote currency",
	},
)
