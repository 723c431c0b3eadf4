package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// DatabaseQueryLatency records latency of tracked queries by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petconnect_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// OTPEvents counts OTP lifecycle events (issued, verified, rejected).
	OTPEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_otp_events_total",
		Help: "OTP codes issued, verified and rejected",
	}, []string{"event"})

	// CheckoutOutcomes counts checkout attempts by outcome.
	CheckoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_checkout_outcomes_total",
		Help: "Checkout attempts by outcome",
	}, []string{"outcome"})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_notifications_created_total",
		Help: "Notifications persisted by type",
	}, []string{"type"})

	// MailJobs counts mail deliveries by transport and result.
	MailJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_mail_jobs_total",
		Help: "Mail jobs by transport and result",
	}, []string{"transport", "result"})

	// AIRequests counts outbound generative model calls by operation and result.
	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_ai_requests_total",
		Help: "Outbound AI requests by operation and result",
	}, []string{"operation", "result"})

	// WebSocketConnectionsTotal is the gauge of active notification sockets.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "petconnect_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petconnect_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
