// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// NotificationsDispatched counts notifications handed to a transport or queue.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_notifications_dispatched_total",
		Help: "Notifications accepted for delivery by kind and dispatch mode",
	}, []string{"kind", "mode"})

	// NotificationsFailed counts notifications that could not be queued or delivered.
	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_notifications_failed_total",
		Help: "Notification failures by kind and stage (enqueue, dequeue, send)",
	}, []string{"kind", "stage"})

	// NotificationsDelivered counts notifications the mail transport accepted.
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_notifications_delivered_total",
		Help: "Notifications delivered by kind and transport",
	}, []string{"kind", "transport"})

	// NotificationQueueDepth is the last observed length of the outbound mail queue.
	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miniblog_notification_queue_depth",
		Help: "Number of notifications waiting in the outbound queue",
	})

	// PostsModerated counts moderation decisions.
	PostsModerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_posts_moderated_total",
		Help: "Moderation decisions by outcome",
	}, []string{"decision"})

	// AuthEvents counts registration, confirmation and login outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_auth_events_total",
		Help: "Authentication events by type",
	}, []string{"event"})

	// WebSocketConnectionsTotal is the gauge of active realtime connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miniblog_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts events dropped because a client could not keep up.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
