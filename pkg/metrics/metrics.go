// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChatStreamDuration tracks end-to-end chat stream duration.
	ChatStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_stream_duration_seconds",
			Help:    "Chat streaming response duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// ChatStreamsActive tracks chat streams currently in flight.
	ChatStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_streams_active",
			Help: "Number of active chat streams",
		},
	)

	// MessagesTotal tracks total messages persisted.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"role"},
	)

	// ToolExecutionsTotal tracks tool executions by tool and outcome.
	ToolExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Total tool executions",
		},
		[]string{"tool", "status"},
	)

	// PermissionDecisionsTotal tracks approval sub-protocol outcomes.
	PermissionDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_decisions_total",
			Help: "Total permission approvals and rejections",
		},
		[]string{"decision"},
	)

	// StreamRecordsTotal tracks records emitted on chat streams.
	StreamRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_records_total",
			Help: "Total records emitted on chat streams",
		},
		[]string{"type"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordChatStream records metrics for a finished chat stream.
func RecordChatStream(model, status string, duration float64) {
	ChatStreamDuration.WithLabelValues(model, status).Observe(duration)
}

// RecordToolExecution records a tool execution outcome.
func RecordToolExecution(tool, status string) {
	ToolExecutionsTotal.WithLabelValues(tool, status).Inc()
}

// RecordPermissionDecision records an approval or rejection.
func RecordPermissionDecision(decision string) {
	PermissionDecisionsTotal.WithLabelValues(decision).Inc()
}

// IncrementChatStreams increments the active chat stream count.
func IncrementChatStreams() {
	ChatStreamsActive.Inc()
}

// DecrementChatStreams decrements the active chat stream count.
func DecrementChatStreams() {
	ChatStreamsActive.Dec()
}
