package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

const (
	statusSuccess     = "success"
	statusError       = "error"
	statusRateLimited = "rate_limited"
)

var (
	// Counter for total tool calls by tool name and status
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "owlet_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls by tool name and status",
		},
		[]string{"tool_name", "status"},
	)

	toolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "owlet_mcp_tool_duration_seconds",
			Help:    "Duration of MCP tool calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool_name"},
	)

	activeToolCalls = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "owlet_mcp_tool_active_calls",
			Help: "Number of currently active MCP tool calls",
		},
		[]string{"tool_name"},
	)

	toolArgumentSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "owlet_mcp_tool_argument_size_bytes",
			Help:    "Size of arguments passed to MCP tools in bytes",
			Buckets: prometheus.ExponentialBuckets(16, 2, 10), // 16B to ~8KB
		},
		[]string{"tool_name"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "owlet_mcp_rate_limited_total",
			Help: "Tool calls rejected by the per-caller rate limiter",
		},
		[]string{"tool_name"},
	)
)

func callStatus(err error) (string, string) {
	switch {
	case err == nil:
		return statusSuccess, ""
	case errors.Is(err, ErrRateLimited):
		return statusRateLimited, err.Error()
	default:
		return statusError, err.Error()
	}
}

func argumentsSize(args map[string]any) int {
	if len(args) == 0 {
		return 0
	}
	if data, err := json.Marshal(args); err == nil {
		return len(data)
	}
	return 0
}

// Instrument gives each call a request id, records Prometheus metrics and
// keeps a sanitized copy of the call in logs. logs may be nil.
func Instrument(logs *LogBuffer) Stage {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (any, error) {
			if call.RequestID == "" {
				call.RequestID = uuid.NewString()
			}

			start := time.Now()
			activeToolCalls.WithLabelValues(call.Tool).Inc()
			defer activeToolCalls.WithLabelValues(call.Tool).Dec()

			if size := argumentsSize(call.Arguments); size > 0 {
				toolArgumentSize.WithLabelValues(call.Tool).Observe(float64(size))
			}

			out, err := next(ctx, call)

			duration := time.Since(start).Seconds()
			status, errorMsg := callStatus(err)
			toolDuration.WithLabelValues(call.Tool).Observe(duration)
			toolCallsTotal.WithLabelValues(call.Tool, status).Inc()

			if logs != nil {
				args, _ := Sanitize(call.Arguments).(map[string]any)
				logs.Add(RequestLog{
					Timestamp: start,
					ToolName:  call.Tool,
					Caller:    call.Caller,
					Arguments: args,
					Duration:  duration,
					Status:    status,
					Error:     errorMsg,
					RequestID: call.RequestID,
				})
			}

			event := log.Info()
			if err != nil {
				event = log.Warn().Err(err)
			}
			event.Str("tool", call.Tool).
				Str("caller", call.Caller).
				Str("request_id", call.RequestID).
				Float64("duration_seconds", duration).
				Str("status", status).
				Msg("Tool call completed")

			return out, err
		}
	}
}
