package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RPCCallDuration tracks fullnode JSON-RPC call latency per method.
	RPCCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "suidash_oracle_rpc_call_duration_seconds",
		Help:    "Duration of JSON-RPC calls to the fullnode",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// RPCCallErrorsTotal counts failed JSON-RPC calls per method.
	RPCCallErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suidash_oracle_rpc_call_errors_total",
		Help: "Total number of failed JSON-RPC calls",
	}, []string{"method"})

	// ToolInvocationDuration tracks query tool invocation latency.
	ToolInvocationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "suidash_oracle_tool_invocation_duration_seconds",
		Help:    "Duration of external query tool invocations",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	})

	// ToolInvocationErrorsTotal counts failed query tool invocations.
	ToolInvocationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_oracle_tool_invocation_errors_total",
		Help: "Total number of failed query tool invocations",
	})

	// ToolParseErrorsTotal counts tool outputs no parser variant matched.
	ToolParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_oracle_tool_parse_errors_total",
		Help: "Total number of query tool outputs that matched no known shape",
	})
)
