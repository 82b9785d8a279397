package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	agentInitializationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlagent_agent_initializations_total",
			Help: "Total number of agent construction attempts by outcome.",
		},
		[]string{"status"},
	)
	agentInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlagent_agent_invocations_total",
			Help: "Total number of questions answered by the agent, by outcome.",
		},
		[]string{"status"},
	)
	agentInvocationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlagent_agent_invocation_duration_seconds",
			Help:    "Wall time spent answering a question.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
	agentToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlagent_agent_tool_calls_total",
			Help: "Total number of tool calls issued by the agent, by tool and outcome.",
		},
		[]string{"tool", "status"},
	)
	agentIterationLimitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlagent_agent_iteration_limit_total",
			Help: "Total number of agent runs stopped by the iteration limit.",
		},
	)
	archiveWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlagent_archive_writes_total",
			Help: "Total number of exchange archive writes by outcome.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		agentInitializationsTotal,
		agentInvocationsTotal,
		agentInvocationDurationSeconds,
		agentToolCallsTotal,
		agentIterationLimitTotal,
		archiveWritesTotal,
	)
}

func ObserveAgentInitialization(err error) {
	agentInitializationsTotal.WithLabelValues(statusLabel(err)).Inc()
}

func ObserveAgentInvocation(status string, elapsed time.Duration) {
	agentInvocationsTotal.WithLabelValues(status).Inc()
	agentInvocationDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveToolCall(tool string, failed bool) {
	status := StatusSuccess
	if failed {
		status = StatusError
	}
	agentToolCallsTotal.WithLabelValues(tool, status).Inc()
}

func IncrementIterationLimit() {
	agentIterationLimitTotal.Inc()
}

func ObserveArchiveWrite(err error) {
	archiveWritesTotal.WithLabelValues(statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
