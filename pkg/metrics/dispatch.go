package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DispatchMetrics records tool and workflow activity.
type DispatchMetrics struct {
	toolDispatches    *prometheus.CounterVec
	toolDuration      *prometheus.HistogramVec
	workflowRuns      *prometheus.CounterVec
	workflowDuration  *prometheus.HistogramVec
	workflowActions   prometheus.Histogram
	expertHelpDenials prometheus.Counter
}

// NewDispatchMetrics creates the dispatch recorder, or nil when metrics are
// disabled. A nil recorder is safe to use.
func NewDispatchMetrics() *DispatchMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &DispatchMetrics{
		toolDispatches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nifibridge_tool_dispatches_total",
				Help: "Tool dispatches by tool name and outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nifibridge_tool_duration_seconds",
				Help:    "Tool dispatch duration by tool name",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		workflowRuns: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nifibridge_workflow_runs_total",
				Help: "Workflow executions by workflow name and outcome",
			},
			[]string{"workflow", "outcome"},
		),
		workflowDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nifibridge_workflow_duration_seconds",
				Help:    "Workflow execution duration by workflow name",
				Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"workflow"},
		),
		workflowActions: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nifibridge_workflow_actions",
				Help:    "Tool actions taken per workflow run",
				Buckets: []float64{1, 2, 5, 10, 20, 50},
			},
		),
		expertHelpDenials: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nifibridge_expert_help_denials_total",
				Help: "Expert help requests rejected by the rate limiter",
			},
		),
	}
}

// RecordTool records one tool dispatch.
func (m *DispatchMetrics) RecordTool(tool, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.toolDispatches.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordWorkflow records one workflow run.
func (m *DispatchMetrics) RecordWorkflow(workflow string, success bool, actions int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.workflowRuns.WithLabelValues(workflow, outcome).Inc()
	m.workflowDuration.WithLabelValues(workflow).Observe(duration.Seconds())
	m.workflowActions.Observe(float64(actions))
}

// RecordExpertHelpDenial records one rate-limited expert help request.
func (m *DispatchMetrics) RecordExpertHelpDenial() {
	if m == nil {
		return
	}
	m.expertHelpDenials.Inc()
}
