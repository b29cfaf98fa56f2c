package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "procweave_tasks_submitted_total",
			Help: "Total number of tasks/send requests accepted",
		},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procweave_tasks_completed_total",
			Help: "Total number of tasks completed, by outcome",
		},
		[]string{"outcome"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procweave_task_duration_seconds",
			Help:    "End-to-end task duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"process_type", "strategy"},
	)

	FSMTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procweave_fsm_transitions_total",
			Help: "FSM state transitions",
		},
		[]string{"from", "to"},
	)

	BanditPulls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procweave_bandit_pulls_total",
			Help: "Strategy bandit arm pulls",
		},
		[]string{"process_type", "strategy"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procweave_tool_calls_total",
			Help: "Tool calls by classification and outcome",
		},
		[]string{"classification", "outcome"},
	)

	SchemaCorrections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procweave_schema_corrections_total",
			Help: "Schema drift corrections by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	TokenBudgetUsageRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "procweave_token_budget_usage_ratio",
			Help:    "Fraction of per-task character budget consumed at task end",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	ErrorsByKind = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procweave_errors_total",
			Help: "Errors surfaced by taxonomy kind",
		},
		[]string{"kind"},
	)

	ToolsSynthesized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procweave_tools_synthesized_total",
			Help: "Dynamic tool synthesis attempts by outcome",
		},
		[]string{"outcome"},
	)
)
