// Package worker implements the Worker orchestrator: the PRIME / EXECUTE /
// REFLECT pipeline that ties every other component together for one task.
package worker

import (
	"context"
	"time"

	"github.com/procweave/orchestrator/internal/bandit"
	"github.com/procweave/orchestrator/internal/contextrl"
	"github.com/procweave/orchestrator/internal/knowledge"
	"github.com/procweave/orchestrator/internal/llm"
	"github.com/procweave/orchestrator/internal/metrics"
	"github.com/procweave/orchestrator/internal/rl"
	"github.com/procweave/orchestrator/internal/session"
	"github.com/procweave/orchestrator/internal/store"
	"github.com/procweave/orchestrator/internal/tools"
	"github.com/procweave/orchestrator/internal/toolsrpc"
)

// TaskInput is one incoming task, decoded from the tasks/send envelope.
type TaskInput struct {
	TaskID        string
	SessionID     string
	Text          string
	PolicyDocJSON string
	ToolsEndpoint string
}

// TaskOutput is the rendered answer plus whether the task failed.
type TaskOutput struct {
	Answer string
	Failed bool
}

// Worker owns every shared component and drives one task at a time through
// PRIME, EXECUTE, and REFLECT. Per-task state (TokenBudget, system context)
// lives only for the duration of Run; nothing here is task-scoped except
// through the arguments passed in.
type Worker struct {
	LLM       llm.Client
	Sessions  *session.Store
	CaseLog   *rl.CaseLog
	Bandit    *bandit.Bandit
	Knowledge *knowledge.Base
	Entities  *knowledge.Memory
	ContextRL *contextrl.Tracker
	Templates *store.JSONStore[map[string]StoredTemplate]

	DefaultToolsEndpoint string
	ToolTimeout          time.Duration
	TaskTimeout          time.Duration

	newToolsClient func(endpoint string) *toolsrpc.Client
	newRegistry    func() *tools.Registry
}

// NewToolsClientFunc and NewRegistryFunc let cmd/server wire concrete
// constructors (circuit-breaker-wrapped client, persisted registry) without
// this package importing server-level wiring concerns.
type NewToolsClientFunc func(endpoint string) *toolsrpc.Client
type NewRegistryFunc func() *tools.Registry

// New constructs a Worker. newToolsClient and newRegistry are factories so
// each task gets its own client/registry bound to its own endpoint/state
// while still sharing the underlying persisted registry data via newRegistry's
// closure over a shared *store.JSONStore.
func New(llmClient llm.Client, sessions *session.Store, caseLog *rl.CaseLog, b *bandit.Bandit,
	kb *knowledge.Base, entities *knowledge.Memory, ctxRL *contextrl.Tracker,
	templates *store.JSONStore[map[string]StoredTemplate],
	defaultToolsEndpoint string, toolTimeout, taskTimeout time.Duration,
	newToolsClient NewToolsClientFunc, newRegistry NewRegistryFunc) *Worker {
	return &Worker{
		LLM: llmClient, Sessions: sessions, CaseLog: caseLog, Bandit: b,
		Knowledge: kb, Entities: entities, ContextRL: ctxRL, Templates: templates,
		DefaultToolsEndpoint: defaultToolsEndpoint, ToolTimeout: toolTimeout, TaskTimeout: taskTimeout,
		newToolsClient: newToolsClient, newRegistry: newRegistry,
	}
}

// Run executes one task end to end: PRIME, EXECUTE, REFLECT.
func (w *Worker) Run(ctx context.Context, in TaskInput) TaskOutput {
	start := time.Now()
	metrics.TasksSubmitted.Inc()
	ctx, cancel := context.WithTimeout(ctx, w.TaskTimeout)
	defer cancel()

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = in.TaskID
	}
	sess := w.Sessions.Get(sessionID)
	unlock := sess.Lock()
	defer unlock()

	p, refused := w.prime(ctx, in, sess)
	if refused != nil {
		metrics.TasksCompleted.WithLabelValues("refused").Inc()
		return TaskOutput{Answer: refused.Message, Failed: false}
	}

	exec := w.execute(ctx, in, p)

	answer := w.reflect(ctx, in, sess, p, exec, start)

	metrics.TaskDuration.WithLabelValues(p.processType, string(exec.arm)).Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		metrics.TasksCompleted.WithLabelValues("timeout").Inc()
		return TaskOutput{Answer: answer, Failed: true}
	}
	metrics.TasksCompleted.WithLabelValues("ok").Inc()
	return TaskOutput{Answer: answer, Failed: false}
}

// StoredTemplate is the JSON-persistable shape of a synthesised fsm.Template,
// keyed by process_type_name in synthesized_definitions.json.
type StoredTemplate struct {
	ProcessType        string            `json:"process_type"`
	States              []string         `json:"states"`
	Instructions        map[string]string `json:"instructions"`
	RequiredOutputFields []string         `json:"required_output_fields,omitempty"`
	HITLRequired        bool              `json:"hitl_required,omitempty"`
	RequiresReopenGate  bool              `json:"requires_reopen_gate,omitempty"`
}
