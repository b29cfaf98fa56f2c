package worker

import (
	"context"
	"strings"

	"github.com/procweave/orchestrator/internal/classifier"
	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/hitl"
	"github.com/procweave/orchestrator/internal/knowledge"
	"github.com/procweave/orchestrator/internal/metrics"
	"github.com/procweave/orchestrator/internal/policy"
	"github.com/procweave/orchestrator/internal/privacy"
	"github.com/procweave/orchestrator/internal/session"
	"github.com/procweave/orchestrator/internal/tools"
	"github.com/procweave/orchestrator/internal/toolsrpc"
)

// primeResult is everything PRIME assembles for EXECUTE to consume.
type primeResult struct {
	processType   string
	template      *fsm.Template
	checkpoint    fsm.Checkpoint
	policyResult  *policy.Result
	policyErr     error
	toolSchemas   []toolsrpc.ToolSchema
	toolsClient   *toolsrpc.Client
	registry      *tools.Registry
	systemContext string
	rlPrimer      []string
	gapTools      []string
}

// prime runs PRIME's 13 strictly sequential steps. It returns (nil,
// *privacy.Refusal) if the privacy check refuses the task outright.
func (w *Worker) prime(ctx context.Context, in TaskInput, sess *session.Session) (*primeResult, *privacy.Refusal) {
	// Step 1: privacy check, zero API cost, ahead of everything else.
	if refusal, refused := privacy.Check(in.Text); refused {
		return nil, refusal
	}

	// Step 2: RL primer build, pruned first so stale/repeated-failure
	// entries never surface.
	w.CaseLog.Prune()
	primer := w.CaseLog.BuildPrimer(in.Text)

	// Step 3: session summary fetch (already held via sess, no extra I/O).
	summary := sess.Summary

	// Step 4: FSM classification.
	processType := classifier.Classify(ctx, w.LLM, in.Text)

	var template *fsm.Template
	if fsm.IsReadOnly(in.Text) {
		template = fsm.ReadOnlyTemplate
		processType = "read_only"
	} else if builtin, ok := fsm.BuiltinTemplate(processType); ok {
		template = builtin
	} else {
		// Step 5: synthesise a template for a novel process type, cached
		// permanently keyed by name.
		template = w.synthesiseOrLoadTemplate(ctx, processType, in.Text)
	}

	// Step 6: FSMRunner init, restoring the checkpoint if the session
	// carries one matching this process type.
	checkpoint := fsm.Checkpoint{}
	if sess.Checkpoint.ProcessType == processType {
		checkpoint = sess.Checkpoint
	}

	// Step 7: policy eval.
	var policyResult *policy.Result
	var policyErr error
	if strings.TrimSpace(in.PolicyDocJSON) != "" {
		policyResult, policyErr = policy.Evaluate(in.PolicyDocJSON)
	}

	// Step 8: tool discovery.
	endpoint := in.ToolsEndpoint
	if endpoint == "" {
		endpoint = w.DefaultToolsEndpoint
	}
	var toolsClient *toolsrpc.Client
	var schemas []toolsrpc.ToolSchema
	if endpoint != "" && w.newToolsClient != nil {
		toolsClient = w.newToolsClient(endpoint)
		if fetched, err := toolsClient.DiscoverTools(ctx, in.SessionID); err == nil {
			schemas = fetched
		}
	}

	// Step 9: gap detection + synthesis.
	var registry *tools.Registry
	var gapNames []string
	if w.newRegistry != nil {
		registry = w.newRegistry()
		for _, gapKey := range tools.DetectGaps(ctx, w.LLM, in.Text) {
			if registry.IsRegistered(gapKey) {
				gapNames = append(gapNames, gapKey)
				continue
			}
			if _, err := registry.SynthesiseAndRegister(ctx, w.LLM, gapKey, gapKey); err == nil {
				gapNames = append(gapNames, gapKey)
				metrics.ToolsSynthesized.WithLabelValues("registered").Inc()
			} else {
				metrics.ToolsSynthesized.WithLabelValues("failed").Inc()
			}
		}
	}

	// Step 10: HITL banner (computed lazily per-state by hitl.FilterTools
	// inside the strategy; here we just note mutation tools exist).
	hasMutation := false
	for _, s := range schemas {
		if hitl.Classify(s.Name) == hitl.ClassMutate {
			hasMutation = true
			break
		}
	}

	// Step 11: knowledge + entity injection.
	keywords := ruleKeywords(in.Text)
	facts := w.Knowledge.Retrieve("", keywords)
	entityRecords := w.Entities.GetEntityContext(in.Text)

	// Step 12: finance pre-compute is left to the strategy/tool layer; the
	// context-accuracy tracker's drift warning for the "finance_precompute"
	// context type is surfaced here so it reaches the system context regardless of
	// which strategy runs.
	driftWarning, drifted := w.ContextRL.DriftWarning(processType, "finance_precompute")

	// Step 13: assemble system context.
	systemContext := buildSystemContext(in.Text, summary, primer, template, factTexts(facts), entityTexts(entityRecords), hasMutation, driftWarning, drifted)

	return &primeResult{
		processType:   processType,
		template:      template,
		checkpoint:    checkpoint,
		policyResult:  policyResult,
		policyErr:     policyErr,
		toolSchemas:   schemas,
		toolsClient:   toolsClient,
		registry:      registry,
		systemContext: systemContext,
		rlPrimer:      primer,
		gapTools:      gapNames,
	}, nil
}

func (w *Worker) synthesiseOrLoadTemplate(ctx context.Context, processType, taskText string) *fsm.Template {
	if w.Templates != nil {
		if st, ok := w.Templates.Get()[processType]; ok {
			return fromStoredTemplate(st)
		}
	}

	tmpl, err := classifier.Synthesise(ctx, w.LLM, processType, taskText)
	if err != nil || tmpl == nil {
		general, _ := fsm.BuiltinTemplate("general")
		return general
	}

	if w.Templates != nil {
		_ = w.Templates.Update(func(m map[string]StoredTemplate) map[string]StoredTemplate {
			if m == nil {
				m = map[string]StoredTemplate{}
			}
			m[processType] = toStoredTemplate(tmpl)
			return m
		})
	}
	return tmpl
}

func ruleKeywords(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()[]\"'")
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

func factTexts(facts []knowledge.Fact) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, "Known: "+f.Text)
	}
	return out
}

func entityTexts(records []knowledge.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, "Entity on record: "+r.Canonical+" ("+string(r.Type)+")")
	}
	return out
}

func buildSystemContext(taskText, summary string, primer []string, template *fsm.Template,
	facts []string, entities []string, hasMutation bool, driftWarning string, drifted bool) string {
	var sb strings.Builder
	sb.WriteString("You are completing a business-process task.\n")
	if summary != "" {
		sb.WriteString("Session summary: " + summary + "\n")
	}
	for _, p := range primer {
		sb.WriteString(p + "\n")
	}
	if template != nil {
		sb.WriteString("Process: " + template.ProcessType + "\n")
	}
	for _, f := range facts {
		sb.WriteString(f + "\n")
	}
	for _, e := range entities {
		sb.WriteString(e + "\n")
	}
	if hasMutation {
		sb.WriteString("Mutation-class tools are available; they will be withheld at read/compute/approval/policy states.\n")
	}
	if drifted {
		sb.WriteString(driftWarning + "\n")
	}
	sb.WriteString("Task: " + taskText + "\n")
	return sb.String()
}
