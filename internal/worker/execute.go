package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/procweave/orchestrator/internal/bandit"
	"github.com/procweave/orchestrator/internal/bracketfmt"
	"github.com/procweave/orchestrator/internal/budget"
	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/hitl"
	"github.com/procweave/orchestrator/internal/metrics"
	"github.com/procweave/orchestrator/internal/mutation"
	"github.com/procweave/orchestrator/internal/policy"
	"github.com/procweave/orchestrator/internal/recovery"
	"github.com/procweave/orchestrator/internal/schema"
	"github.com/procweave/orchestrator/internal/strategy"
	"github.com/procweave/orchestrator/internal/toolsrpc"
	"github.com/procweave/orchestrator/internal/verify"
)

// executeResult is what EXECUTE hands to REFLECT.
type executeResult struct {
	answer        string
	arm           bandit.Arm
	finalStateLog []string
	toolCallCount int
	mutationLog   []mutation.Entry
	policyPassed  *bool
	checkpoint    fsm.Checkpoint
	budgetRatio   float64
}

func (w *Worker) execute(ctx context.Context, in TaskInput, p *primeResult) *executeResult {
	b := budget.New(in.Text)
	arm := w.Bandit.Select(p.processType)
	strat := strategy.ForArm(arm)

	var mutationLog []mutation.Entry
	cache := schema.Cache{}
	toolCaller := w.buildToolCaller(ctx, in, p, cache, &mutationLog)

	stratTools := make([]strategy.Tool, 0, len(p.toolSchemas))
	for _, t := range p.toolSchemas {
		stratTools = append(stratTools, strategy.Tool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}

	out, err := strat.Execute(ctx, strategy.Input{
		TaskText:      in.Text,
		SystemContext: p.systemContext,
		Tools:         stratTools,
		Template:      p.template,
		Checkpoint:    p.checkpoint,
		Budget:        b,
		CallTool:      toolCaller,
		LLM:           w.LLM,
	})

	var answer string
	var policyPassed *bool
	if err != nil {
		metrics.ErrorsByKind.WithLabelValues("strategy_execute").Inc()
		answer = fmt.Sprintf("The task could not be completed: %v", err)
	} else {
		answer, policyPassed = w.postExecutionPasses(ctx, out.Answer, out, p)
	}

	answer += mutation.FormatLog(mutationLog)

	return &executeResult{
		answer:        answer,
		arm:           arm,
		finalStateLog: statesToStrings(out.StateLog),
		toolCallCount: out.ToolCallCount,
		mutationLog:   mutationLog,
		policyPassed:  policyPassed,
		checkpoint:    out.Checkpoint,
		budgetRatio:   b.UsageRatio(),
	}
}

// postExecutionPasses runs the compute audit, numeric/pure-reasoning MoA
// consensus check, approval-brief generation, output-field validation, and
// self-reflection passes, in that order, regardless of which strategy
// produced the draft answer.
func (w *Worker) postExecutionPasses(ctx context.Context, answer string, out strategy.Output, p *primeResult) (string, *bool) {
	if corrected, changed := verify.ComputeAudit(ctx, w.LLM, answer); changed {
		answer = corrected
	}

	if out.ToolCallCount > 0 {
		if consensus, changed := verify.NumericMoA(ctx, w.LLM, answer); changed {
			answer = answer + "\n\nConsensus check: " + consensus
		}
	} else if consensus, ok := verify.PureReasoningMoA(ctx, w.LLM, answer); ok && consensus != answer {
		answer = consensus
	}

	var policyPassed *bool
	if p.policyResult != nil {
		passed := p.policyResult.Passed
		policyPassed = &passed
	}

	if approvalGateFires(out.StateLog, p.toolSchemas) && len([]rune(answer)) < 200 && !bracketfmt.IsBracketFormat(answer) {
		answer = verify.BuildApprovalBrief(p.processType, answer, approvalContext(p.policyResult))
	}

	if p.template != nil {
		if missing := verify.MissingFields(answer, p.template.RequiredOutputFields); len(missing) > 0 {
			if improved, changed := verify.FillMissingFields(ctx, w.LLM, answer, p.processType, missing); changed {
				answer = improved
			}
		}
	}

	answer, _ = verify.Reflect(ctx, w.LLM, answer, verify.ReflectionInputs{
		Completeness:    1.0,
		PolicyProvided:  p.policyResult != nil,
		PolicyCompliant: policyPassed == nil || *policyPassed,
		ToolCoverage:    coverageScore(out.ToolCallCount),
	})

	return answer, policyPassed
}

// approvalGateFires reports whether this run passed through APPROVAL_GATE
// while mutation-class tools were live in the tool set — the condition
// original_source/hitl_guard.py's check_approval_gate calls gate_fires. A
// thin answer under that condition means the strategy never actually wrote
// the approval request APPROVAL_GATE's instruction asked for.
func approvalGateFires(stateLog []fsm.State, toolSchemas []toolsrpc.ToolSchema) bool {
	sawGate := false
	for _, s := range stateLog {
		if s == fsm.ApprovalGate {
			sawGate = true
			break
		}
	}
	if !sawGate {
		return false
	}
	for _, t := range toolSchemas {
		if hitl.Classify(t.Name) == hitl.ClassMutate {
			return true
		}
	}
	return false
}

func approvalContext(pr *policy.Result) verify.ApprovalContext {
	if pr == nil {
		return verify.ApprovalContext{}
	}
	return verify.ApprovalContext{
		Provided:         true,
		Passed:           pr.Passed,
		TriggeredRuleIDs: pr.TriggeredRuleIDs,
		EscalationLevel:  string(pr.EscalationLevel),
	}
}

func coverageScore(toolCallCount int) float64 {
	switch {
	case toolCallCount == 0:
		return 0.5
	case toolCallCount > 5:
		return 1.0
	default:
		return 0.5 + float64(toolCallCount)*0.1
	}
}

func statesToStrings(states []fsm.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// buildToolCaller composes the layered stack required for every tool
// invocation a strategy makes: a dynamically-synthesised-tool check,
// then SchemaAdapter (drift detection/correction), then RecoveryAgent on
// unrecoverable failure, then MutationVerifier's read-back when the tool is
// mutation-class. PaginatedFetcher is not part of this stack, and no tool
// call made through it is routed through pagination.FetchAll: each call is a
// single call_tool request, with no follow-up requests for further pages.
func (w *Worker) buildToolCaller(ctx context.Context, in TaskInput, p *primeResult, cache schema.Cache, mutationLog *[]mutation.Entry) strategy.ToolCaller {
	direct := func(ctx context.Context, name string, params map[string]string) (interface{}, error) {
		if p.toolsClient == nil {
			return nil, fmt.Errorf("no tools endpoint configured")
		}
		return p.toolsClient.CallTool(ctx, name, params, in.SessionID)
	}

	schemaWrapped := func(name string, params map[string]string) schema.CallResult {
		v, err := direct(ctx, name, params)
		if err != nil {
			return schema.CallResult{Err: err}
		}
		m, _ := v.(map[string]interface{})
		return schema.CallResult{Result: v, Empty: len(m) == 0}
	}

	describe := func(toolName string) ([]string, error) {
		if p.toolsClient == nil {
			return nil, fmt.Errorf("no tools endpoint configured")
		}
		v, err := p.toolsClient.CallTool(ctx, "describe_table", map[string]string{"table": toolName}, in.SessionID)
		if err != nil {
			return nil, err
		}
		raw, _ := v["columns"].([]interface{})
		cols := make([]string, 0, len(raw))
		for _, c := range raw {
			if s, ok := c.(string); ok {
				cols = append(cols, s)
			}
		}
		return cols, nil
	}

	var availableToolNames []string
	for _, t := range p.toolSchemas {
		availableToolNames = append(availableToolNames, t.Name)
	}

	suggest := func(ctx context.Context, failedTool string, availableTools []string) (string, error) {
		return "", fmt.Errorf("no alternate tool suggestion available")
	}

	return func(ctx context.Context, name string, params map[string]any) (string, error) {
		stringParams := toStringParams(params)
		classification := string(hitl.Classify(name))

		if p.registry != nil && p.registry.IsRegistered(name) {
			v, err := p.registry.Call(ctx, name, toFloatParams(params))
			if err != nil {
				metrics.ToolCalls.WithLabelValues(classification, "error").Inc()
				return "", err
			}
			metrics.ToolCalls.WithLabelValues(classification, "ok").Inc()
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}

		res := schema.Call(cache, schemaWrapped, describe, name, stringParams, primaryParamKey(stringParams))
		if res.Err != nil {
			recovered := recovery.Recover(ctx, name, stringParams, res.Err, availableToolNames, direct, suggest)
			if !recovered.Recovered {
				metrics.ToolCalls.WithLabelValues(classification, "error").Inc()
				return "", res.Err
			}
			res = schema.CallResult{Result: recovered.Value}
		}

		if hitl.Classify(name) == hitl.ClassMutate {
			readBack := func(toolName string, readParams map[string]string) (interface{}, error) {
				return direct(ctx, toolName, readParams)
			}
			*mutationLog = append(*mutationLog, mutation.Verify(name, stringParams, readBack))
		}

		metrics.ToolCalls.WithLabelValues(classification, "ok").Inc()
		return renderResult(res.Result), nil
	}
}

func renderResult(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func primaryParamKey(params map[string]string) string {
	for k := range params {
		if k == "id" || (len(k) > 3 && k[len(k)-3:] == "_id") {
			return k
		}
	}
	for k := range params {
		return k
	}
	return ""
}

func toStringParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

func toFloatParams(params map[string]any) map[string]float64 {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		switch n := v.(type) {
		case float64:
			out[k] = n
		case int:
			out[k] = float64(n)
		}
	}
	return out
}
