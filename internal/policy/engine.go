package policy

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed decision.rego
var decisionModule string

// triggeredFact is one triggered rule's contribution to the final decision:
// the action it specifies and the escalation level it names, if any.
type triggeredFact struct {
	Action string `json:"action"`
	Level  string `json:"level"`
}

// combinedDecision is the shape `decision.rego`'s query returns.
type combinedDecision struct {
	Passed           bool   `json:"passed"`
	RequiresApproval bool   `json:"requires_approval"`
	EscalationLevel  string `json:"escalation_level"`
}

// decisionQuery is compiled once at package init from the build-time
// embedded module via rego.New(...).PrepareForEval(...). Unlike an
// operator-managed .rego bundle loaded from a directory at deployment time,
// this module never changes at runtime, so there is no reload path to
// carry.
var decisionQuery rego.PreparedEvalQuery

func init() {
	q, err := rego.New(
		rego.Query("data.procweave.policy.decision"),
		rego.Module("decision.rego", decisionModule),
	).PrepareForEval(context.Background())
	if err != nil {
		panic(fmt.Sprintf("policy: failed to compile decision.rego: %v", err))
	}
	decisionQuery = q
}

// combine folds the set of triggered-rule facts into a final decision by
// evaluating the compiled Rego module, with the PrepareForEval-once /
// Eval-per-call split separating the one-time compilation from the
// per-request query. The input here is this package's own triggered-rule
// facts rather than a full PolicyInput, since the condition-matching that
// produces those facts has already run through evalCondition.
func combine(ctx context.Context, triggered []triggeredFact) (combinedDecision, error) {
	if len(triggered) == 0 {
		return combinedDecision{Passed: true, EscalationLevel: string(EscalationNone)}, nil
	}

	rs, err := decisionQuery.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"triggered": triggered,
	}))
	if err != nil {
		return combinedDecision{}, fmt.Errorf("policy: rego eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return combinedDecision{}, fmt.Errorf("policy: rego eval returned no result")
	}

	raw, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return combinedDecision{}, fmt.Errorf("policy: unexpected rego result shape %T", rs[0].Expressions[0].Value)
	}

	var out combinedDecision
	out.Passed, _ = raw["passed"].(bool)
	out.RequiresApproval, _ = raw["requires_approval"].(bool)
	out.EscalationLevel, _ = raw["escalation_level"].(string)
	return out, nil
}
