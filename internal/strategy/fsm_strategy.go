package strategy

import (
	"context"
	"strings"

	"github.com/procweave/orchestrator/internal/budget"
	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/llm"
)

// FSMStrategy drives the task through its selected template's FSM states
// one at a time, calling the LLM at the model tier TokenBudget picks for
// each state and recording consumption as it goes.
type FSMStrategy struct{}

func (FSMStrategy) Name() string { return "fsm" }

func (s FSMStrategy) Execute(ctx context.Context, in Input) (Output, error) {
	if in.Template == nil {
		return Output{}, &InvalidInputError{Reason: "fsm strategy requires a template"}
	}

	var transcript strings.Builder
	toolCalls := 0

	invoke := func(ctx context.Context, template *fsm.Template, state fsm.State) (fsm.StateResult, error) {
		instruction := template.Instructions[state]
		tier := budgetTierFor(in.Budget, state)

		prompt := in.SystemContext + "\n\nCurrent step: " + string(state) + "\nInstruction: " + instruction +
			"\nAvailable tools:\n" + toolDescriptions(in.Tools) +
			"\nPrior progress:\n" + transcript.String()

		var llmTier llm.Tier = llm.TierFast
		if tier == budget.TierStrong {
			llmTier = llm.TierStrong
		}

		var output string
		if tier == budget.TierSkip {
			output = "(token budget exhausted; proceeding with available information)"
		} else {
			var calls int
			output, calls = completeWithTools(ctx, in, llmTier, prompt)
			toolCalls += calls
		}

		in.Budget.Record(output)
		transcript.WriteString(string(state) + ": " + output + "\n")
		emit(in, string(state), output)

		result := fsm.StateResult{Output: output}

		if state == fsm.PolicyCheck {
			passed := policyPassedFromOutput(output)
			result.PolicyPassed = &passed
		}
		if state == fsm.Mutate && template.RequiresReopenGate {
			result.ReopenApprovalGate = strings.Contains(strings.ToLower(output), "reopen")
		}

		return result, nil
	}

	outcome, err := fsm.Run(ctx, in.Template, in.Checkpoint, invoke)
	if err != nil {
		return Output{}, err
	}

	return Output{
		Answer:        outcome.LastOutput,
		FinalState:    outcome.FinalState,
		Checkpoint:    outcome.Checkpoint,
		StateLog:      outcome.StateLog,
		ToolCallCount: toolCalls,
	}, nil
}

// InvalidInputError marks a strategy Input missing a field that strategy
// requires.
type InvalidInputError struct{ Reason string }

func (e *InvalidInputError) Error() string { return "invalid strategy input: " + e.Reason }

func budgetTierFor(b *budget.TokenBudget, state fsm.State) budget.ModelTier {
	return b.GetModel(budget.FSMState(state))
}

// policyPassedFromOutput is a coarse heuristic: the POLICY_CHECK step's
// instruction asks the model to state pass/fail explicitly.
func policyPassedFromOutput(output string) bool {
	lower := strings.ToLower(output)
	if strings.Contains(lower, "policy: fail") || strings.Contains(lower, "block") || strings.Contains(lower, "reject") {
		return false
	}
	return true
}
