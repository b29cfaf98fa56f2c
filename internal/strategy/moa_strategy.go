package strategy

import (
	"context"

	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/llm"
	"github.com/procweave/orchestrator/internal/verify"
)

// MoAStrategy skips the per-state FSM walk entirely and produces the
// answer directly via mixture-of-agents consensus: a single draft pass,
// then either the numeric or pure-reasoning MoA check depending on whether
// the draft pass made any tool calls.
type MoAStrategy struct{}

func (MoAStrategy) Name() string { return "moa" }

func (s MoAStrategy) Execute(ctx context.Context, in Input) (Output, error) {
	draftPrompt := in.SystemContext + "\n\nTask: " + in.TaskText +
		"\nAvailable tools:\n" + toolDescriptions(in.Tools) +
		"\nProduce your best answer, using tools if they are relevant."

	draft, toolCalls := completeWithTools(ctx, in, llm.TierFast, draftPrompt)
	in.Budget.Record(draft)
	emit(in, "draft", draft)

	final := draft
	if toolCalls > 0 {
		if consensus, changed := verify.NumericMoA(ctx, in.LLM, draft); changed {
			final = consensus
		}
	} else {
		if consensus, ok := verify.PureReasoningMoA(ctx, in.LLM, draftPrompt); ok {
			final = consensus
		}
	}
	in.Budget.Record(final)
	emit(in, "consensus", final)

	finalState := fsm.Complete
	if in.Template != nil && len(in.Template.States) > 0 {
		finalState = in.Template.States[len(in.Template.States)-1]
	}

	return Output{
		Answer:        final,
		FinalState:    finalState,
		Checkpoint:    fsm.Checkpoint{ProcessType: processTypeOf(in.Template), StateIndex: stateCountOf(in.Template)},
		ToolCallCount: toolCalls,
	}, nil
}
