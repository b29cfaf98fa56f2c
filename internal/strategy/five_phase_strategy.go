package strategy

import (
	"context"
	"strings"

	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/llm"
)

// fivePhaseStep is one of the fixed five phases this strategy always runs,
// regardless of the task's process template; it trades the FSM's per-process
// instruction text for a fixed, cheaper reasoning loop.
type fivePhaseStep struct {
	name         string
	promptSuffix string
	tier         llm.Tier
}

var fivePhases = []fivePhaseStep{
	{"understand", "Restate what is being asked and what information is needed.", llm.TierFast},
	{"plan", "List the concrete steps you will take, including any tool calls.", llm.TierFast},
	{"act", "Carry out the plan using the available tools; state results as you go.", llm.TierFast},
	{"verify", "Check your work for consistency and correctness.", llm.TierFast},
	{"summarize", "Produce the final answer for the user.", llm.TierStrong},
}

// FivePhaseStrategy runs a fixed five-step reasoning loop (understand, plan,
// act, verify, summarize) instead of walking the process template's FSM
// states; cheaper for tasks that don't need per-state policy/approval gates.
type FivePhaseStrategy struct{}

func (FivePhaseStrategy) Name() string { return "five_phase" }

func (s FivePhaseStrategy) Execute(ctx context.Context, in Input) (Output, error) {
	var transcript strings.Builder
	toolCalls := 0
	finalAnswer := ""

	for _, phase := range fivePhases {
		prompt := in.SystemContext + "\n\nTask: " + in.TaskText + "\n\nPhase: " + phase.name +
			"\n" + phase.promptSuffix + "\nAvailable tools:\n" + toolDescriptions(in.Tools) +
			"\n\nSo far:\n" + transcript.String()

		output, calls := completeWithTools(ctx, in, phase.tier, prompt)
		toolCalls += calls

		in.Budget.Record(output)
		transcript.WriteString(phase.name + ": " + output + "\n")
		emit(in, phase.name, output)
		if phase.name == "summarize" {
			finalAnswer = output
		}
	}

	finalState := fsm.Complete
	if in.Template != nil && len(in.Template.States) > 0 {
		finalState = in.Template.States[len(in.Template.States)-1]
	}

	return Output{
		Answer:        finalAnswer,
		FinalState:    finalState,
		Checkpoint:    fsm.Checkpoint{ProcessType: processTypeOf(in.Template), StateIndex: stateCountOf(in.Template)},
		ToolCallCount: toolCalls,
	}, nil
}

func stateCountOf(t *fsm.Template) int {
	if t == nil {
		return 0
	}
	return len(t.States)
}

func processTypeOf(t *fsm.Template) string {
	if t == nil {
		return ""
	}
	return t.ProcessType
}
