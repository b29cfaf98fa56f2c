// Package strategy implements the three interchangeable execution
// strategies selected by StrategyBandit: fsm, five_phase, and moa. All
// three share the same interface so the bandit can swap between them
// without the Worker knowing which one ran.
package strategy

import (
	"context"
	"encoding/json"

	"github.com/procweave/orchestrator/internal/budget"
	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/llm"
)

// Tool is the narrow tool descriptor a strategy needs to mention to the LLM.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{} // JSON Schema for the tool's arguments, as discovered from the tools endpoint
}

// ToolCaller invokes a tool by name through whatever layered wrapper stack
// (dynamic-tool registry -> SchemaAdapter -> RecoveryAgent -> MutationVerifier
// read-back) the Worker has assembled; strategies never call tools directly
// against a transport. Paginated fetching is not part of that stack.
type ToolCaller func(ctx context.Context, name string, params map[string]any) (string, error)

// StateEvent is emitted as the strategy progresses, for checkpointing and
// observability; fsm-backed strategies emit one per FSM state.
type StateEvent struct {
	State  string
	Output string
}

// Input is everything a strategy needs to produce an answer.
type Input struct {
	TaskText      string
	SystemContext string
	Tools         []Tool
	Template      *fsm.Template // the selected process template; states drive model-tier selection even for non-fsm strategies
	Checkpoint    fsm.Checkpoint
	Budget        *budget.TokenBudget
	CallTool      ToolCaller
	LLM           llm.Client
	OnState       func(StateEvent)
}

// Output is what every strategy returns.
type Output struct {
	Answer      string
	FinalState  fsm.State
	Checkpoint  fsm.Checkpoint
	StateLog    []fsm.State
	ToolCallCount int
}

// Strategy is the common interface behind the bandit's arm selection.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, in Input) (Output, error)
}

func emit(in Input, state, output string) {
	if in.OnState != nil {
		in.OnState(StateEvent{State: state, Output: output})
	}
}

// maxToolTurns bounds how many tool-call/result round trips a single
// completeWithTools call will make before giving up and returning whatever
// text it has, grounded on the teacher's pack's agentic-loop cap
// (agentoven's executor.go DefaultMaxTurns).
const maxToolTurns = 4

// completeWithTools calls the model with in.Tools offered as real
// function-calling tools. Each tool call the model returns is dispatched
// through in.CallTool and its result fed back into the transcript, looping
// until the model answers with text or maxToolTurns is exhausted. Returns
// the final text and how many tool calls were actually made.
func completeWithTools(ctx context.Context, in Input, tier llm.Tier, prompt string) (string, int) {
	if in.LLM == nil {
		return "(no LLM configured)", 0
	}

	schemas := toolSchemasOf(in.Tools)
	transcript := prompt
	toolCallsMade := 0

	for turn := 0; turn < maxToolTurns; turn++ {
		req := llm.CompletionRequest{Tier: tier, Prompt: transcript, MaxTokens: in.Budget.MaxTokensCap()}

		var completion llm.Completion
		var err error
		if len(schemas) > 0 && in.CallTool != nil {
			completion, err = in.LLM.CompleteWithTools(ctx, req, schemas)
		} else {
			var text string
			text, err = in.LLM.Complete(ctx, req)
			completion = llm.Completion{Text: text}
		}
		if err != nil {
			return "(step failed: " + err.Error() + ")", toolCallsMade
		}
		if len(completion.ToolCalls) == 0 {
			return completion.Text, toolCallsMade
		}

		for _, tc := range completion.ToolCalls {
			result, callErr := in.CallTool(ctx, tc.Name, parseToolArguments(tc.Arguments))
			toolCallsMade++
			if callErr != nil {
				transcript += "\n\nTool " + tc.Name + " failed: " + callErr.Error()
				continue
			}
			transcript += "\n\nTool " + tc.Name + " returned: " + result
		}
	}
	return "(tool-call loop exceeded its turn limit; proceeding with available information)", toolCallsMade
}

func parseToolArguments(raw string) map[string]any {
	params := map[string]any{}
	if raw == "" {
		return params
	}
	_ = json.Unmarshal([]byte(raw), &params)
	return params
}

func toolSchemasOf(tools []Tool) []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(tools))
	for _, t := range tools {
		out = append(out, llm.ToolSchema{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	return out
}

func toolDescriptions(tools []Tool) string {
	if len(tools) == 0 {
		return "(no tools available at this step)"
	}
	out := ""
	for _, t := range tools {
		out += "- " + t.Name + ": " + t.Description + "\n"
	}
	return out
}
