package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procweave/orchestrator/internal/bandit"
	"github.com/procweave/orchestrator/internal/budget"
	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/llm"
)

type fakeLLM struct{ reply string }

func (f fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return f.reply, nil
}

func (f fakeLLM) CompleteWithTools(ctx context.Context, req llm.CompletionRequest, tools []llm.ToolSchema) (llm.Completion, error) {
	return llm.Completion{Text: f.reply}, nil
}

// toolCallingLLM returns one tool call on its first invocation and the given
// reply text on every invocation after, simulating a model that calls a tool
// before answering.
type toolCallingLLM struct {
	toolName string
	reply    string
	calls    int
}

func (f *toolCallingLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return f.reply, nil
}

func (f *toolCallingLLM) CompleteWithTools(ctx context.Context, req llm.CompletionRequest, tools []llm.ToolSchema) (llm.Completion, error) {
	f.calls++
	if f.calls == 1 {
		return llm.Completion{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: f.toolName, Arguments: `{"order_id":"ORD-5"}`}}}, nil
	}
	return llm.Completion{Text: f.reply}, nil
}

func TestForArm_MapsAllThreeArms(t *testing.T) {
	assert.Equal(t, "fsm", ForArm(bandit.ArmFSM).Name())
	assert.Equal(t, "five_phase", ForArm(bandit.ArmFivePhase).Name())
	assert.Equal(t, "moa", ForArm(bandit.ArmMoA).Name())
}

func TestFSMStrategy_RunsReadOnlyTemplateToCompletion(t *testing.T) {
	in := Input{
		TaskText:      "What is the current status of order ORD-5",
		SystemContext: "system",
		Template:      fsm.ReadOnlyTemplate,
		Budget:        budget.New("What is the current status of order ORD-5"),
		LLM:           fakeLLM{reply: "Order ORD-5 is shipped."},
	}
	out, err := FSMStrategy{}.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, fsm.Complete, out.FinalState)
	assert.Equal(t, "Order ORD-5 is shipped.", out.Answer)
}

func TestFivePhaseStrategy_RunsAllFivePhases(t *testing.T) {
	var states []string
	in := Input{
		TaskText:      "summarise this account",
		SystemContext: "system",
		Budget:        budget.New("summarise this account"),
		LLM:           fakeLLM{reply: "ok"},
		OnState:       func(e StateEvent) { states = append(states, e.State) },
	}
	out, err := FivePhaseStrategy{}.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"understand", "plan", "act", "verify", "summarize"}, states)
	assert.Equal(t, "ok", out.Answer)
}

func TestFSMStrategy_DispatchesModelRequestedToolCalls(t *testing.T) {
	var called []string
	in := Input{
		TaskText:      "What is the current status of order ORD-5",
		SystemContext: "system",
		Template:      fsm.ReadOnlyTemplate,
		Tools:         []Tool{{Name: "get_order_status", Description: "look up an order"}},
		Budget:        budget.New("What is the current status of order ORD-5"),
		LLM:           &toolCallingLLM{toolName: "get_order_status", reply: "Order ORD-5 is shipped."},
		CallTool: func(ctx context.Context, name string, params map[string]any) (string, error) {
			called = append(called, name)
			return `{"status":"shipped"}`, nil
		},
	}
	out, err := FSMStrategy{}.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, called, "get_order_status")
	assert.Greater(t, out.ToolCallCount, 0)
}

func TestMoAStrategy_NoToolsUsesPureReasoningPath(t *testing.T) {
	in := Input{
		TaskText:      "explain the policy",
		SystemContext: "system",
		Budget:        budget.New("explain the policy"),
		LLM:           fakeLLM{reply: "the policy states X applies to all cases"},
	}
	out, err := MoAStrategy{}.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Answer)
	assert.Equal(t, 0, out.ToolCallCount)
}
