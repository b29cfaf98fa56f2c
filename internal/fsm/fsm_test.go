package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidSubsequence(t *testing.T) {
	assert.True(t, IsValidSubsequence([]State{Decompose, Assess, Complete}))
	assert.False(t, IsValidSubsequence([]State{Assess, Decompose}))
	assert.False(t, IsValidSubsequence([]State{Decompose, Decompose}))
}

func TestBuiltinTemplates_AllValidSubsequences(t *testing.T) {
	for _, name := range BuiltinNames() {
		tpl, ok := BuiltinTemplate(name)
		require.True(t, ok)
		assert.True(t, IsValidSubsequence(tpl.States), "template %s has invalid state sequence", name)
	}
}

func TestIsReadOnly(t *testing.T) {
	assert.True(t, IsReadOnly("What is the current status of order ORD-5"))
	assert.False(t, IsReadOnly("Please update the order status"))
}

func TestRun_ReadOnlyShortcircuitHasThreeStates(t *testing.T) {
	invoke := func(ctx context.Context, tpl *Template, s State) (StateResult, error) {
		return StateResult{Output: string(s)}, nil
	}
	outcome, err := Run(context.Background(), ReadOnlyTemplate, Checkpoint{}, invoke)
	require.NoError(t, err)
	assert.Equal(t, Complete, outcome.FinalState)
	assert.Len(t, outcome.StateLog, 3)
}

func TestRun_PolicyFailureReroutesToEscalate(t *testing.T) {
	tpl, _ := BuiltinTemplate("invoice_approval")
	invoke := func(ctx context.Context, tpl *Template, s State) (StateResult, error) {
		if s == PolicyCheck {
			failed := false
			return StateResult{Output: "blocked", PolicyPassed: &failed}, nil
		}
		return StateResult{Output: string(s)}, nil
	}
	outcome, err := Run(context.Background(), tpl, Checkpoint{}, invoke)
	require.NoError(t, err)
	assert.Equal(t, Escalate, outcome.FinalState)
	assert.NotContains(t, outcome.StateLog, Mutate)
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	tpl, _ := BuiltinTemplate("invoice_approval")
	var visited []State
	invoke := func(ctx context.Context, tpl *Template, s State) (StateResult, error) {
		visited = append(visited, s)
		return StateResult{Output: string(s)}, nil
	}
	checkpoint := Checkpoint{ProcessType: tpl.ProcessType, StateIndex: len(tpl.States) - 1}
	_, err := Run(context.Background(), tpl, checkpoint, invoke)
	require.NoError(t, err)
	assert.Equal(t, []State{tpl.States[len(tpl.States)-1]}, visited)
}
