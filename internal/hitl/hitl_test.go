package hitl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procweave/orchestrator/internal/budget"
)

func TestClassify_PriorityBug(t *testing.T) {
	// calculate_/compute_/estimate_/predict_ must win regardless of any other prefix.
	assert.Equal(t, ClassCompute, Classify("calculate_variance"))
	assert.Equal(t, ClassCompute, Classify("estimate_cost"))
	assert.Equal(t, ClassRead, Classify("get_invoice"))
	assert.Equal(t, ClassMutate, Classify("update_status"))
}

func TestFilterTools_MutateRemovedAtGatedStates(t *testing.T) {
	tools := []Tool{{Name: "get_invoice"}, {Name: "update_status"}, {Name: "calculate_variance"}}
	for _, st := range []budget.FSMState{budget.StateAssess, budget.StateApprovalGate, budget.StatePolicyCheck, budget.StateCompute} {
		res := FilterTools(tools, st)
		for _, vt := range res.VisibleTools {
			assert.NotEqual(t, ClassMutate, Classify(vt.Name))
		}
		assert.NotEmpty(t, res.Banner)
	}
}

func TestFilterTools_NoFilterAtMutate(t *testing.T) {
	tools := []Tool{{Name: "get_invoice"}, {Name: "update_status"}}
	res := FilterTools(tools, budget.StateMutate)
	assert.Len(t, res.VisibleTools, 2)
	assert.Empty(t, res.Banner)
}
