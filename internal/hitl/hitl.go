// Package hitl classifies tools as read/compute/mutate and filters a
// strategy's visible tool set according to the current FSM state, enforcing
// human-in-the-loop gating on mutation-class tools.
package hitl

import (
	"fmt"
	"strings"

	"github.com/procweave/orchestrator/internal/budget"
)

// Classification is one of the three tool-call risk tiers.
type Classification string

const (
	ClassRead    Classification = "read"
	ClassCompute Classification = "compute"
	ClassMutate  Classification = "mutate"
)

// computePrefixes must be checked before readPrefixes: calculate_variance
// would otherwise match no read prefix and fall through to mutate, but more
// importantly estimate_/predict_ must never be misclassified as reads.
var computePrefixes = []string{"calculate_", "compute_", "estimate_", "predict_"}

var readPrefixes = []string{
	"get_", "list_", "find_", "search_", "describe_", "fetch_", "read_", "show_", "query_",
}

// Classify returns a tool's risk classification. Order matters: compute
// prefixes are checked first so that names like "estimate_cost" are never
// shadowed by a read-prefix match.
func Classify(toolName string) Classification {
	for _, p := range computePrefixes {
		if strings.HasPrefix(toolName, p) {
			return ClassCompute
		}
	}
	for _, p := range readPrefixes {
		if strings.HasPrefix(toolName, p) {
			return ClassRead
		}
	}
	return ClassMutate
}

// gatedStates are FSM states where mutation-class tools are structurally
// withheld from the strategy's tool set.
var gatedStates = map[budget.FSMState]bool{
	budget.StateAssess:       true,
	budget.StateApprovalGate: true,
	budget.StatePolicyCheck:  true,
	budget.StateCompute:      true,
	budget.StateScheduleNotifyReading: true,
}

// Tool is the minimal shape HITLGuard needs from a tool schema.
type Tool struct {
	Name string
}

// FilterResult is the outcome of filtering a tool set for a state.
type FilterResult struct {
	VisibleTools []Tool
	Banner       string // non-empty iff any tool was filtered out
}

// FilterTools removes mutation-class tools when fsmState is gated.
func FilterTools(allTools []Tool, fsmState budget.FSMState) FilterResult {
	if !gatedStates[fsmState] {
		return FilterResult{VisibleTools: allTools}
	}

	var visible []Tool
	filtered := false
	for _, t := range allTools {
		if Classify(t.Name) == ClassMutate {
			filtered = true
			continue
		}
		visible = append(visible, t)
	}

	res := FilterResult{VisibleTools: visible}
	if filtered {
		res.Banner = fmt.Sprintf("MUTATION TOOLS BLOCKED AT %s. Produce an approval document instead.", fsmState)
	}
	return res
}
