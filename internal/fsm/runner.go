package fsm

import (
	"context"

	"github.com/procweave/orchestrator/internal/metrics"
)

// Checkpoint is the authoritative resume point for a multi-turn process.
type Checkpoint struct {
	ProcessType    string
	StateIndex     int
	CompletedSteps []State
	PendingSteps   []State
	RequiresHITL   bool
}

// StateResult is what a per-state invocation reports back to the runner.
type StateResult struct {
	Output             string
	PolicyPassed       *bool // non-nil only when this state evaluated policy
	ReopenApprovalGate bool  // MUTATE signals a need for another confirmation round
}

// Invoke runs one FSM state via the chosen execution strategy.
type Invoke func(ctx context.Context, template *Template, state State) (StateResult, error)

// RunOutcome is the terminal result of driving a template to completion,
// escalation, or failure.
type RunOutcome struct {
	FinalState  State
	Checkpoint  Checkpoint
	StateLog    []State
	LastOutput  string
}

// Run drives template's state sequence from checkpoint (or from the start
// if checkpoint is zero-value with StateIndex 0), calling invoke for each
// state and honoring the POLICY_CHECK->ESCALATE reroute and MUTATE's
// reopen_approval_gate signal.
func Run(ctx context.Context, template *Template, checkpoint Checkpoint, invoke Invoke) (RunOutcome, error) {
	states := template.States
	idx := checkpoint.StateIndex
	if idx < 0 {
		idx = 0
	}

	var stateLog []State
	var lastOutput string
	prevState := State("")
	if n := len(checkpoint.CompletedSteps); n > 0 {
		prevState = checkpoint.CompletedSteps[n-1]
	}

	for idx < len(states) {
		state := states[idx]

		// Invariant: never re-enter DECOMPOSE in the same task once past it.
		if state == Decompose && idx != 0 && contains(stateLog, Decompose) {
			idx++
			continue
		}

		res, err := invoke(ctx, template, state)
		if err != nil {
			return RunOutcome{
				FinalState: Failed,
				Checkpoint: Checkpoint{ProcessType: template.ProcessType, StateIndex: idx, CompletedSteps: stateLog, RequiresHITL: template.HITLRequired},
				StateLog:   stateLog,
				LastOutput: lastOutput,
			}, err
		}
		metrics.FSMTransitions.WithLabelValues(string(prevState), string(state)).Inc()
		prevState = state
		stateLog = append(stateLog, state)
		lastOutput = res.Output

		if state == PolicyCheck && res.PolicyPassed != nil && !*res.PolicyPassed {
			return RunOutcome{
				FinalState: Escalate,
				Checkpoint: Checkpoint{ProcessType: template.ProcessType, StateIndex: idx + 1, CompletedSteps: stateLog, RequiresHITL: true},
				StateLog:   stateLog,
				LastOutput: lastOutput,
			}, nil
		}

		if state == Mutate && res.ReopenApprovalGate && template.RequiresReopenGate {
			gateIdx := canonicalIndex(ApprovalGate)
			mutateIdx := canonicalIndex(Mutate)
			if gateIdx >= 0 && mutateIdx >= 0 {
				// Reopen: resume at APPROVAL_GATE's position in the template's
				// own sequence, not the canonical index, so idx stays valid.
				for i, s := range states {
					if s == ApprovalGate {
						idx = i
						break
					}
				}
				continue
			}
		}

		idx++
	}

	return RunOutcome{
		FinalState: Complete,
		Checkpoint: Checkpoint{ProcessType: template.ProcessType, StateIndex: idx, CompletedSteps: stateLog, RequiresHITL: false},
		StateLog:   stateLog,
		LastOutput: lastOutput,
	}, nil
}

func contains(states []State, target State) bool {
	for _, s := range states {
		if s == target {
			return true
		}
	}
	return false
}
