// Package budget tracks per-task character consumption and picks the model
// tier and output-token cap for the current FSM state.
package budget

import (
	"fmt"
	"strings"
	"sync"

	"github.com/procweave/orchestrator/internal/bracketfmt"
)

// ModelTier names a model cost tier. "skip" is a sentinel meaning the task
// has exhausted its budget and should stop calling any model at all.
type ModelTier string

const (
	TierFast ModelTier = "fast"
	TierStrong ModelTier = "strong"
	TierSkip   ModelTier = "skip"
)

// FSMState names an FSM state, duplicated here (rather than importing the
// fsm package) to keep TokenBudget a leaf dependency with no upward edges.
type FSMState string

const (
	StateDecompose      FSMState = "DECOMPOSE"
	StateAssess         FSMState = "ASSESS"
	StateCompute        FSMState = "COMPUTE"
	StatePolicyCheck    FSMState = "POLICY_CHECK"
	StateApprovalGate   FSMState = "APPROVAL_GATE"
	StateMutate         FSMState = "MUTATE"
	StateScheduleNotify FSMState = "SCHEDULE_NOTIFY"
	// StateScheduleNotifyReading is the read-only sub-phase of SCHEDULE_NOTIFY
	// (gathering recipients/content before the notify call itself).
	StateScheduleNotifyReading FSMState = "SCHEDULE_NOTIFY_reading_phase"
	StateComplete       FSMState = "COMPLETE"
	StateEscalate       FSMState = "ESCALATE"
	StateFailed         FSMState = "FAILED"
)

const charBudget = 40_000

var analyticalKeywords = []string{
	"reconcile", "root cause", "diagnose", "forecast", "synthesise",
	"cross-reference", "correlate", "investigate",
}

// TokenBudget tracks character consumption for a single task. Not shared
// across tasks or goroutines beyond the one that owns the task.
type TokenBudget struct {
	mu            sync.Mutex
	charsConsumed int
	charBudget    int
	taskText      string
}

// New creates a budget for one task, given the full task text (used to
// detect analytical keywords for model-tier selection).
func New(taskText string) *TokenBudget {
	return &TokenBudget{charBudget: charBudget, taskText: taskText}
}

// Record adds len(text) to the running character count.
func (b *TokenBudget) Record(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.charsConsumed += len(text)
}

// UsageRatio returns the fraction of the budget consumed so far.
func (b *TokenBudget) UsageRatio() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.charsConsumed) / float64(b.charBudget)
}

// GetModel selects the model tier for the given FSM state.
func (b *TokenBudget) GetModel(state FSMState) ModelTier {
	ratio := b.UsageRatio()
	if ratio >= 1.0 {
		return TierSkip
	}
	if ratio > 0.8 {
		return TierFast
	}
	if state == StateMutate {
		return TierStrong
	}
	if state == StateCompute && b.hasAnalyticalKeyword() {
		return TierStrong
	}
	return TierFast
}

func (b *TokenBudget) hasAnalyticalKeyword() bool {
	lower := strings.ToLower(b.taskText)
	for _, kw := range analyticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MaxTokensCap scales the output-token cap inversely with remaining budget.
func (b *TokenBudget) MaxTokensCap() int {
	ratio := b.UsageRatio()
	remaining := 1 - ratio
	if remaining <= 0 {
		return 256
	}
	cap := int(256 + remaining*(4096-256))
	if cap < 256 {
		return 256
	}
	if cap > 4096 {
		return 4096
	}
	return cap
}

// FinalAnswerMeta carries the fields rendered into the answer footer.
type FinalAnswerMeta struct {
	ProcessName     string
	PolicyCompliant *bool // nil => N/A
	Quality         float64
	DurationMS      int64
}

// FormatFinalAnswer appends the metadata footer to an answer, unless the
// answer is itself bracket-format (exact-match scoring must be preserved).
func FormatFinalAnswer(answer string, meta FinalAnswerMeta) string {
	if bracketfmt.IsBracketFormat(answer) {
		return answer
	}

	policyStr := "N/A"
	if meta.PolicyCompliant != nil {
		if *meta.PolicyCompliant {
			policyStr = "PASSED"
		} else {
			policyStr = "FAILED"
		}
	}

	footer := fmt.Sprintf(
		"\n\n---\nProcess: %s\nPolicy: %s\nQuality: %.2f\nDuration: %dms",
		meta.ProcessName, policyStr, meta.Quality, meta.DurationMS,
	)
	return answer + footer
}
