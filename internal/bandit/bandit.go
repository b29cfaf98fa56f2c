// Package bandit implements a UCB1 multi-armed bandit over the three
// execution strategies, one independent bandit per process type.
package bandit

import (
	"math"
	"sync"

	"github.com/procweave/orchestrator/internal/metrics"
)

// Arm names one of the three interchangeable execution strategies.
type Arm string

const (
	ArmFSM       Arm = "fsm"
	ArmFivePhase Arm = "five_phase"
	ArmMoA       Arm = "moa"
)

var allArms = []Arm{ArmFSM, ArmFivePhase, ArmMoA}

// ArmStats is the persisted per-arm state.
type ArmStats struct {
	PullCount  int     `json:"pull_count"`
	MeanReward float64 `json:"mean_reward"`
}

// ProcessBandit holds the three arms for one process type.
type ProcessBandit map[Arm]ArmStats

// State is the full persisted bandit state, keyed by process type.
type State map[string]ProcessBandit

// Bandit wraps a State with selection/update logic and a lock for
// concurrent access across tasks of different process types.
type Bandit struct {
	mu    sync.Mutex
	state State
}

// New wraps an existing (possibly empty) persisted state.
func New(initial State) *Bandit {
	if initial == nil {
		initial = State{}
	}
	return &Bandit{state: initial}
}

// Select picks the arm to run for processType using UCB1, with the
// documented cold-start default of "fsm" for the first task of a process
// type (all arms at n=0 tie at +Inf; fsm breaks the tie deterministically).
func (b *Bandit) Select(processType string) Arm {
	b.mu.Lock()
	defer b.mu.Unlock()

	pb, ok := b.state[processType]
	if !ok {
		metrics.BanditPulls.WithLabelValues(processType, string(ArmFSM)).Inc()
		return ArmFSM
	}

	total := 0
	for _, a := range allArms {
		total += pb[a].PullCount
	}

	bestArm := ArmFSM
	bestScore := math.Inf(-1)
	for _, a := range allArms {
		stats := pb[a]
		var score float64
		if stats.PullCount == 0 {
			score = math.Inf(1)
		} else {
			score = stats.MeanReward + math.Sqrt(2)*math.Sqrt(math.Log(float64(total))/float64(stats.PullCount))
		}
		if score > bestScore {
			bestScore = score
			bestArm = a
		}
	}
	metrics.BanditPulls.WithLabelValues(processType, string(bestArm)).Inc()
	return bestArm
}

// RecordOutcome updates the chosen arm's running mean with reward via the
// incremental-mean update rule.
func (b *Bandit) RecordOutcome(processType string, arm Arm, reward float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pb, ok := b.state[processType]
	if !ok {
		pb = ProcessBandit{}
	}
	stats := pb[arm]
	stats.PullCount++
	stats.MeanReward = stats.MeanReward + (reward-stats.MeanReward)/float64(stats.PullCount)
	pb[arm] = stats
	b.state[processType] = pb
}

// Snapshot returns a copy of the current state, suitable for persistence.
func (b *Bandit) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(State, len(b.state))
	for pt, pb := range b.state {
		cp := make(ProcessBandit, len(pb))
		for a, s := range pb {
			cp[a] = s
		}
		out[pt] = cp
	}
	return out
}

// Stats returns a per-process-type, per-arm view for the health endpoint.
func (b *Bandit) Stats() State {
	return b.Snapshot()
}
