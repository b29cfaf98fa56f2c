package bandit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect_ColdStartDefaultsToFSM(t *testing.T) {
	b := New(nil)
	assert.Equal(t, ArmFSM, b.Select("invoice_approval"))
}

func TestRecordOutcome_MeanReward(t *testing.T) {
	b := New(nil)
	b.RecordOutcome("x", ArmFSM, 1.0)
	b.RecordOutcome("x", ArmFSM, 0.0)
	stats := b.Snapshot()["x"][ArmFSM]
	assert.Equal(t, 2, stats.PullCount)
	assert.InDelta(t, 0.5, stats.MeanReward, 1e-9)
}

func TestSelect_ConvergesToHigherRewardArm(t *testing.T) {
	b := New(nil)
	for i := 0; i < 30; i++ {
		arm := b.Select("x")
		var reward float64
		switch arm {
		case ArmFSM:
			reward = 0.8
		case ArmFivePhase:
			reward = 0.6
		case ArmMoA:
			reward = 0.4
		}
		b.RecordOutcome("x", arm, reward)
	}
	snap := b.Snapshot()["x"]
	assert.Greater(t, snap[ArmFSM].PullCount, snap[ArmFivePhase].PullCount)
	assert.Greater(t, snap[ArmFivePhase].PullCount, snap[ArmMoA].PullCount)
}
