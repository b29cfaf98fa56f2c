package strategy

import "github.com/procweave/orchestrator/internal/bandit"

// ForArm returns the Strategy implementation for a bandit arm name.
func ForArm(arm bandit.Arm) Strategy {
	switch arm {
	case bandit.ArmFivePhase:
		return FivePhaseStrategy{}
	case bandit.ArmMoA:
		return MoAStrategy{}
	default:
		return FSMStrategy{}
	}
}
