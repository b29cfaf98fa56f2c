package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetModel_MutateAlwaysStrong(t *testing.T) {
	b := New("update the record")
	assert.Equal(t, TierStrong, b.GetModel(StateMutate))
}

func TestGetModel_ComputeAnalyticalKeyword(t *testing.T) {
	b := New("please reconcile the ledger")
	assert.Equal(t, TierStrong, b.GetModel(StateCompute))
}

func TestGetModel_ComputeWithoutKeywordIsFast(t *testing.T) {
	b := New("what is 2 plus 2")
	assert.Equal(t, TierFast, b.GetModel(StateCompute))
}

func TestGetModel_OverBudgetForcesFast(t *testing.T) {
	b := New("reconcile")
	b.Record(string(make([]byte, 35_000)))
	assert.Equal(t, TierFast, b.GetModel(StateMutate))
}

func TestGetModel_SkipAtFullBudget(t *testing.T) {
	b := New("reconcile")
	b.Record(string(make([]byte, 40_000)))
	assert.Equal(t, TierSkip, b.GetModel(StateAssess))
}

func TestFormatFinalAnswer_OmittedForBracketFormat(t *testing.T) {
	answer := `["a", "b"]`
	passed := true
	out := FormatFinalAnswer(answer, FinalAnswerMeta{ProcessName: "x", PolicyCompliant: &passed, Quality: 1, DurationMS: 5})
	assert.Equal(t, answer, out)
}

func TestFormatFinalAnswer_AppendsFooter(t *testing.T) {
	passed := false
	out := FormatFinalAnswer("the answer", FinalAnswerMeta{ProcessName: "invoice_approval", PolicyCompliant: &passed, Quality: 0.5, DurationMS: 120})
	assert.Contains(t, out, "Process: invoice_approval")
	assert.Contains(t, out, "Policy: FAILED")
	assert.Contains(t, out, "Quality: 0.50")
	assert.Contains(t, out, "Duration: 120ms")
}
