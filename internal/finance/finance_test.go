package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCentsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(10050), ToCents(100.50))
	assert.Equal(t, 100.50, ToDollars(10050))
}

func TestCheckVariance(t *testing.T) {
	v := CheckVariance(51200, 52340, 2)
	assert.True(t, v.Exceeds)
	assert.InDelta(t, 2.226, v.PctDiff, 0.01)
}

func TestApplySubLimit(t *testing.T) {
	payable, capped := ApplySubLimit(500, 300)
	assert.True(t, capped)
	assert.Equal(t, 300.0, payable)
}

func TestLoanAmortizationSchedule_EndsAtZero(t *testing.T) {
	rows := LoanAmortizationSchedule(10000, 6, 12)
	assert.Len(t, rows, 12)
	assert.Equal(t, 0.0, rows[len(rows)-1].BalanceDollars)
}

func TestStraightLineDepreciationSchedule(t *testing.T) {
	rows := StraightLineDepreciationSchedule(1000, 100, 9)
	assert.Len(t, rows, 9)
	assert.InDelta(t, 100.0, rows[len(rows)-1].BookValueDollars, 0.01)
}
