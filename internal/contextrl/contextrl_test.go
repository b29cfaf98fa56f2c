package contextrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidence_DefaultsWithNoSamples(t *testing.T) {
	tr := New()
	assert.Equal(t, defaultConfidence, tr.Confidence("invoice_approval", "variance_threshold"))
}

func TestConfidence_LifetimeRatioBelowMinSamples(t *testing.T) {
	tr := New()
	tr.RecordOutcome("invoice_approval", "variance_threshold", true)
	tr.RecordOutcome("invoice_approval", "variance_threshold", false)
	assert.InDelta(t, 0.5, tr.Confidence("invoice_approval", "variance_threshold"), 1e-9)
}

func TestConfidence_RollingWindowOnceEnoughSamples(t *testing.T) {
	tr := New()
	for i := 0; i < 3; i++ {
		tr.RecordOutcome("invoice_approval", "variance_threshold", true)
	}
	assert.InDelta(t, 1.0, tr.Confidence("invoice_approval", "variance_threshold"), 1e-9)
}

func TestShouldInject_SuppressedBelowFloor(t *testing.T) {
	tr := New()
	for i := 0; i < 5; i++ {
		tr.RecordOutcome("p", "c", false)
	}
	assert.False(t, tr.ShouldInject("p", "c"))
}

func TestDriftWarning_FiresWhenRecentAccuracyLow(t *testing.T) {
	tr := New()
	for i := 0; i < 5; i++ {
		tr.RecordOutcome("p", "c", false)
	}
	_, drifted := tr.DriftWarning("p", "c")
	assert.True(t, drifted)
}

func TestDriftWarning_NoWarningWithTooFewSamples(t *testing.T) {
	tr := New()
	tr.RecordOutcome("p", "c", false)
	_, drifted := tr.DriftWarning("p", "c")
	assert.False(t, drifted)
}
