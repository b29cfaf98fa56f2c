package rl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_CapsAt200(t *testing.T) {
	c := New(nil)
	for i := 0; i < 250; i++ {
		c.Record(Entry{TaskSummary: "x", Outcome: OutcomeSuccess, Quality: 0.9, Timestamp: time.Now()})
	}
	assert.LessOrEqual(t, len(c.Snapshot()), 200)
}

func TestPrune_DropsLowQualityFailures(t *testing.T) {
	entries := []Entry{
		{TaskSummary: "a", Outcome: OutcomeFailure, Quality: 0.1, Timestamp: time.Now()},
		{TaskSummary: "b", Outcome: OutcomeSuccess, Quality: 0.9, Timestamp: time.Now()},
	}
	pruned := Prune(entries)
	assert.Len(t, pruned, 1)
	assert.Equal(t, "b", pruned[0].TaskSummary)
}

func TestPrune_DropsStaleEntries(t *testing.T) {
	entries := []Entry{
		{TaskSummary: "old", Outcome: OutcomeSuccess, Quality: 0.9, Timestamp: time.Now().Add(-100 * time.Hour)},
		{TaskSummary: "fresh1", Outcome: OutcomeSuccess, Quality: 0.9, Timestamp: time.Now()},
		{TaskSummary: "fresh2", Outcome: OutcomeSuccess, Quality: 0.9, Timestamp: time.Now()},
	}
	pruned := Prune(entries)
	assert.Len(t, pruned, 2)
	for _, e := range pruned {
		assert.NotEqual(t, "old", e.TaskSummary)
	}
}

func TestComputeQuality_BracketFormatAlwaysOne(t *testing.T) {
	q := ComputeQuality(`["a","b"]`, QualityInputs{AnswerScore: 0, ToolScore: 0, PolicyScore: 0})
	assert.Equal(t, 1.0, q)
}

func TestBuildPrimer_TopThreeByOverlap(t *testing.T) {
	c := New([]Entry{
		{TaskSummary: "invoice variance check", Keywords: []string{"invoice", "variance", "check"}, Outcome: OutcomeSuccess, Timestamp: time.Now()},
		{TaskSummary: "unrelated hr task", Keywords: []string{"hr", "offboarding"}, Outcome: OutcomeSuccess, Timestamp: time.Now()},
	})
	primer := c.BuildPrimer("check invoice variance against policy")
	assert.NotEmpty(t, primer)
	assert.Contains(t, primer[0], "invoice variance check")
}
