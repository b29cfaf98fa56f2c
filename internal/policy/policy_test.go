package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_NoDocument(t *testing.T) {
	res, err := Evaluate("")
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, EscalationNone, res.EscalationLevel)
}

func TestEvaluate_VarianceBreach(t *testing.T) {
	doc := `{"rules":[{"id":"V1","condition":"variance > 2","action":"block"}], "context":{"variance":2.23}}`
	res, err := Evaluate(doc)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"V1"}, res.TriggeredRuleIDs)
}

func TestEvaluate_MalformedDocument(t *testing.T) {
	_, err := Evaluate("{not json")
	require.Error(t, err)
	var invalid *InvalidPolicyError
	assert.ErrorAs(t, err, &invalid)
}

func TestEvaluate_UnknownIdentifierIsFalse(t *testing.T) {
	doc := `{"rules":[{"id":"R1","condition":"missing_field && true","action":"block"}], "context":{}}`
	res, err := Evaluate(doc)
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Empty(t, res.TriggeredRuleIDs)
}

func TestEvaluate_StrictEquality(t *testing.T) {
	doc := `{"rules":[{"id":"R1","condition":"status === \"open\"","action":"require_approval"}], "context":{"status":"open"}}`
	res, err := Evaluate(doc)
	require.NoError(t, err)
	assert.True(t, res.RequiresApproval)
	assert.Contains(t, res.TriggeredRuleIDs, "R1")
}

func TestEvaluate_NegationAndConnectives(t *testing.T) {
	doc := `{"rules":[{"id":"R1","condition":"!approved && amount > 1000","action":"block","level":"finance"}], "context":{"approved":false,"amount":1500}}`
	res, err := Evaluate(doc)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, EscalationFinance, res.EscalationLevel)
}

func TestEvaluate_EscalationPicksHighest(t *testing.T) {
	doc := `{"rules":[
		{"id":"R1","condition":"a","action":"require_approval","level":"manager"},
		{"id":"R2","condition":"b","action":"require_approval","level":"legal"}
	], "context":{"a":true,"b":true}}`
	res, err := Evaluate(doc)
	require.NoError(t, err)
	assert.Equal(t, EscalationLegal, res.EscalationLevel)
}
