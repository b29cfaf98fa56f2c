package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procweave/orchestrator/internal/llm"
)

type stubClient struct {
	responses []string
	i         int
}

func (s *stubClient) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	r := s.responses[s.i%len(s.responses)]
	s.i++
	return r, nil
}

func (s *stubClient) CompleteWithTools(ctx context.Context, req llm.CompletionRequest, tools []llm.ToolSchema) (llm.Completion, error) {
	text, err := s.Complete(ctx, req)
	return llm.Completion{Text: text}, err
}

func TestComputeAudit_NoErrorFound(t *testing.T) {
	c := &stubClient{responses: []string{"OK"}}
	out, corrected := ComputeAudit(context.Background(), c, "2 + 2 = 4")
	assert.Equal(t, "2 + 2 = 4", out)
	assert.False(t, corrected)
}

func TestComputeAudit_CorrectsOnError(t *testing.T) {
	c := &stubClient{responses: []string{"ERROR: 2+2 is not 5", "2 + 2 = 4"}}
	out, corrected := ComputeAudit(context.Background(), c, "2 + 2 = 5")
	assert.Equal(t, "2 + 2 = 4", out)
	assert.True(t, corrected)
}

func TestScore_PolicyViolationZeroesPolicyTerm(t *testing.T) {
	s := Score(ReflectionInputs{Completeness: 1, PolicyProvided: true, PolicyCompliant: false, ToolCoverage: 1})
	assert.InDelta(t, 0.7, s, 1e-9)
}

func TestReflect_BypassedForBracketFormat(t *testing.T) {
	c := &stubClient{responses: []string{"should not be called"}}
	answer := `["a","b"]`
	out, score := Reflect(context.Background(), c, answer, ReflectionInputs{})
	assert.Equal(t, answer, out)
	assert.Less(t, score, reflectionThreshold)
}

func TestReflect_ImprovesLowScore(t *testing.T) {
	c := &stubClient{responses: []string{"improved answer text"}}
	out, score := Reflect(context.Background(), c, "short", ReflectionInputs{Completeness: 0.1})
	assert.Equal(t, "improved answer text", out)
	assert.Less(t, score, reflectionThreshold)
}

func TestNumericMoA_ConsensusNoAppend(t *testing.T) {
	c := &stubClient{responses: []string{"the answer is 42", "the answer is 42"}}
	out, appended := NumericMoA(context.Background(), c, "the answer is 42")
	assert.False(t, appended)
	assert.Empty(t, out)
}

func TestJaccard_Identical(t *testing.T) {
	assert.Equal(t, 1.0, jaccard("a b c", "a b c"))
}

func TestPureReasoningMoA_ConsensusTakesLonger(t *testing.T) {
	c := &stubClient{responses: []string{
		"the cat sat on the mat today",
		"the cat sat on the mat today quietly",
	}}
	out, ok := PureReasoningMoA(context.Background(), c, "explain x")
	assert.True(t, ok)
	assert.Equal(t, "the cat sat on the mat today quietly", out)
}
