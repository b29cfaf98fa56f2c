// Package verify implements the post-execution audit passes: a compute
// arithmetic audit, self-reflection scoring, and mixture-of-agents
// consensus synthesis.
package verify

import (
	"context"
	"strings"

	"github.com/procweave/orchestrator/internal/bracketfmt"
	"github.com/procweave/orchestrator/internal/llm"
)

// ComputeAudit runs a fast-LLM arithmetic audit on answer. If the audit
// flags an error it runs one strong-LLM correction pass and returns the
// corrected text; it never retries more than once regardless of outcome.
func ComputeAudit(ctx context.Context, client llm.Client, answer string) (string, bool) {
	if client == nil {
		return answer, false
	}
	auditPrompt := "Audit the arithmetic in this answer. Reply with exactly \"OK\" if all " +
		"numbers and computations are correct, or \"ERROR: <what's wrong>\" otherwise.\n\n" + answer
	auditResp, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: auditPrompt, MaxTokens: 128})
	if err != nil {
		return answer, false
	}
	if strings.HasPrefix(strings.TrimSpace(auditResp), "OK") {
		return answer, false
	}

	correctionPrompt := "The following answer has an arithmetic error: " + auditResp +
		"\n\nOriginal answer:\n" + answer + "\n\nProduce a corrected version preserving everything else."
	corrected, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierStrong, Prompt: correctionPrompt, MaxTokens: 1024})
	if err != nil || strings.TrimSpace(corrected) == "" {
		return answer, true
	}
	return corrected, true
}

// ReflectionInputs are the signals SelfReflection scores against.
type ReflectionInputs struct {
	Completeness    float64 // 0-1, how much of the task was addressed
	PolicyCompliant bool
	PolicyProvided  bool
	ToolCoverage    float64 // 0-1, fraction of plausibly-needed tools actually called
}

const reflectionThreshold = 0.65

// Score combines the three reflection signals into a single 0-1 score.
func Score(in ReflectionInputs) float64 {
	policyScore := 1.0
	if in.PolicyProvided && !in.PolicyCompliant {
		policyScore = 0.0
	} else if !in.PolicyProvided {
		policyScore = 0.5
	}
	return 0.4*in.Completeness + 0.3*policyScore + 0.3*in.ToolCoverage
}

// Reflect scores answer and, if below threshold and the answer is not
// bracket-format, runs one improvement pass with the fast LLM.
func Reflect(ctx context.Context, client llm.Client, answer string, in ReflectionInputs) (string, float64) {
	score := Score(in)
	if score >= reflectionThreshold || bracketfmt.IsBracketFormat(answer) || client == nil {
		return answer, score
	}

	prompt := "This answer scored low on completeness/policy/tool-coverage review. " +
		"Improve it, addressing any gaps, while keeping its factual content:\n\n" + answer
	improved, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: prompt, MaxTokens: 1024})
	if err != nil || strings.TrimSpace(improved) == "" {
		return answer, score
	}
	return improved, score
}
