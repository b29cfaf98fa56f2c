package verify

import (
	"context"
	"strings"

	"github.com/procweave/orchestrator/internal/llm"
	"github.com/procweave/orchestrator/internal/util"
)

const consensusThreshold = 0.70

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()[]\"'")
		if w != "" {
			out[w] = true
		}
	}
	return out
}

func jaccard(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1.0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// NumericMoA runs the two-temperature verify/challenge pass for tool-result
// tasks and returns the consensus text with true only if the resulting number
// differs from the execution answer's number; otherwise it returns "", false.
func NumericMoA(ctx context.Context, client llm.Client, executionAnswer string) (string, bool) {
	if client == nil {
		return "", false
	}
	verifyResp, err1 := client.Complete(ctx, llm.CompletionRequest{
		Tier: llm.TierFast, Temperature: 0.2,
		Prompt: "Verify this numeric answer is correct, restate the final number:\n" + executionAnswer,
	})
	challengeResp, err2 := client.Complete(ctx, llm.CompletionRequest{
		Tier: llm.TierFast, Temperature: 0.9,
		Prompt: "Challenge this numeric answer for errors, restate the final number you believe is correct:\n" + executionAnswer,
	})
	if err1 != nil || err2 != nil {
		return "", false
	}

	final := verifyResp
	if jaccard(verifyResp, challengeResp) < consensusThreshold {
		synthesis, err := client.Complete(ctx, llm.CompletionRequest{
			Tier: llm.TierStrong,
			Prompt: "Two reviewers disagree on this numeric answer.\nReviewer A: " + verifyResp +
				"\nReviewer B: " + challengeResp + "\nOriginal: " + executionAnswer +
				"\nResolve the disagreement and state the correct final number.",
		})
		if err == nil && strings.TrimSpace(synthesis) != "" {
			final = synthesis
		}
	}

	finalVal, finalOK := util.ParseNumericValue(final)
	if finalOK {
		execVal, execOK := util.ParseNumericValue(executionAnswer)
		if !execOK || finalVal != execVal {
			return final, true
		}
	}
	return "", false
}

// PureReasoningMoA runs the two-top_p pass for tool_count==0 tasks,
// returning the longer response on consensus or a synthesis on divergence.
func PureReasoningMoA(ctx context.Context, client llm.Client, prompt string) (string, bool) {
	if client == nil {
		return "", false
	}
	respA, err1 := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, TopP: 0.85, Prompt: prompt})
	respB, err2 := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, TopP: 0.99, Prompt: prompt})
	if err1 != nil || err2 != nil {
		return "", false
	}

	if jaccard(respA, respB) >= consensusThreshold {
		if len(respB) > len(respA) {
			return respB, true
		}
		return respA, true
	}

	synthesis, err := client.Complete(ctx, llm.CompletionRequest{
		Tier: llm.TierStrong,
		Prompt: "Two independent reasoning passes diverged.\nPass A: " + respA + "\nPass B: " + respB +
			"\nSynthesise the best single answer.",
	})
	if err != nil || strings.TrimSpace(synthesis) == "" {
		return respA, true
	}
	return synthesis, true
}
