package verify

import (
	"context"
	"strings"

	"github.com/procweave/orchestrator/internal/bracketfmt"
	"github.com/procweave/orchestrator/internal/llm"
)

// MissingFields reports which of requiredFields have no substring presence
// (underscore-to-space normalised) in answer. Bracket-format answers are
// exact-match targets and are never flagged. Grounded on
// original_source/output_validator.py's validate_output, simplified to the
// field-name-only schema fsm.Template.RequiredOutputFields carries, rather
// than that file's per-field keyword-pattern lists.
func MissingFields(answer string, requiredFields []string) []string {
	if bracketfmt.IsBracketFormat(answer) {
		return nil
	}
	lower := strings.ToLower(answer)
	var missing []string
	for _, f := range requiredFields {
		needle := strings.ToLower(strings.ReplaceAll(f, "_", " "))
		if strings.Contains(lower, needle) || strings.Contains(lower, strings.ToLower(f)) {
			continue
		}
		missing = append(missing, f)
	}
	return missing
}

// FillMissingFields runs one fast-LLM improvement pass asking the model to
// add the missing required fields, mirroring
// output_validator.py's get_missing_fields_prompt plus worker_brain.py's
// follow-up completion call. Never retries more than once.
func FillMissingFields(ctx context.Context, client llm.Client, answer, processType string, missing []string) (string, bool) {
	if client == nil || len(missing) == 0 {
		return answer, false
	}
	label := strings.ReplaceAll(processType, "_", " ")
	prompt := "Your " + label + " answer is missing required fields: " + strings.Join(missing, ", ") +
		". Add them now, keeping everything else:\n\n" + answer
	improved, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: prompt, MaxTokens: 1024})
	if err != nil || strings.TrimSpace(improved) == "" {
		return answer, false
	}
	return improved, true
}
