package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/llm"
)

// synthesisSchema is what the fast LLM is asked to return for a novel
// process type: a subset of the 8 canonical states plus instructions.
type synthesisSchema struct {
	States       []string          `json:"states"`
	Instructions map[string]string `json:"instructions"`
}

// Synthesise produces a Template for processTypeName, called at most once
// per novel name; the caller is responsible for caching the result.
func Synthesise(ctx context.Context, client llm.Client, processTypeName, taskText string) (*fsm.Template, error) {
	var states []fsm.State
	var instructions map[string]string

	if client != nil {
		prompt := fmt.Sprintf(
			"A business process named %q is not in our known template list. Given this example task:\n%s\n\n"+
				"Reply with JSON {\"states\": [subset of DECOMPOSE, ASSESS, COMPUTE, POLICY_CHECK, APPROVAL_GATE, MUTATE, SCHEDULE_NOTIFY, COMPLETE, in that order], "+
				"\"instructions\": {state: one-sentence instruction}}.",
			processTypeName, taskText,
		)
		resp, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: prompt, MaxTokens: 512})
		if err == nil {
			var parsed synthesisSchema
			if jerr := json.Unmarshal([]byte(extractJSON(resp)), &parsed); jerr == nil {
				for _, s := range parsed.States {
					states = append(states, fsm.State(strings.ToUpper(strings.TrimSpace(s))))
				}
				instructions = parsed.Instructions
			}
		}
	}

	if len(states) == 0 || !fsm.IsValidSubsequence(states) {
		// LLM unavailable, malformed, or produced an invalid sequence: fall
		// back to the full canonical sequence, the safest default.
		states = append([]fsm.State{}, fsm.CanonicalOrder...)
		instructions = nil
	}

	instrByState := map[fsm.State]string{}
	for k, v := range instructions {
		instrByState[fsm.State(strings.ToUpper(k))] = v
	}
	for _, s := range states {
		if instrByState[s] == "" {
			instrByState[s] = fmt.Sprintf("Perform the %s step for this %s task.", s, processTypeName)
		}
	}

	return &fsm.Template{
		ProcessType:  processTypeName,
		States:       states,
		Instructions: instrByState,
	}, nil
}

// extractJSON trims any leading/trailing prose the LLM added around the
// JSON object, taking the substring between the first '{' and last '}'.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "{}"
	}
	return s[start : end+1]
}
