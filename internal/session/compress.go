package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/procweave/orchestrator/internal/llm"
)

const compressionTimeout = 15 * 1000 // documented ms value, see CompressAsync

// CompressAsync folds the session's turn history into a running summary
// string using the fast LLM. Fire-and-forget per the REFLECT phase's
// "abandoned without reporting an error" contract: the caller should run
// this in its own goroutine with a 15-second deadline and ignore failures.
func CompressAsync(ctx context.Context, client llm.Client, s *Session) {
	unlock := s.Lock()
	turns := append([]Turn{}, s.Turns...)
	prevSummary := s.Summary
	unlock()

	if client == nil || len(turns) == 0 {
		return
	}

	var sb strings.Builder
	if prevSummary != "" {
		sb.WriteString("Prior summary: ")
		sb.WriteString(prevSummary)
		sb.WriteString("\n")
	}
	for _, t := range turns {
		sb.WriteString(fmt.Sprintf("Task: %s\nAnswer: %s\n", t.TaskText, t.Answer))
	}

	prompt := "Compress this session history into a concise running summary " +
		"(a few sentences, preserving entity names and decisions):\n\n" + sb.String()
	summary, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: prompt, MaxTokens: 256})
	if err != nil || strings.TrimSpace(summary) == "" {
		return
	}

	unlock = s.Lock()
	s.Summary = summary
	unlock()
}
