package worker

import (
	"context"
	"time"

	"github.com/procweave/orchestrator/internal/budget"
	"github.com/procweave/orchestrator/internal/knowledge"
	"github.com/procweave/orchestrator/internal/metrics"
	"github.com/procweave/orchestrator/internal/rl"
	"github.com/procweave/orchestrator/internal/session"
	"github.com/procweave/orchestrator/internal/util"
)

const compressDeadline = 15 * time.Second

// reflect runs REFLECT's best-effort bookkeeping: checkpoint save, async
// session-summary compression, case-log record, bandit/context-RL feedback,
// and knowledge/entity extraction. It always returns the final, footer-
// formatted answer even if every side channel below it fails.
func (w *Worker) reflect(ctx context.Context, in TaskInput, sess *session.Session, p *primeResult, exec *executeResult, start time.Time) string {
	duration := time.Since(start)
	metrics.TokenBudgetUsageRatio.Observe(exec.budgetRatio)

	sess.Checkpoint = exec.checkpoint
	sess.RecordTurn(in.Text, exec.answer)

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), compressDeadline)
		defer cancel()
		session.CompressAsync(bgCtx, w.LLM, sess)
	}()

	policyProvided := p.policyResult != nil
	policyPassed := exec.policyPassed == nil || *exec.policyPassed

	answerScore := rl.AnswerScore(exec.answer, 200, 2000)
	toolScore := rl.ToolScore(exec.toolCallCount)
	policyScore := rl.PolicyScore(policyProvided, policyPassed)
	quality := rl.ComputeQuality(exec.answer, rl.QualityInputs{
		AnswerScore: answerScore, ToolScore: toolScore, PolicyScore: policyScore,
	})

	outcome := rl.OutcomeSuccess
	if policyProvided && !policyPassed {
		outcome = rl.OutcomeFailure
	} else if quality < 0.5 {
		outcome = rl.OutcomePartial
	}

	w.CaseLog.Record(rl.Entry{
		TaskSummary: summarize(in.Text),
		Keywords:    rl.Tokenize(in.Text),
		Outcome:     outcome,
		Quality:     quality,
		ToolCount:   exec.toolCallCount,
		Domain:      p.processType,
		Timestamp:   time.Now(),
	})

	w.Bandit.RecordOutcome(p.processType, exec.arm, quality)

	contextType := "finance_precompute"
	w.ContextRL.RecordOutcome(p.processType, contextType, quality >= 0.5)

	if quality >= 0.5 {
		w.Knowledge.Extract(knowledge.Fact{
			Domain:        p.processType,
			Keywords:      rl.Tokenize(in.Text),
			Text:          summarize(exec.answer),
			SourceQuality: quality,
			Timestamp:     time.Now(),
		})
	}
	w.Entities.RecordTaskEntities(in.Text + "\n" + exec.answer)

	return budget.FormatFinalAnswer(exec.answer, budget.FinalAnswerMeta{
		ProcessName:     p.processType,
		PolicyCompliant: exec.policyPassed,
		Quality:         quality,
		DurationMS:      duration.Milliseconds(),
	})
}

func summarize(text string) string {
	const maxLen = 160
	return util.TruncateString(text, maxLen, true)
}
