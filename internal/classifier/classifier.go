// Package classifier maps task text to a process-type name, via a fast-LLM
// call with a keyword-table fallback, and synthesises templates for novel
// process types.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/llm"
)

const classifyTimeout = 2 * time.Second

// keywordTable is the deterministic fallback used on LLM timeout/error.
var keywordTable = map[string][]string{
	"invoice_approval":       {"invoice", "variance", "po ", "purchase order approv"},
	"purchase_order":         {"purchase order", "requisition", "buy "},
	"expense_reimbursement":  {"expense", "reimburse", "receipt"},
	"vendor_onboarding":      {"vendor onboard", "new vendor", "supplier onboard"},
	"hr_offboarding":         {"offboard", "terminate employee", "exit employee"},
	"hr_onboarding":          {"onboard employee", "new hire", "new employee"},
	"contract_renewal":       {"contract renew", "renewal term"},
	"sla_credit_review":      {"sla credit", "sla breach", "uptime credit"},
	"refund_processing":      {"refund"},
	"access_revocation":      {"revoke access", "deprovision"},
	"payroll_adjustment":     {"payroll adjust", "retro pay", "salary correction"},
	"lease_termination":      {"lease terminat", "early termination"},
	"compliance_audit":       {"audit", "compliance review"},
	"order_fulfillment":      {"fulfill", "ship order", "order status"},
}

// Classify determines the process type for taskText. It calls the fast LLM
// client, enumerating the known built-in names, and falls back to the
// keyword table on timeout or error.
func Classify(ctx context.Context, client llm.Client, taskText string) string {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Classify this task into exactly one of: %s, or \"general\" if none fit.\nTask: %s\nRespond with only the process type name.",
		strings.Join(fsm.BuiltinNames(), ", "), taskText,
	)

	if client != nil {
		resp, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: prompt, MaxTokens: 32})
		if err == nil {
			name := normalizeCandidate(resp)
			if _, ok := fsm.BuiltinTemplate(name); ok {
				return name
			}
			if name != "" {
				return name // novel name, handled by synthesiser
			}
		}
	}

	return keywordFallback(taskText)
}

func normalizeCandidate(resp string) string {
	return strings.ToLower(strings.TrimSpace(resp))
}

func keywordFallback(taskText string) string {
	lower := strings.ToLower(taskText)
	for name, keywords := range keywordTable {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return name
			}
		}
	}
	return "general"
}
