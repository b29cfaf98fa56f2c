package verify

import (
	"fmt"
	"strings"
)

// ApprovalContext carries the policy-evaluation facts BuildApprovalBrief
// needs, kept independent of the policy package's types so verify stays a
// leaf dependency with no upward edges.
type ApprovalContext struct {
	Provided         bool
	Passed           bool
	TriggeredRuleIDs []string
	EscalationLevel  string
}

// BuildApprovalBrief renders the APPROVAL_GATE hand-off document: what's
// being proposed, the policy status, and who needs to sign off. Grounded on
// original_source/document_generator.py's build_approval_brief, adapted
// from that file's generic doc-schema builder to a direct string template
// since this tree has no other caller for a general document-section
// system.
func BuildApprovalBrief(processType, proposedAction string, pc ApprovalContext) string {
	policyStatus := "No structured policy provided"
	if pc.Provided {
		status := "PASSED"
		if !pc.Passed {
			status = "TRIGGERED"
		}
		policyStatus = "Status: " + status
		if len(pc.TriggeredRuleIDs) > 0 {
			policyStatus += "\nRules triggered: " + strings.Join(pc.TriggeredRuleIDs, ", ")
		}
	}

	risk := "medium"
	if pc.EscalationLevel != "" && pc.EscalationLevel != "none" {
		risk = "high"
	}

	var sb strings.Builder
	sb.WriteString("## Approval Brief\n\n")
	sb.WriteString(fmt.Sprintf("**Process:** %s\n\n", strings.ReplaceAll(processType, "_", " ")))
	sb.WriteString("**Proposed Actions**\n" + proposedAction + "\n\n")
	sb.WriteString("**Policy Compliance**\n" + policyStatus + "\n\n")
	sb.WriteString(fmt.Sprintf("**Risk Assessment**\nRisk level: %s\n\n", strings.ToUpper(risk)))
	sb.WriteString("**Approver Decision**\nAwaiting approval. Please confirm to proceed.\n")
	return sb.String()
}
