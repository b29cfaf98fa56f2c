package fsm

// Template is a process-type-specific ordered subsequence of the 8
// canonical states with per-state instruction text.
type Template struct {
	ProcessType        string
	States              []State
	Instructions        map[State]string
	RequiredOutputFields []string
	HITLRequired        bool
	// RequiresReopenGate marks processes needing sequential confirmations
	// (e.g. 5-gate migrations): the runner may reopen APPROVAL_GATE from
	// MUTATE via reopen_approval_gate rather than advancing to SCHEDULE_NOTIFY.
	RequiresReopenGate bool
}

// builtinTemplates ships 15 process templates covering common enterprise
// business processes. Additional templates are created on demand by the
// classifier/synthesiser and cached separately.
var builtinTemplates = map[string]*Template{
	"invoice_approval": {
		ProcessType: "invoice_approval",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the invoice, PO reference, and amounts involved.",
			Assess:         "Gather the invoice, PO, and vendor records via read tools.",
			Compute:        "Compute variance between invoiced and approved amounts.",
			PolicyCheck:    "Evaluate the variance and any applicable rules.",
			ApprovalGate:   "Produce an approval or rejection recommendation with rationale.",
			Mutate:         "Apply the approval/rejection status update.",
			ScheduleNotify: "Notify the requester and AP team of the outcome.",
			Complete:       "Summarise the decision and next steps.",
		},
		RequiredOutputFields: []string{"decision", "variance_pct"},
	},
	"purchase_order": {
		ProcessType: "purchase_order",
		States:      []State{Decompose, Assess, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify requested items, quantities, and vendor.",
			Assess:         "Check budget availability and vendor standing.",
			PolicyCheck:    "Evaluate spend-limit and approval-tier rules.",
			ApprovalGate:   "Draft the purchase order for approval.",
			Mutate:         "Create the purchase order record.",
			ScheduleNotify: "Notify the vendor and requester.",
			Complete:       "Confirm PO creation and summary.",
		},
		RequiredOutputFields: []string{"po_number", "total_amount"},
	},
	"expense_reimbursement": {
		ProcessType: "expense_reimbursement",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the expense line items and employee.",
			Assess:         "Gather receipts and expense policy limits.",
			Compute:        "Sum eligible amounts and apply per-diem caps.",
			PolicyCheck:    "Check against expense policy thresholds.",
			Mutate:         "Record the reimbursement.",
			ScheduleNotify: "Notify payroll and the employee.",
			Complete:       "Summarise the reimbursed total.",
		},
		RequiredOutputFields: []string{"reimbursed_amount"},
	},
	"vendor_onboarding": {
		ProcessType: "vendor_onboarding",
		States:      []State{Decompose, Assess, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the vendor and required compliance documents.",
			Assess:         "Verify tax ID, banking details, and compliance status.",
			PolicyCheck:    "Check sanctions-list and risk-tier rules.",
			ApprovalGate:   "Draft onboarding approval for the vendor.",
			Mutate:         "Create the vendor record.",
			ScheduleNotify: "Notify procurement and the vendor.",
			Complete:       "Confirm the vendor is onboarded.",
		},
		RequiredOutputFields: []string{"vendor_id"},
		HITLRequired:        true,
	},
	"hr_offboarding": {
		ProcessType: "hr_offboarding",
		States:      []State{Decompose, Assess, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		RequiresReopenGate: true,
		Instructions: map[State]string{
			Decompose:      "Identify the employee and offboarding date.",
			Assess:         "Gather access list, equipment, and final pay details.",
			PolicyCheck:    "Check notice-period and severance rules.",
			ApprovalGate:   "Confirm revocation scope with HR/manager before acting.",
			Mutate:         "Revoke access and process final actions.",
			ScheduleNotify: "Notify IT, payroll, and the manager.",
			Complete:       "Confirm offboarding completion.",
		},
		RequiredOutputFields: []string{"revoked_access_count"},
		HITLRequired:        true,
	},
	"hr_onboarding": {
		ProcessType: "hr_onboarding",
		States:      []State{Decompose, Assess, PolicyCheck, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the new hire, role, and start date.",
			Assess:         "Gather role-based access and equipment requirements.",
			PolicyCheck:    "Check background-check completion.",
			Mutate:         "Create accounts and provision access.",
			ScheduleNotify: "Notify the manager and IT.",
			Complete:       "Confirm onboarding setup.",
		},
		RequiredOutputFields: []string{"accounts_created"},
	},
	"contract_renewal": {
		ProcessType: "contract_renewal",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the contract and renewal terms.",
			Assess:         "Gather current terms, usage, and pricing history.",
			Compute:        "Compute price delta and early-termination exposure.",
			PolicyCheck:    "Check renewal-term and discount-approval rules.",
			ApprovalGate:   "Draft the renewal recommendation.",
			Mutate:         "Update the contract record.",
			ScheduleNotify: "Notify the account owner.",
			Complete:       "Summarise the renewal terms.",
		},
		RequiredOutputFields: []string{"new_term_months"},
	},
	"sla_credit_review": {
		ProcessType: "sla_credit_review",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the account and the SLA period under review.",
			Assess:         "Gather uptime/incident records for the period.",
			Compute:        "Compute the SLA credit owed, if any.",
			PolicyCheck:    "Check the contractual SLA credit cap.",
			Mutate:         "Issue the credit.",
			ScheduleNotify: "Notify the account and billing team.",
			Complete:       "Summarise the credit issued.",
		},
		RequiredOutputFields: []string{"credit_amount"},
	},
	"refund_processing": {
		ProcessType: "refund_processing",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the order and the refund reason.",
			Assess:         "Gather order, payment, and return status.",
			Compute:        "Compute the refundable amount.",
			PolicyCheck:    "Check refund-window and amount-threshold rules.",
			ApprovalGate:   "Draft the refund recommendation.",
			Mutate:         "Issue the refund.",
			ScheduleNotify: "Notify the customer.",
			Complete:       "Confirm the refund was issued.",
		},
		RequiredOutputFields: []string{"refund_amount"},
	},
	"access_revocation": {
		ProcessType: "access_revocation",
		States:      []State{Decompose, Assess, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the account and systems to revoke.",
			Assess:         "Gather the current access grant list.",
			PolicyCheck:    "Check revocation-authority rules.",
			ApprovalGate:   "Confirm the revocation scope.",
			Mutate:         "Revoke the listed access grants.",
			ScheduleNotify: "Notify security and the manager.",
			Complete:       "Confirm revocation completion.",
		},
		RequiredOutputFields: []string{"revoked_count"},
		HITLRequired:        true,
	},
	"payroll_adjustment": {
		ProcessType: "payroll_adjustment",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the employee and the adjustment reason.",
			Assess:         "Gather current pay and adjustment history.",
			Compute:        "Compute the adjusted amount and retro pay if any.",
			PolicyCheck:    "Check payroll-adjustment approval rules.",
			ApprovalGate:   "Draft the adjustment for approval.",
			Mutate:         "Apply the payroll adjustment.",
			ScheduleNotify: "Notify payroll and the employee.",
			Complete:       "Confirm the adjustment was applied.",
		},
		RequiredOutputFields: []string{"adjusted_amount"},
		HITLRequired:        true,
	},
	"lease_termination": {
		ProcessType: "lease_termination",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the lease and termination date.",
			Assess:         "Gather lease terms and remaining balance.",
			Compute:        "Compute the early-termination fee.",
			PolicyCheck:    "Check termination-notice rules.",
			ApprovalGate:   "Draft the termination agreement.",
			Mutate:         "Record the termination.",
			ScheduleNotify: "Notify the lessee and finance.",
			Complete:       "Confirm the lease is terminated.",
		},
		RequiredOutputFields: []string{"termination_fee"},
	},
	"compliance_audit": {
		ProcessType: "compliance_audit",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the audit scope and period.",
			Assess:         "Gather relevant records for the scope.",
			Compute:        "Compute any flagged metrics or exceptions.",
			PolicyCheck:    "Check exceptions against compliance rules.",
			ScheduleNotify: "Notify compliance of findings.",
			Complete:       "Summarise the audit findings.",
		},
		RequiredOutputFields: []string{"exceptions_found"},
	},
	"order_fulfillment": {
		ProcessType: "order_fulfillment",
		States:      []State{Decompose, Assess, PolicyCheck, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Identify the order and fulfillment action.",
			Assess:         "Gather inventory and shipping status.",
			PolicyCheck:    "Check fulfillment-eligibility rules.",
			Mutate:         "Update the order fulfillment status.",
			ScheduleNotify: "Notify the customer of shipment.",
			Complete:       "Confirm fulfillment status.",
		},
		RequiredOutputFields: []string{"fulfillment_status"},
	},
	"general": {
		ProcessType: "general",
		States:      []State{Decompose, Assess, Compute, PolicyCheck, ApprovalGate, Mutate, ScheduleNotify, Complete},
		Instructions: map[State]string{
			Decompose:      "Break the request into concrete sub-tasks.",
			Assess:         "Gather the information needed via read tools.",
			Compute:        "Perform any required calculations.",
			PolicyCheck:    "Evaluate applicable policy rules, if any.",
			ApprovalGate:   "Draft an approval document if a mutation is implied.",
			Mutate:         "Apply any required changes.",
			ScheduleNotify: "Notify relevant parties.",
			Complete:       "Summarise the outcome.",
		},
		RequiredOutputFields: nil,
	},
}

// BuiltinTemplate returns one of the 15 built-in templates by name.
func BuiltinTemplate(name string) (*Template, bool) {
	t, ok := builtinTemplates[name]
	return t, ok
}

// BuiltinNames lists the 15 built-in process-type names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinTemplates))
	for n := range builtinTemplates {
		names = append(names, n)
	}
	return names
}
