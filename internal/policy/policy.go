// Package policy implements a deterministic, pure-function evaluator over a
// small JSON policy document. No I/O, no LLM calls.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// EscalationLevel names who a rule escalates to when triggered.
type EscalationLevel string

const (
	EscalationNone      EscalationLevel = "none"
	EscalationManager   EscalationLevel = "manager"
	EscalationHR        EscalationLevel = "hr"
	EscalationFinance   EscalationLevel = "finance"
	EscalationCommittee EscalationLevel = "committee"
	EscalationLegal     EscalationLevel = "legal"
	EscalationCFO       EscalationLevel = "cfo"
	EscalationCISO      EscalationLevel = "ciso"
)

// Rule is one entry in a policy document.
type Rule struct {
	ID        string          `json:"id"`
	Condition string          `json:"condition"`
	Action    string          `json:"action"`
	Level     EscalationLevel `json:"level"`
}

// Document is the policy document shape accepted from task metadata.
type Document struct {
	Rules   []Rule                 `json:"rules"`
	Context map[string]interface{} `json:"context"`
}

// Result is the outcome of evaluating a Document against its context.
type Result struct {
	Passed           bool
	RequiresApproval bool
	EscalationLevel  EscalationLevel
	TriggeredRuleIDs []string
}

// InvalidPolicyError marks a structurally malformed policy document.
type InvalidPolicyError struct {
	Reason string
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("invalid policy document: %s", e.Reason)
}

// Evaluate parses and evaluates a policy document JSON string. An empty or
// absent document passes immediately with no escalation.
func Evaluate(policyDocJSON string) (*Result, error) {
	if strings.TrimSpace(policyDocJSON) == "" {
		return &Result{Passed: true, EscalationLevel: EscalationNone}, nil
	}

	var doc Document
	if err := json.Unmarshal([]byte(policyDocJSON), &doc); err != nil {
		return nil, &InvalidPolicyError{Reason: err.Error()}
	}

	return EvaluateDocument(&doc)
}

// EvaluateDocument evaluates an already-parsed document. Each rule's
// condition string is matched by the package's own recursive-descent
// parser (condition.go) — the request-supplied grammar isn't something
// Rego's compile-a-trusted-bundle model was built for — but the set of
// facts that matching produces is then folded into the final decision by
// the compiled Rego module in engine.go.
func EvaluateDocument(doc *Document) (*Result, error) {
	if doc == nil {
		return &Result{Passed: true, EscalationLevel: EscalationNone}, nil
	}

	res := &Result{Passed: true, EscalationLevel: EscalationNone}
	var triggered []triggeredFact

	for _, rule := range doc.Rules {
		if rule.Condition == "" {
			return nil, &InvalidPolicyError{Reason: fmt.Sprintf("rule %q has empty condition", rule.ID)}
		}

		truth, err := evalCondition(rule.Condition, doc.Context)
		if err != nil {
			return nil, &InvalidPolicyError{Reason: fmt.Sprintf("rule %q: %v", rule.ID, err)}
		}
		if !truth {
			continue
		}

		res.TriggeredRuleIDs = append(res.TriggeredRuleIDs, rule.ID)
		triggered = append(triggered, triggeredFact{Action: rule.Action, Level: string(rule.Level)})
	}

	decision, err := combine(context.Background(), triggered)
	if err != nil {
		return nil, &InvalidPolicyError{Reason: err.Error()}
	}
	res.Passed = decision.Passed
	res.RequiresApproval = decision.RequiresApproval
	res.EscalationLevel = EscalationLevel(decision.EscalationLevel)

	return res, nil
}
