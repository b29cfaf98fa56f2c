package fsm

import "strings"

var actionVerbs = []string{
	"approve", "reject", "cancel", "update", "create", "delete", "revoke",
	"refund", "reconcile", "issue", "send",
}

var readPatterns = []string{
	"what is", "show me", "list", "find", "report", "summarise",
}

// IsReadOnly scans taskText for the absence of action verbs against the
// presence of read patterns, per the read-only shortcircuit rule.
func IsReadOnly(taskText string) bool {
	lower := strings.ToLower(taskText)

	for _, v := range actionVerbs {
		if strings.Contains(lower, v) {
			return false
		}
	}
	for _, p := range readPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ReadOnlyTemplate is the collapsed DECOMPOSE -> ASSESS -> COMPLETE path.
var ReadOnlyTemplate = &Template{
	ProcessType: "read_only",
	States:      []State{Decompose, Assess, Complete},
	Instructions: map[State]string{
		Decompose: "Identify exactly what information is being requested.",
		Assess:    "Gather the requested information via read tools only.",
		Complete:  "Present the requested information.",
	},
}
