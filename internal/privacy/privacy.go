// Package privacy implements the zero-cost PII refusal check run as the
// first PRIME step, ahead of any LLM call.
package privacy

import "strings"

// EscalationLevel names who a refusal escalates to.
const EscalationCISO = "ciso"

// Refusal is the structured outcome of a triggered privacy check.
type Refusal struct {
	Trigger         string
	Method          string
	EscalationLevel string
	Message         string
}

// triggerPhrases are PII categories that cause an immediate refusal.
var triggerPhrases = []string{
	"social security number", "ssn", "date of birth", "medical record",
	"passport number", "credit card number", "bank account number",
	"driver's license", "health insurance claim", "biometric data",
}

// safeContextPhrases short-circuit to not-refused before trigger matching
// runs, so legitimate anonymized/aggregate requests are never blocked.
var safeContextPhrases = []string{
	"no personal data", "anonymized", "aggregate", "de-identified",
	"redacted", "without pii",
}

// Check scans taskText for PII trigger phrases, honoring safe-context
// phrases that short-circuit to not-refused first.
func Check(taskText string) (*Refusal, bool) {
	lower := strings.ToLower(taskText)

	for _, safe := range safeContextPhrases {
		if strings.Contains(lower, safe) {
			return nil, false
		}
	}

	for _, trigger := range triggerPhrases {
		if strings.Contains(lower, trigger) {
			return &Refusal{
				Trigger:         trigger,
				Method:          "keyword_match",
				EscalationLevel: EscalationCISO,
				Message:         "This request appears to involve personally identifiable information and cannot be processed. Please remove or anonymize the sensitive fields and resubmit.",
			}, true
		}
	}

	return nil, false
}
