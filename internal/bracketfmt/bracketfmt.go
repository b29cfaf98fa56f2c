// Package bracketfmt implements bracket-format answer detection, used to
// preserve exact-match scoring: such answers bypass the metadata footer,
// self-reflection, and always score 1.0 in the case log.
package bracketfmt

import (
	"encoding/json"
	"strings"
)

// IsBracketFormat reports whether s is a JSON list once trimmed: first
// non-whitespace char '[', last non-whitespace char ']', and it parses as a
// JSON array. A bare prefix check misclassifies prose with embedded
// brackets, so this always attempts the parse.
func IsBracketFormat(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return false
	}
	if trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return false
	}
	var list []interface{}
	if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
		return false
	}
	return true
}
