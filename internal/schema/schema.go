// Package schema wraps tool calls with column-name drift detection and
// fuzzy correction, caching corrections per session.
package schema

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Cache is a session-scoped bad-column-name -> corrected-column-name map.
// Not safe for concurrent use from multiple goroutines without external
// locking; callers serialise per session as required by the session store.
type Cache map[string]string

// SchemaDriftUnrecoverable is returned when all correction tiers fail.
type SchemaDriftUnrecoverable struct {
	BadName string
}

func (e *SchemaDriftUnrecoverable) Error() string {
	return "schema drift unrecoverable: " + e.BadName
}

var columnNotFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)column not found:?\s*['"]?(\w+)['"]?`),
	regexp.MustCompile(`(?i)unknown column:?\s*['"]?(\w+)['"]?`),
	regexp.MustCompile(`(?i)no such column:?\s*['"]?(\w+)['"]?`),
}

// ExtractBadColumn pulls the offending column name out of an error message,
// returning ok=false if the message doesn't match a known pattern.
func ExtractBadColumn(errText string) (string, bool) {
	for _, re := range columnNotFoundPatterns {
		if m := re.FindStringSubmatch(errText); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// aliasTable is a static alias table for 11 canonical columns with 1-4
// known variants each, covering common naming drift in benchmark tool
// servers (amt/amount, qty/quantity, etc).
var aliasTable = map[string]string{
	"amt": "amount", "amnt": "amount", "amount_usd": "amount", "total_amt": "amount",
	"qty": "quantity", "quant": "quantity", "num_units": "quantity",
	"desc": "description", "descr": "description", "details": "description",
	"cust_id": "customer_id", "custid": "customer_id", "client_id": "customer_id",
	"inv_id": "invoice_id", "invid": "invoice_id", "invoice_no": "invoice_id", "invoice_number": "invoice_id",
	"vend_id": "vendor_id", "vendorid": "vendor_id", "supplier_id": "vendor_id",
	"dt": "date", "create_dt": "created_at", "created": "created_at", "created_date": "created_at",
	"stat": "status", "state": "status",
	"po_no": "po_number", "po_id": "po_number", "purchase_order": "po_number",
	"emp_id": "employee_id", "empid": "employee_id", "staff_id": "employee_id",
}

// Correct attempts to find the intended column name for badName, given the
// list of valid columns (typically from describe_table). Returns the
// correction and true if confidence >= 0.6.
func Correct(badName string, validColumns []string) (string, bool) {
	lower := strings.ToLower(badName)

	if good, ok := aliasTable[lower]; ok && containsFold(validColumns, good) {
		return good, true
	}

	if best, score := lcsRatioBest(lower, validColumns); score >= 0.6 {
		return best, true
	}

	if best, score := levenshteinRatioBest(lower, validColumns); score >= 0.7 {
		return best, true
	}

	if best, ok := prefixMatchBest(lower, validColumns, 3); ok {
		return best, true
	}

	return badName, false
}

func containsFold(list []string, target string) bool {
	for _, v := range list {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// lcsRatioBest scores each candidate by twice the longest-common-subsequence
// length over len(a)+len(b), difflib-SequenceMatcher style.
func lcsRatioBest(name string, candidates []string) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		cl := strings.ToLower(c)
		score := lcsRatio(name, cl)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, bestScore
}

func lcsRatio(a, b string) float64 {
	l := lcsLen(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return float64(2*l) / float64(len(a)+len(b))
}

func lcsLen(a, b string) int {
	m, n := len(a), len(b)
	dp := make([]int, n+1)
	for i := 1; i <= m; i++ {
		prev := 0
		for j := 1; j <= n; j++ {
			tmp := dp[j]
			if a[i-1] == b[j-1] {
				dp[j] = prev + 1
			} else if dp[j] < dp[j-1] {
				dp[j] = dp[j-1]
			}
			prev = tmp
		}
	}
	return dp[n]
}

func levenshteinRatioBest(name string, candidates []string) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		cl := strings.ToLower(c)
		dist := levenshtein.ComputeDistance(name, cl)
		maxLen := len(name)
		if len(cl) > maxLen {
			maxLen = len(cl)
		}
		if maxLen == 0 {
			continue
		}
		score := 1 - float64(dist)/float64(maxLen)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, bestScore
}

func prefixMatchBest(name string, candidates []string, minLen int) (string, bool) {
	type cand struct {
		name string
		plen int
	}
	var matches []cand
	for _, c := range candidates {
		cl := strings.ToLower(c)
		p := commonPrefixLen(name, cl)
		if p >= minLen {
			matches = append(matches, cand{c, p})
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].plen > matches[j].plen })
	return matches[0].name, true
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
