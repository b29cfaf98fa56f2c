// Package mutation wraps write tool calls with an immediate read-back to
// verify the mutation actually took effect, and logs the outcome.
package mutation

import (
	"strings"
	"time"

	"github.com/procweave/orchestrator/internal/hitl"
)

// Status is the outcome of a mutation verification attempt.
type Status string

const (
	Verified    Status = "VERIFIED"
	Failed      Status = "FAILED"
	Unverifiable Status = "UNVERIFIABLE"
)

// Entry records one write->read verification pair.
type Entry struct {
	WriteCall string
	ReadCall  string
	Status    Status
	Timestamp time.Time
}

// writeToRead is the 15-entry table of write tool name -> read tool name,
// consulted before the prefix heuristic.
var writeToRead = map[string]string{
	"update_invoice": "get_invoice", "create_invoice": "get_invoice",
	"update_order": "get_order", "create_order": "get_order", "cancel_order": "get_order",
	"update_employee": "get_employee", "create_employee": "get_employee",
	"approve_request": "get_request", "reject_request": "get_request",
	"revoke_access": "get_access", "grant_access": "get_access",
	"update_status": "get_status",
	"issue_refund":   "get_refund",
	"schedule_notification": "get_notification",
	"delete_record":          "get_record",
}

// DeriveReadTool finds the read tool that should be called to verify a
// write, checking the explicit table first, then the prefix heuristic
// (update_X/create_X/approve_X/revoke_X -> get_X).
func DeriveReadTool(writeTool string) (string, bool) {
	if read, ok := writeToRead[writeTool]; ok {
		return read, true
	}
	for _, prefix := range []string{"update_", "create_", "approve_", "revoke_"} {
		if strings.HasPrefix(writeTool, prefix) {
			noun := strings.TrimPrefix(writeTool, prefix)
			return "get_" + noun, true
		}
	}
	return "", false
}

// PrimaryKeyParam extracts the primary-key-looking parameter from a write
// call's params, preferring an explicit "id" suffix key.
func PrimaryKeyParam(params map[string]string) (key, value string, ok bool) {
	for k, v := range params {
		if strings.HasSuffix(k, "_id") || k == "id" {
			return k, v, true
		}
	}
	return "", "", false
}

// ReadFunc executes a read tool call and reports success.
type ReadFunc func(toolName string, params map[string]string) (result interface{}, err error)

// Verify runs the read-back for a write call that already succeeded, and
// returns the log entry. It never returns an error: a failed or impossible
// read-back is recorded as FAILED/UNVERIFIABLE, not propagated.
func Verify(writeTool string, writeParams map[string]string, read ReadFunc) Entry {
	entry := Entry{WriteCall: writeTool, Timestamp: time.Now()}

	if hitl.Classify(writeTool) != hitl.ClassMutate {
		entry.Status = Unverifiable
		return entry
	}

	readTool, ok := DeriveReadTool(writeTool)
	if !ok {
		entry.Status = Unverifiable
		return entry
	}
	entry.ReadCall = readTool

	pkKey, pkVal, ok := PrimaryKeyParam(writeParams)
	if !ok {
		entry.Status = Unverifiable
		return entry
	}

	_, err := read(readTool, map[string]string{pkKey: pkVal})
	if err != nil {
		entry.Status = Failed
		return entry
	}
	entry.Status = Verified
	return entry
}

// FormatLog renders the mutation log for the "## Mutation Verification Log"
// section appended to the final answer.
func FormatLog(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n## Mutation Verification Log\n")
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(e.WriteCall)
		b.WriteString(" -> ")
		if e.ReadCall == "" {
			b.WriteString("(no read-back)")
		} else {
			b.WriteString(e.ReadCall)
		}
		b.WriteString(": ")
		b.WriteString(string(e.Status))
		b.WriteString("\n")
	}
	return b.String()
}
