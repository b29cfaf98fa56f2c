// Package rl implements the case log, keyword-relevance primer, and
// quality-based pruning feedback channel.
package rl

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/procweave/orchestrator/internal/bracketfmt"
)

// Outcome is the coarse result of a task, used both for quality scoring
// inputs and for pruning decisions.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

const maxEntries = 200

// Entry is one case log record.
type Entry struct {
	TaskSummary string    `json:"task_summary"`
	Keywords    []string  `json:"keywords"`
	Outcome     Outcome   `json:"outcome"`
	Quality     float64   `json:"quality"`
	ToolCount   int       `json:"tool_count"`
	WhatWorked  string    `json:"what_worked"`
	WhatFailed  string    `json:"what_failed"`
	Domain      string    `json:"domain"`
	Timestamp   time.Time `json:"timestamp"`
}

// CaseLog is a bounded, FIFO-evicted sequence of task outcomes.
type CaseLog struct {
	mu      sync.Mutex
	entries []Entry
}

// New wraps an existing persisted entry slice.
func New(initial []Entry) *CaseLog {
	return &CaseLog{entries: initial}
}

// Record appends entry, pruning first, then evicting FIFO above the cap.
func (c *CaseLog) Record(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = Prune(c.entries)
	c.entries = append(c.entries, entry)
	if len(c.entries) > maxEntries {
		c.entries = c.entries[len(c.entries)-maxEntries:]
	}
}

// Prune drops stale and repeated-failure entries in place, independent of
// Record. Called before every primer build so BuildPrimer never surfaces an
// entry that would already have been dropped on the next Record.
func (c *CaseLog) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = Prune(c.entries)
}

// Snapshot returns a copy of the entries, for persistence or primer builds.
func (c *CaseLog) Snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Prune drops entries per the documented rules, falling back to keeping the
// higher-quality half if that would remove more than 70% of entries.
func Prune(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}

	now := time.Now()
	repeated := repeatedFailureIndices(entries)

	var kept []Entry
	for i, e := range entries {
		if e.Quality < 0.35 && e.Outcome == OutcomeFailure {
			continue
		}
		if now.Sub(e.Timestamp) > 72*time.Hour {
			continue
		}
		if repeated[i] {
			continue
		}
		kept = append(kept, e)
	}

	removedFrac := 1 - float64(len(kept))/float64(len(entries))
	if removedFrac > 0.70 {
		return keepHigherQualityHalf(entries)
	}
	return kept
}

func keepHigherQualityHalf(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Quality > sorted[j].Quality })
	half := sorted[:len(sorted)/2+len(sorted)%2]
	// Restore original relative ordering (by timestamp) for FIFO consistency.
	sort.Slice(half, func(i, j int) bool { return half[i].Timestamp.Before(half[j].Timestamp) })
	return half
}

// repeatedFailureIndices flags entries that are part of a repeated-failure
// pattern: a FAILURE entry whose keyword set shares >=0.5 Jaccard overlap
// with at least 2 other FAILURE entries (3+ in all). Those other entries are
// not compared with each other.
func repeatedFailureIndices(entries []Entry) map[int]bool {
	flagged := map[int]bool{}

	var failureIdx []int
	for i, e := range entries {
		if e.Outcome == OutcomeFailure {
			failureIdx = append(failureIdx, i)
		}
	}

	for _, i := range failureIdx {
		matches := 0
		for _, j := range failureIdx {
			if i == j {
				continue
			}
			if jaccard(entries[i].Keywords, entries[j].Keywords) >= 0.5 {
				matches++
			}
		}
		if matches >= 2 {
			flagged[i] = true
		}
	}
	return flagged
}

func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	inter := 0
	for k := range setA {
		if setB[k] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[strings.ToLower(it)] = true
	}
	return s
}

// Tokenize lowercases and splits task text into a keyword set, dropping a
// small stopword list.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "of": true, "to": true,
	"for": true, "and": true, "in": true, "on": true, "at": true, "with": true,
}

func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if f == "" || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// BuildPrimer returns the top-3 case entries by keyword overlap with
// taskText, formatted as "Past pattern: <summary> -> <outcome>".
func (c *CaseLog) BuildPrimer(taskText string) []string {
	keywords := Tokenize(taskText)

	type scored struct {
		entry Entry
		score float64
	}
	entries := c.Snapshot()
	var scoredEntries []scored
	for _, e := range entries {
		s := jaccard(keywords, e.Keywords)
		if s > 0 {
			scoredEntries = append(scoredEntries, scored{e, s})
		}
	}
	sort.Slice(scoredEntries, func(i, j int) bool { return scoredEntries[i].score > scoredEntries[j].score })

	n := 3
	if len(scoredEntries) < n {
		n = len(scoredEntries)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		e := scoredEntries[i].entry
		out = append(out, "Past pattern: "+e.TaskSummary+" -> "+string(e.Outcome))
	}
	return out
}

// QualityInputs are the three sub-scores combined into the overall quality.
type QualityInputs struct {
	AnswerScore float64
	ToolScore   float64
	PolicyScore float64
}

// ComputeQuality applies the weighted quality formula. Exact-match
// bracket-format answers always score 1.0.
func ComputeQuality(answer string, inputs QualityInputs) float64 {
	if bracketfmt.IsBracketFormat(answer) {
		return 1.0
	}
	return 0.35*inputs.AnswerScore + 0.35*inputs.ToolScore + 0.30*inputs.PolicyScore
}

// AnswerScore rewards length within a complexity-adjusted window and the
// presence of decision/completion markers.
func AnswerScore(answer string, complexWindowMin, complexWindowMax int) float64 {
	l := len(answer)
	lengthScore := 0.0
	switch {
	case l < complexWindowMin:
		lengthScore = float64(l) / float64(complexWindowMin)
	case l <= complexWindowMax:
		lengthScore = 1.0
	default:
		over := l - complexWindowMax
		lengthScore = 1.0 - float64(over)/float64(complexWindowMax)
		if lengthScore < 0.3 {
			lengthScore = 0.3
		}
	}

	markerScore := 0.0
	lower := strings.ToLower(answer)
	for _, marker := range []string{"approved", "rejected", "completed", "verified", "decision:", "conclusion:"} {
		if strings.Contains(lower, marker) {
			markerScore = 0.3
			break
		}
	}

	score := 0.7*lengthScore + markerScore
	if score > 1 {
		score = 1
	}
	return score
}

// ToolScore rewards fewer tool calls for the same outcome (efficiency).
func ToolScore(toolCount int) float64 {
	switch {
	case toolCount == 0:
		return 1.0
	case toolCount <= 3:
		return 0.9
	case toolCount <= 6:
		return 0.7
	case toolCount <= 10:
		return 0.5
	default:
		return 0.3
	}
}

// PolicyScore maps a policy outcome to its quality contribution.
func PolicyScore(policyProvided bool, policyPassed bool) float64 {
	if !policyProvided {
		return 0.5
	}
	if policyPassed {
		return 1.0
	}
	return 0.0
}
