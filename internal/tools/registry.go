// Package tools implements gap detection, sandboxed synthesis, and the
// persistent dynamic tool registry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/procweave/orchestrator/internal/llm"
)

const (
	phase2MinTaskLen = 100
	phase2Timeout    = 8 * time.Second
	maxPhase2Candidates = 2
)

// TestCase is one sample input/expected-output pair used to validate a
// synthesised tool before registration.
type TestCase struct {
	Params   map[string]float64 `json:"params"`
	Expected float64            `json:"expected"`
}

// Registration is a synthesised tool's persisted record.
type Registration struct {
	Name           string     `json:"name"`
	ParameterNames []string   `json:"parameter_names"`
	Body           string     `json:"body"`
	TestCases      []TestCase `json:"test_cases"`
}

// Registry holds the in-memory compiled functions alongside the persisted
// registration records.
type Registry struct {
	regs    map[string]Registration
	compiled map[string]CompiledFunc
}

// NewRegistry wraps a persisted registration map, compiling each entry.
// Entries that fail to compile (e.g. a corrupted persisted file) are
// dropped rather than blocking startup.
func NewRegistry(initial map[string]Registration) *Registry {
	r := &Registry{regs: map[string]Registration{}, compiled: map[string]CompiledFunc{}}
	for name, reg := range initial {
		if fn, err := compile(reg.Body); err == nil {
			r.regs[name] = reg
			r.compiled[name] = fn
		}
	}
	return r
}

func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.compiled[name]
	return ok
}

func (r *Registry) Call(ctx context.Context, name string, params map[string]float64) (float64, error) {
	fn, ok := r.compiled[name]
	if !ok {
		return 0, fmt.Errorf("tool %q not registered", name)
	}
	return run(ctx, fn, params)
}

func (r *Registry) Snapshot() map[string]Registration {
	out := make(map[string]Registration, len(r.regs))
	for k, v := range r.regs {
		out[k] = v
	}
	return out
}

// Stats summarizes the registry for the health endpoint.
type Stats struct {
	TotalRegistered int `json:"total_registered"`
}

func (r *Registry) Stats() Stats {
	return Stats{TotalRegistered: len(r.regs)}
}

// synthesisResponse is what the fast LLM is asked to return for a detected
// gap: a function body, parameter list, and 3 test cases.
type synthesisResponse struct {
	Body           string     `json:"body"`
	ParameterNames []string   `json:"parameter_names"`
	TestCases      []TestCase `json:"test_cases"`
}

// llmCandidateGaps asks the fast-tier LLM what custom calculation a task
// requires, used as Phase 2 when Phase 1 pattern matching found nothing.
func llmCandidateGaps(ctx context.Context, client llm.Client, taskText string) []string {
	if client == nil || len(taskText) < phase2MinTaskLen {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, phase2Timeout)
	defer cancel()

	prompt := "What custom numeric calculation, if any, does this task require that a generic read/write tool could not provide? " +
		"Reply with a short comma-separated list of calculation names, or \"none\".\nTask: " + taskText

	resp, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: prompt, MaxTokens: 64})
	if err != nil || strings.TrimSpace(resp) == "" {
		return nil
	}
	lower := strings.ToLower(resp)
	if strings.Contains(lower, "none") {
		return nil
	}
	parts := strings.Split(resp, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
		if len(out) >= maxPhase2Candidates {
			break
		}
	}
	return out
}

// DetectGaps runs the two-phase gap detection: pattern first, model second
// only if pattern found nothing and the task is long enough.
func DetectGaps(ctx context.Context, client llm.Client, taskText string) []string {
	if gp, ok := DetectGapPattern(taskText); ok {
		return []string{gp.Key}
	}
	return llmCandidateGaps(ctx, client, taskText)
}

// SynthesiseAndRegister asks the fast LLM for a function body, parameter
// list, and test cases for gapName, validates it in the sandbox, and
// registers it on success. On any failure it discards the tool and returns
// a *SandboxFailure wrapped error; the task proceeds without it.
func (r *Registry) SynthesiseAndRegister(ctx context.Context, client llm.Client, gapName, description string) (*Registration, error) {
	if client == nil {
		return nil, &SandboxFailure{Reason: "no LLM client available for synthesis"}
	}

	prompt := fmt.Sprintf(
		"Write a Go function body (no package/import lines, they're provided) implementing: %s\n"+
			"It must define exactly: func Compute(params map[string]float64) (float64, error)\n"+
			"Only math, strconv, statshelper.Mean/StdDev/Median(values []float64) float64, and statshelper.Percentile(values []float64, pct float64) float64 are available.\n"+
			"Reply with JSON: {\"body\": \"<go source defining Compute>\", \"parameter_names\": [...], "+
			"\"test_cases\": [{\"params\": {...}, \"expected\": <number>}, ... exactly 3]}",
		description,
	)

	resp, err := client.Complete(ctx, llm.CompletionRequest{Tier: llm.TierFast, Prompt: prompt, MaxTokens: 1024})
	if err != nil {
		return nil, &SandboxFailure{Reason: fmt.Sprintf("synthesis request failed: %v", err)}
	}

	var parsed synthesisResponse
	if err := json.Unmarshal([]byte(extractJSONObject(resp)), &parsed); err != nil {
		return nil, &SandboxFailure{Reason: fmt.Sprintf("malformed synthesis response: %v", err)}
	}
	if len(parsed.TestCases) == 0 {
		return nil, &SandboxFailure{Reason: "no test cases provided"}
	}

	fn, err := compile(parsed.Body)
	if err != nil {
		return nil, err
	}

	for _, tc := range parsed.TestCases {
		got, err := run(ctx, fn, tc.Params)
		if err != nil {
			return nil, err
		}
		if !approxEqual(got, tc.Expected, 1e-6) {
			return nil, &SandboxFailure{Reason: fmt.Sprintf("test case failed: got %v want %v", got, tc.Expected)}
		}
	}

	reg := Registration{
		Name:           gapName,
		ParameterNames: parsed.ParameterNames,
		Body:           parsed.Body,
		TestCases:      parsed.TestCases,
	}
	r.regs[gapName] = reg
	r.compiled[gapName] = fn
	return &reg, nil
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "{}"
	}
	return s[start : end+1]
}
