// Package recovery implements the tool-call recovery chain invoked when a
// direct call fails after schema-drift correction has already been tried:
// synonym substitution, parameter decomposition, LLM-suggested alternative,
// and graceful degradation. It always returns a result and never propagates
// the original error past this layer.
package recovery

import (
	"context"

	"github.com/agnivade/levenshtein"
	"github.com/procweave/orchestrator/internal/util"
)

// Strategy names which recovery tier produced the result.
type Strategy string

const (
	StrategySynonym    Strategy = "synonym_substitution"
	StrategyDecompose  Strategy = "decompose"
	StrategyLLMSuggest Strategy = "llm_suggest"
	StrategyDegrade    Strategy = "graceful_degrade"
)

// Result is the outcome of a recovery attempt.
type Result struct {
	Recovered bool
	Strategy  Strategy
	ToolName  string
	Params    map[string]string
	Value     interface{}
}

// Caller re-attempts a tool call.
type Caller func(ctx context.Context, toolName string, params map[string]string) (interface{}, error)

// AltToolSuggester asks the fast-tier LLM for one alternative tool name.
type AltToolSuggester func(ctx context.Context, failedTool string, availableTools []string) (string, error)

// coreParamAllowlist holds the parameter keys considered essential; decompose strips
// everything else and retries once.
var coreParamAllowlist = map[string]bool{
	"id": true, "name": true,
}

// Recover tries, in order: synonym substitution over availableTools,
// decompose to an allowlisted core param set, LLM-suggested alternative
// tool, then graceful degrade. The first strategy whose retry succeeds wins.
func Recover(ctx context.Context, toolName string, params map[string]string, callErr error, availableTools []string, call Caller, suggest AltToolSuggester) Result {
	if synonym, ok := bestSynonym(toolName, availableTools); ok {
		if v, err := call(ctx, synonym, params); err == nil {
			return Result{Recovered: true, Strategy: StrategySynonym, ToolName: synonym, Params: params, Value: v}
		}
	}

	decomposed := decomposeParams(params)
	if len(decomposed) > 0 && len(decomposed) < len(params) {
		if v, err := call(ctx, toolName, decomposed); err == nil {
			return Result{Recovered: true, Strategy: StrategyDecompose, ToolName: toolName, Params: decomposed, Value: v}
		}
	}

	if suggest != nil {
		alt, err := suggest(ctx, toolName, availableTools)
		if err == nil && alt != "" && util.ContainsString(availableTools, alt) {
			if v, err := call(ctx, alt, params); err == nil {
				return Result{Recovered: true, Strategy: StrategyLLMSuggest, ToolName: alt, Params: params, Value: v}
			}
		}
	}

	return Result{Recovered: false, Strategy: StrategyDegrade, ToolName: toolName, Params: params}
}

// bestSynonym finds the available tool name most similar to toolName by
// Levenshtein ratio, accepting matches at ratio >= 0.5.
func bestSynonym(toolName string, availableTools []string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, candidate := range availableTools {
		if candidate == toolName {
			continue
		}
		dist := levenshtein.ComputeDistance(toolName, candidate)
		maxLen := len(toolName)
		if len(candidate) > maxLen {
			maxLen = len(candidate)
		}
		if maxLen == 0 {
			continue
		}
		score := 1 - float64(dist)/float64(maxLen)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore >= 0.5 {
		return best, true
	}
	return "", false
}

func decomposeParams(params map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range params {
		if coreParamAllowlist[k] {
			out[k] = v
		}
	}
	return out
}
