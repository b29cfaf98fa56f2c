package schema

import "github.com/procweave/orchestrator/internal/metrics"

// CallResult is the generic shape schema-aware wrapping needs from a tool
// invocation: either a result, or an error, or an empty result (an empty
// result also triggers drift correction, not only an error return).
type CallResult struct {
	Result interface{}
	Err    error
	Empty  bool
}

// Caller invokes a named tool with params and reports the outcome.
type Caller func(toolName string, params map[string]string) CallResult

// DescribeTable fetches the valid column list for a tool's backing table.
type DescribeTable func(toolName string) ([]string, error)

// Call wraps a single tool invocation with schema-drift detection and
// correction, using and updating the session cache.
func Call(cache Cache, call Caller, describe DescribeTable, toolName string, params map[string]string, paramKey string) CallResult {
	// Short-circuit: the cache maps bad->good column names, so if paramKey's
	// value is a name already corrected in this session, apply the cached
	// correction before the first call.
	if good, ok := cache[params[paramKey]]; ok {
		params = cloneParams(params)
		params[paramKey] = good
	}

	res := call(toolName, params)
	if res.Err == nil && !res.Empty {
		return res
	}

	badName := params[paramKey]
	if res.Err != nil {
		if extracted, ok := ExtractBadColumn(res.Err.Error()); ok {
			badName = extracted
		}
	}

	columns, derr := describe(toolName)
	if derr != nil {
		metrics.SchemaCorrections.WithLabelValues("describe_table", "unrecoverable").Inc()
		return CallResult{Err: &SchemaDriftUnrecoverable{BadName: badName}}
	}

	corrected, ok := Correct(badName, columns)
	if !ok {
		metrics.SchemaCorrections.WithLabelValues("column_correction", "unrecoverable").Inc()
		return CallResult{Err: &SchemaDriftUnrecoverable{BadName: badName}}
	}

	retryParams := cloneParams(params)
	retryParams[paramKey] = corrected
	retryRes := call(toolName, retryParams)
	if retryRes.Err != nil || retryRes.Empty {
		metrics.SchemaCorrections.WithLabelValues("column_correction", "unrecoverable").Inc()
		return CallResult{Err: &SchemaDriftUnrecoverable{BadName: badName}}
	}

	metrics.SchemaCorrections.WithLabelValues("column_correction", "corrected").Inc()
	cache[badName] = corrected
	return retryRes
}

func cloneParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
