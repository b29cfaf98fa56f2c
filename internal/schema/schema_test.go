package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBadColumn(t *testing.T) {
	name, ok := ExtractBadColumn(`column not found: "amt"`)
	assert.True(t, ok)
	assert.Equal(t, "amt", name)
}

func TestCorrect_AliasTable(t *testing.T) {
	good, ok := Correct("amt", []string{"amount", "invoice_id"})
	assert.True(t, ok)
	assert.Equal(t, "amount", good)
}

func TestCorrect_PrefixFallback(t *testing.T) {
	good, ok := Correct("custo", []string{"customer_name", "status"})
	assert.True(t, ok)
	assert.Equal(t, "customer_name", good)
}

func TestCall_CorrectsAndCaches(t *testing.T) {
	cache := Cache{}
	calls := 0
	caller := func(toolName string, params map[string]string) CallResult {
		calls++
		if params["col"] == "amt" {
			return CallResult{Err: errors.New(`column not found: "amt"`)}
		}
		return CallResult{Result: "ok"}
	}
	describe := func(toolName string) ([]string, error) {
		return []string{"amount", "invoice_id"}, nil
	}

	res := Call(cache, caller, describe, "get_invoice", map[string]string{"col": "amt"}, "col")
	assert.NoError(t, res.Err)
	assert.Equal(t, "amount", cache["amt"])
	assert.Equal(t, 2, calls)

	// Second call in the same session short-circuits using the cache.
	res2 := Call(cache, caller, describe, "get_invoice", map[string]string{"col": "amt"}, "col")
	assert.NoError(t, res2.Err)
	assert.Equal(t, 3, calls)
}
