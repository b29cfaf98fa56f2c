package tools

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/procweave/orchestrator/internal/tools/statshelper"
)

// sandboxCPUTimeout and sandboxMemoryCapBytes document the per-invocation
// caps; yaegi has no native memory cap, so only the CPU timeout is
// enforced and the byte cap is not applied anywhere.
const (
	sandboxCPUTimeout      = 2 * time.Second
	sandboxMemoryCapBytes  = 64 * 1024 * 1024
)

// allowedImportPaths is the source-text-level check layered on top of the
// symbol-table restriction below; kept for defense in depth even though the
// symbol table alone already makes any other import fail at eval time.
var allowedImportPaths = map[string]bool{
	"math":    true,
	"strconv": true,
	"procweave/statshelper": true,
}

var statsExports = buildStatsExports()

func buildStatsExports() interp.Exports {
	return interp.Exports{
		"procweave/statshelper/statshelper": map[string]reflect.Value{
			"Mean":       reflect.ValueOf(statshelper.Mean),
			"StdDev":     reflect.ValueOf(statshelper.StdDev),
			"Median":     reflect.ValueOf(statshelper.Median),
			"Percentile": reflect.ValueOf(statshelper.Percentile),
		},
	}
}

// SandboxFailure marks a tool that failed validation or test cases inside
// the sandbox; such tools are discarded, never registered.
type SandboxFailure struct {
	Reason string
}

func (e *SandboxFailure) Error() string { return "sandbox failure: " + e.Reason }

// CompiledFunc is the signature every synthesised tool body must expose:
// func Compute(params map[string]float64) (float64, error)
type CompiledFunc func(params map[string]float64) (float64, error)

// compile evaluates code inside a freshly restricted interpreter and
// returns the Compute function, without running it.
func compile(code string) (CompiledFunc, error) {
	if err := validateImports(code); err != nil {
		return nil, &SandboxFailure{Reason: err.Error()}
	}

	i := interp.New(interp.Options{})

	// Restrict the symbol table to exactly math, strconv, and statshelper:
	// no os, net, io, os/exec, or reflection symbols are ever registered,
	// so forbidden imports fail at eval time even if the text scan above
	// were bypassed.
	restricted := interp.Exports{
		"math/math":       stdlib.Symbols["math/math"],
		"strconv/strconv": stdlib.Symbols["strconv/strconv"],
	}
	if err := i.Use(restricted); err != nil {
		return nil, &SandboxFailure{Reason: fmt.Sprintf("failed to load restricted stdlib: %v", err)}
	}
	if err := i.Use(statsExports); err != nil {
		return nil, &SandboxFailure{Reason: fmt.Sprintf("failed to load statshelper: %v", err)}
	}

	if _, err := i.Eval(wrapCode(code)); err != nil {
		return nil, &SandboxFailure{Reason: fmt.Sprintf("evaluation failed: %v", err)}
	}

	v, err := i.Eval("main.Compute")
	if err != nil {
		return nil, &SandboxFailure{Reason: "Compute function not found"}
	}
	fn, ok := v.Interface().(func(map[string]float64) (float64, error))
	if !ok {
		return nil, &SandboxFailure{Reason: "Compute has incorrect signature, expected func(map[string]float64) (float64, error)"}
	}
	return fn, nil
}

// run calls fn with the hard CPU-time cap enforced via context+goroutine.
func run(ctx context.Context, fn CompiledFunc, params map[string]float64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, sandboxCPUTimeout)
	defer cancel()

	resultCh := make(chan float64, 1)
	errCh := make(chan error, 1)

	go func() {
		v, err := fn(params)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- v
	}()

	select {
	case v := <-resultCh:
		return v, nil
	case err := <-errCh:
		return 0, &SandboxFailure{Reason: err.Error()}
	case <-ctx.Done():
		return 0, &SandboxFailure{Reason: "execution timed out"}
	}
}

func wrapCode(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return "package main\n\n" + code
}

func validateImports(code string) error {
	lines := strings.Split(code, "\n")
	inBlock := false
	var forbidden []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
			continue
		}
		if inBlock && strings.HasPrefix(trimmed, ")") {
			inBlock = false
			continue
		}
		var pkg string
		switch {
		case inBlock && trimmed != "":
			pkg = strings.Trim(trimmed, `"`)
		case strings.HasPrefix(trimmed, "import "):
			pkg = strings.Trim(strings.TrimPrefix(trimmed, "import "), `"`)
		default:
			continue
		}
		if pkg != "" && !allowedImportPaths[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %v", forbidden)
	}
	return nil
}
