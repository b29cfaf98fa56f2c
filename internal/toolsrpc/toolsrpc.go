// Package toolsrpc is the outbound client for the tool-server RPC surface:
// discover_tools and call_tool, framed as JSON-RPC 2.0 over HTTP.
package toolsrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/procweave/orchestrator/internal/circuitbreaker"
)

// RateLimits configures the outbound call shaping applied before every
// discover_tools/call_tool request: one global limiter shared across all
// sessions, plus a per-session limiter keyed lazily on first use. Grounded
// on the teacher's BudgetManager.SetRateLimit/CheckRateLimit
// (internal/budget/manager.go), adapted from its non-blocking Allow() check
// to Wait(ctx) since a shaped tool call should queue rather than fail.
type RateLimits struct {
	GlobalPerSecond  float64
	GlobalBurst      int
	SessionPerSecond float64
	SessionBurst     int
}

// ToolSchema describes one tool available from a tools endpoint, in
// model-tool-call format.
type ToolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// CallError wraps a non-2xx or exception outcome from call_tool.
type CallError struct {
	ToolName string
	Message  string
}

func (e *CallError) Error() string { return fmt.Sprintf("tool call %q failed: %s", e.ToolName, e.Message) }

// Client talks to a single tools endpoint over JSON-RPC 2.0.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *circuitbreaker.HTTPWrapper

	limits          RateLimits
	globalLimiter   *rate.Limiter
	sessionMu       sync.Mutex
	sessionLimiters map[string]*rate.Limiter
}

// New constructs a tool-RPC client for the given endpoint URL. A zero-value
// RateLimits disables shaping on the corresponding scope (rate.NewLimiter
// with Inf/0 never blocks Wait).
func New(endpoint string, timeout time.Duration, breaker *circuitbreaker.HTTPWrapper, limits RateLimits) *Client {
	globalRate := rate.Inf
	if limits.GlobalPerSecond > 0 {
		globalRate = rate.Limit(limits.GlobalPerSecond)
	}
	return &Client{
		endpoint:        endpoint,
		httpClient:      &http.Client{Timeout: timeout},
		breaker:         breaker,
		limits:          limits,
		globalLimiter:   rate.NewLimiter(globalRate, maxInt(limits.GlobalBurst, 1)),
		sessionLimiters: map[string]*rate.Limiter{},
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// waitRateLimit blocks until both the global limiter and, if sessionID is
// set, that session's own limiter admit one request.
func (c *Client) waitRateLimit(ctx context.Context, sessionID string) error {
	if err := c.globalLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if sessionID == "" || c.limits.SessionPerSecond <= 0 {
		return nil
	}

	c.sessionMu.Lock()
	sl, ok := c.sessionLimiters[sessionID]
	if !ok {
		sl = rate.NewLimiter(rate.Limit(c.limits.SessionPerSecond), maxInt(c.limits.SessionBurst, 1))
		c.sessionLimiters[sessionID] = sl
	}
	c.sessionMu.Unlock()

	if err := sl.Wait(ctx); err != nil {
		return fmt.Errorf("session rate limit: %w", err)
	}
	return nil
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DiscoverTools lists the tools available on this endpoint for a session.
func (c *Client) DiscoverTools(ctx context.Context, sessionID string) ([]ToolSchema, error) {
	params, _ := json.Marshal(map[string]string{"session_id": sessionID})
	var result struct {
		Tools []ToolSchema `json:"tools"`
	}
	if err := c.do(ctx, "discover_tools", params, sessionID, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a named tool with params for a session.
func (c *Client) CallTool(ctx context.Context, name string, params map[string]string, sessionID string) (map[string]interface{}, error) {
	reqParams, _ := json.Marshal(map[string]interface{}{
		"name": name, "params": params, "session_id": sessionID,
	})
	var result map[string]interface{}
	if err := c.do(ctx, "call_tool", reqParams, sessionID, &result); err != nil {
		return nil, &CallError{ToolName: name, Message: err.Error()}
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method string, params json.RawMessage, sessionID string, out interface{}) error {
	if err := c.waitRateLimit(ctx, sessionID); err != nil {
		return err
	}

	env := rpcEnvelope{JSONRPC: "2.0", ID: method, Method: method, Params: params}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp *http.Response
	if c.breaker != nil {
		resp, err = c.breaker.Do(req)
	} else {
		resp, err = c.httpClient.Do(req)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("tool endpoint returned status %d", resp.StatusCode)
	}

	var reply rpcReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return err
	}
	if reply.Error != nil {
		return fmt.Errorf("%s", reply.Error.Message)
	}
	return json.Unmarshal(reply.Result, out)
}
