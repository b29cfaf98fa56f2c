package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/procweave/orchestrator/internal/bandit"
	"github.com/procweave/orchestrator/internal/circuitbreaker"
	"github.com/procweave/orchestrator/internal/config"
	"github.com/procweave/orchestrator/internal/contextrl"
	"github.com/procweave/orchestrator/internal/health"
	"github.com/procweave/orchestrator/internal/jsonrpc"
	"github.com/procweave/orchestrator/internal/knowledge"
	"github.com/procweave/orchestrator/internal/llm"
	"github.com/procweave/orchestrator/internal/rl"
	"github.com/procweave/orchestrator/internal/session"
	"github.com/procweave/orchestrator/internal/store"
	"github.com/procweave/orchestrator/internal/tools"
	"github.com/procweave/orchestrator/internal/toolsrpc"
	"github.com/procweave/orchestrator/internal/tracing"
	"github.com/procweave/orchestrator/internal/worker"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if err := tracing.Initialize(tracing.Config{
		Enabled:     os.Getenv("TRACING_ENABLED") == "1",
		ServiceName: "procweave-orchestrator",
	}, logger); err != nil {
		logger.Warn("tracing initialization failed, continuing without it", zap.Error(err))
	}

	hm := health.NewManager(logger)

	caseLogStore, err := store.Open(storePath(cfg, "case_log.json"), []rl.Entry{})
	if err != nil {
		logger.Fatal("failed to open case log store", zap.Error(err))
	}
	banditStore, err := store.Open(storePath(cfg, "strategy_bandit.json"), bandit.State{})
	if err != nil {
		logger.Fatal("failed to open bandit store", zap.Error(err))
	}
	knowledgeStore, err := store.Open(storePath(cfg, "knowledge_base.json"), []knowledge.Fact{})
	if err != nil {
		logger.Fatal("failed to open knowledge store", zap.Error(err))
	}
	entityStore, err := store.Open(storePath(cfg, "entity_memory.json"), map[string]knowledge.Record{})
	if err != nil {
		logger.Fatal("failed to open entity memory store", zap.Error(err))
	}
	registryStore, err := store.Open(storePath(cfg, "tool_registry.json"), map[string]tools.Registration{})
	if err != nil {
		logger.Fatal("failed to open tool registry store", zap.Error(err))
	}
	templateStore, err := store.Open(storePath(cfg, "synthesized_definitions.json"), map[string]worker.StoredTemplate{})
	if err != nil {
		logger.Fatal("failed to open synthesized template store", zap.Error(err))
	}

	caseLog := rl.New(caseLogStore.Get())
	strategyBandit := bandit.New(banditStore.Get())
	knowledgeBase := knowledge.NewBase(knowledgeStore.Get())
	entityMemory := knowledge.NewMemory(entityStore.Get())
	ctxTracker := contextrl.New()
	sessions := session.New()

	llmBreaker := circuitbreaker.NewHTTPWrapper(&http.Client{Timeout: 30 * time.Second}, "llm-completions", "llm", logger)
	llmClient := llm.New(llm.Config{
		APIKey:         cfg.AnthropicAPIKey,
		BaseURL:        cfg.LLMBaseURL,
		FallbackModel:  cfg.FallbackModel,
		RequestTimeout: 30 * time.Second,
		HTTPClient:     llmBreaker,
	})

	toolsBreaker := circuitbreaker.NewHTTPWrapper(nil, "tools-rpc", "tools", logger)
	toolRateLimits := toolsrpc.RateLimits{
		GlobalPerSecond:  cfg.ToolRPCGlobalRateLimit,
		GlobalBurst:      cfg.ToolRPCGlobalBurst,
		SessionPerSecond: cfg.ToolRPCSessionRateLimit,
		SessionBurst:     cfg.ToolRPCSessionBurst,
	}
	newToolsClient := func(endpoint string) *toolsrpc.Client {
		return toolsrpc.New(endpoint, cfg.ToolTimeout, toolsBreaker, toolRateLimits)
	}

	// sharedRegistry is constructed once and reused across tasks: tools
	// synthesised mid-task must remain registered for every later task, not
	// just the one that triggered synthesis.
	sharedRegistry := tools.NewRegistry(registryStore.Get())
	newRegistry := func() *tools.Registry { return sharedRegistry }

	w := worker.New(llmClient, sessions, caseLog, strategyBandit, knowledgeBase, entityMemory, ctxTracker,
		templateStore, cfg.GreenAgentMCPURL, cfg.ToolTimeout, cfg.TaskTimeout, newToolsClient, newRegistry)

	_ = hm.RegisterChecker(&llmHealthChecker{client: llmClient})

	go persistLoop(logger, caseLogStore, caseLog.Snapshot,
		banditStore, strategyBandit.Snapshot,
		knowledgeStore, knowledgeBase.Snapshot,
		entityStore, entityMemory.Snapshot,
		registryStore, sharedRegistry.Snapshot)

	go evictIdleSessionsLoop(sessions)

	mux := http.NewServeMux()
	registerHealthRoutes(mux, hm)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /.well-known/agent.json", agentCardHandler)
	mux.Handle("POST /tasks/send", tracingMiddleware(taskSendHandler(w, logger)))

	port := getEnvOrDefaultInt("PORT", 8080)
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  300 * time.Second,
	}

	ctx := context.Background()
	_ = hm.Start(ctx)

	go func() {
		logger.Info("orchestrator listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	_ = hm.Stop()
	persistAll(logger, caseLogStore, caseLog.Snapshot, banditStore, strategyBandit.Snapshot,
		knowledgeStore, knowledgeBase.Snapshot, entityStore, entityMemory.Snapshot,
		registryStore, sharedRegistry.Snapshot)
	logger.Info("stopped")
}

func storePath(cfg *config.Config, name string) string {
	dir := cfg.RLCacheDir
	if dir == "" {
		dir = "/app"
	}
	return dir + "/" + name
}

// taskSendHandler decodes a tasks/send JSON-RPC envelope, runs it through the
// worker, and renders the JSON-RPC response per the external interface
// contract.
func taskSendHandler(w *worker.Worker, logger *zap.Logger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(rw, jsonrpc.NewError("", jsonrpc.CodeInvalidParams, "malformed request body"))
			return
		}
		if req.Method != "tasks/send" {
			writeJSON(rw, jsonrpc.NewError(req.ID, jsonrpc.CodeMethodNotFound, "unknown method: "+req.Method))
			return
		}

		var params jsonrpc.TaskParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSON(rw, jsonrpc.NewError(req.ID, jsonrpc.CodeInvalidParams, "malformed params"))
			return
		}

		taskID := params.ID
		if taskID == "" {
			taskID = uuid.NewString()
		}
		sessionID := params.Metadata.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		text := textFromMessage(params.Message)
		out := w.Run(r.Context(), worker.TaskInput{
			TaskID:        taskID,
			SessionID:     sessionID,
			Text:          text,
			PolicyDocJSON: params.Metadata.PolicyDoc,
			ToolsEndpoint: params.Metadata.ToolsEndpoint,
		})

		writeJSON(rw, jsonrpc.NewResult(req.ID, taskID, out.Answer, out.Failed))
	}
}

func textFromMessage(m jsonrpc.Message) string {
	var sb strings.Builder
	for _, p := range m.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// agentCardHandler serves the A2A capability-metadata document.
func agentCardHandler(w http.ResponseWriter, r *http.Request) {
	card := map[string]interface{}{
		"name":        "procweave-orchestrator",
		"description": "Business-process task orchestrator: FSM/five-phase/MoA execution strategies behind a PRIME/EXECUTE/REFLECT pipeline.",
		"capabilities": map[string]bool{
			"streaming": false,
			"pushNotifications": false,
		},
		"skills": []string{
			"invoice_approval", "purchase_order", "expense_reimbursement",
			"vendor_onboarding", "hr_offboarding", "hr_onboarding",
			"contract_renewal", "sla_credit_review", "refund_processing",
			"access_revocation", "payroll_adjustment", "lease_termination",
			"compliance_audit", "order_fulfillment",
		},
	}
	writeJSON(w, card)
}

func registerHealthRoutes(mux *http.ServeMux, hm *health.Manager) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		detailed := hm.GetDetailedHealth(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if detailed.Overall.Status == health.StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(detailed)
	})
	mux.HandleFunc("GET /readiness", func(w http.ResponseWriter, r *http.Request) {
		if !hm.IsReady(r.Context()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartHTTPSpan(r.Context(), r.Method, r.URL.String())
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// llmHealthChecker is a trivial critical checker confirming an LLM
// client was constructed; it never calls out, keeping /health cheap.
type llmHealthChecker struct {
	client llm.Client
}

func (c *llmHealthChecker) Name() string { return "llm_client" }
func (c *llmHealthChecker) Check(ctx context.Context) health.CheckResult {
	if c.client == nil {
		return health.CheckResult{Status: health.StatusUnhealthy, Message: "no LLM client configured"}
	}
	return health.CheckResult{Status: health.StatusHealthy}
}
func (c *llmHealthChecker) IsCritical() bool     { return true }
func (c *llmHealthChecker) Timeout() time.Duration { return time.Second }

func persistLoop(logger *zap.Logger,
	caseLogStore *store.JSONStore[[]rl.Entry], caseLogSnap func() []rl.Entry,
	banditStore *store.JSONStore[bandit.State], banditSnap func() bandit.State,
	knowledgeStore *store.JSONStore[[]knowledge.Fact], knowledgeSnap func() []knowledge.Fact,
	entityStore *store.JSONStore[map[string]knowledge.Record], entitySnap func() map[string]knowledge.Record,
	registryStore *store.JSONStore[map[string]tools.Registration], registrySnap func() map[string]tools.Registration) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		persistAll(logger, caseLogStore, caseLogSnap, banditStore, banditSnap, knowledgeStore, knowledgeSnap,
			entityStore, entitySnap, registryStore, registrySnap)
	}
}

func persistAll(logger *zap.Logger,
	caseLogStore *store.JSONStore[[]rl.Entry], caseLogSnap func() []rl.Entry,
	banditStore *store.JSONStore[bandit.State], banditSnap func() bandit.State,
	knowledgeStore *store.JSONStore[[]knowledge.Fact], knowledgeSnap func() []knowledge.Fact,
	entityStore *store.JSONStore[map[string]knowledge.Record], entitySnap func() map[string]knowledge.Record,
	registryStore *store.JSONStore[map[string]tools.Registration], registrySnap func() map[string]tools.Registration) {
	if err := caseLogStore.Update(func([]rl.Entry) []rl.Entry { return caseLogSnap() }); err != nil {
		logger.Warn("failed to persist case log", zap.Error(err))
	}
	if err := banditStore.Update(func(bandit.State) bandit.State { return banditSnap() }); err != nil {
		logger.Warn("failed to persist bandit state", zap.Error(err))
	}
	if err := knowledgeStore.Update(func([]knowledge.Fact) []knowledge.Fact { return knowledgeSnap() }); err != nil {
		logger.Warn("failed to persist knowledge base", zap.Error(err))
	}
	if err := entityStore.Update(func(map[string]knowledge.Record) map[string]knowledge.Record { return entitySnap() }); err != nil {
		logger.Warn("failed to persist entity memory", zap.Error(err))
	}
	if err := registryStore.Update(func(map[string]tools.Registration) map[string]tools.Registration { return registrySnap() }); err != nil {
		logger.Warn("failed to persist tool registry", zap.Error(err))
	}
}

func evictIdleSessionsLoop(sessions *session.Store) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for now := range ticker.C {
		sessions.EvictIdle(now)
	}
}

func getEnvOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
