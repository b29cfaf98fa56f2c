// Package config loads runtime configuration via viper: environment
// variables first, then an optional config file overlay, then defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds process-orchestrator runtime configuration.
type Config struct {
	AnthropicAPIKey  string
	LLMBaseURL       string
	GreenAgentMCPURL string
	FallbackModel    string
	ToolTimeout      time.Duration
	TaskTimeout      time.Duration
	RLCacheDir       string
	MetricsPort      string

	ToolRPCGlobalRateLimit  float64
	ToolRPCGlobalBurst      int
	ToolRPCSessionRateLimit float64
	ToolRPCSessionBurst     int

	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
}

// Load reads configuration from CONFIG_PATH (or /app/config/orchestrator.yaml
// if present) with environment variables taking precedence over the file,
// and documented defaults for anything set by neither. ANTHROPIC_API_KEY is
// the only required value; its absence is a startup-fatal condition left to
// the caller.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("fallback_model", "claude-3-5-haiku-20241022")
	v.SetDefault("rl_cache_dir", "/app")
	v.SetDefault("metrics_port", "9090")
	v.SetDefault("tool_timeout", 10)
	v.SetDefault("task_timeout", 120)
	v.SetDefault("tool_rpc_global_rate_limit", 50)
	v.SetDefault("tool_rpc_global_burst", 20)
	v.SetDefault("tool_rpc_session_rate_limit", 5)
	v.SetDefault("tool_rpc_session_burst", 3)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "/app/config/orchestrator.yaml"
	}
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", cfgPath, err)
			}
		}
	}

	cfg := &Config{
		AnthropicAPIKey:   v.GetString("anthropic_api_key"),
		LLMBaseURL:        v.GetString("llm_base_url"),
		GreenAgentMCPURL:  v.GetString("green_agent_mcp_url"),
		FallbackModel:     v.GetString("fallback_model"),
		RLCacheDir:        v.GetString("rl_cache_dir"),
		MetricsPort:       v.GetString("metrics_port"),
		ToolTimeout:       time.Duration(v.GetInt("tool_timeout")) * time.Second,
		TaskTimeout:       time.Duration(v.GetInt("task_timeout")) * time.Second,
		ToolRPCGlobalRateLimit:  v.GetFloat64("tool_rpc_global_rate_limit"),
		ToolRPCGlobalBurst:      v.GetInt("tool_rpc_global_burst"),
		ToolRPCSessionRateLimit: v.GetFloat64("tool_rpc_session_rate_limit"),
		ToolRPCSessionBurst:     v.GetInt("tool_rpc_session_burst"),
		S3AccessKeyID:     v.GetString("aws_access_key_id"),
		S3SecretAccessKey: v.GetString("aws_secret_access_key"),
		S3Bucket:          v.GetString("rl_seed_bucket"),
	}

	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("config: ANTHROPIC_API_KEY is required")
	}
	return cfg, nil
}
