// Package convert reshapes crawled pages into schema-conforming records by
// way of a pluggable text-generation backend.
package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-to-json/config"
)

// Generator is the capability contract shared by all AI backends. Ordinary
// provider failures (timeouts, quota, malformed replies) come back as an
// error value; implementations never panic across this boundary.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Name() string
}

// NewGenerator selects a backend by provider name. Unknown names and
// missing credentials are configuration errors: the pipeline cannot run, so
// construction fails instead of deferring the problem to the first call.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return newOpenAIGenerator("openai", cfg.APIKey, "OPENAI_API_KEY", "", cfg.Model, "OPENAI_API_MODEL", "gpt-4-turbo-preview")
	case "grok":
		return newOpenAIGenerator("grok", cfg.APIKey, "XAI_API_KEY", grokBaseURL, cfg.Model, "XAI_API_MODEL", "grok-beta")
	case "claude":
		return newClaudeGenerator(cfg.APIKey, cfg.Model)
	case "gemini":
		return newGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q: use gemini, claude, openai, or grok", cfg.Provider)
	}
}

// resolveCredential returns the explicit key or falls back to the named
// environment variable.
func resolveCredential(explicit, envKey string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if value, ok := config.EnvString(envKey); ok {
		return value, nil
	}
	return "", fmt.Errorf("%s environment variable not set", envKey)
}

// resolveModel returns the explicit model, the env override, or the default.
func resolveModel(explicit, envKey, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if value, ok := config.EnvString(envKey); ok {
		return value
	}
	return fallback
}
