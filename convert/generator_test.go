package convert

import (
	"context"
	"strings"
	"testing"

	"github.com/aluiziolira/go-scrape-to-json/config"
)

func TestNewGeneratorUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = "watson"

	_, err := NewGenerator(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("err = %v, want unknown provider", err)
	}
}

func TestNewGeneratorMissingCredential(t *testing.T) {
	tests := []struct {
		provider string
		envKey   string
	}{
		{provider: "openai", envKey: "OPENAI_API_KEY"},
		{provider: "claude", envKey: "ANTHROPIC_API_KEY"},
		{provider: "grok", envKey: "XAI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			t.Setenv(tt.envKey, "")

			cfg := config.DefaultConfig()
			cfg.Provider = tt.provider

			_, err := NewGenerator(context.Background(), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.envKey) {
				t.Fatalf("err = %v, want mention of %s", err, tt.envKey)
			}
		})
	}
}

func TestNewGeneratorProviderNameNormalized(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg := config.DefaultConfig()
	cfg.Provider = "  OpenAI  "

	gen, err := NewGenerator(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if gen.Name() != "openai" {
		t.Fatalf("name = %q, want openai", gen.Name())
	}
}

func TestResolveModelPrecedence(t *testing.T) {
	t.Setenv("TEST_MODEL_ENV", "env-model")

	if got := resolveModel("explicit", "TEST_MODEL_ENV", "default"); got != "explicit" {
		t.Fatalf("explicit model should win, got %q", got)
	}
	if got := resolveModel("", "TEST_MODEL_ENV", "default"); got != "env-model" {
		t.Fatalf("env model should win over default, got %q", got)
	}
	if got := resolveModel("", "TEST_MODEL_ENV_MISSING", "default"); got != "default" {
		t.Fatalf("default model expected, got %q", got)
	}
}

func TestResolveCredentialExplicitWins(t *testing.T) {
	t.Setenv("TEST_KEY_ENV", "env-key")

	key, err := resolveCredential("explicit-key", "TEST_KEY_ENV")
	if err != nil || key != "explicit-key" {
		t.Fatalf("resolveCredential = %q, %v", key, err)
	}

	key, err = resolveCredential("", "TEST_KEY_ENV")
	if err != nil || key != "env-key" {
		t.Fatalf("resolveCredential = %q, %v", key, err)
	}
}
