package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Redis.TTL != 24*time.Hour {
		t.Errorf("Redis.TTL = %v", cfg.Redis.TTL)
	}
	if cfg.Agent.MaxIterations != 5 || cfg.Agent.WindowMax != 20 {
		t.Errorf("Agent = %+v", cfg.Agent)
	}
	if cfg.Splitter.MaxSegmentSize != 500 || cfg.Splitter.MaxOverlap != 50 {
		t.Errorf("Splitter = %+v", cfg.Splitter)
	}
	if cfg.Retrieval.TopK != 3 || cfg.Retrieval.SearchTopK != 5 || cfg.Retrieval.MinScore != 0.5 {
		t.Errorf("Retrieval = %+v", cfg.Retrieval)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
openai:
  model: gpt-4o
  dimensions: 3072
agent:
  max_iterations: 8
redis:
  ttl: 1h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.OpenAI.Model != "gpt-4o" || cfg.OpenAI.Dimensions != 3072 {
		t.Errorf("OpenAI = %+v", cfg.OpenAI)
	}
	if cfg.Agent.MaxIterations != 8 {
		t.Errorf("MaxIterations = %d", cfg.Agent.MaxIterations)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Errorf("Redis.TTL = %v", cfg.Redis.TTL)
	}
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	path := writeConfig(t, strings.Repeat("x: value\n", 200000))

	_, err := Load(path)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("error = %v, want a size complaint", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")

	_, err := Load(path)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("QDRANT_URL", "http://qdrant.internal:6333")
	t.Setenv("PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("APIKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Qdrant.URL != "http://qdrant.internal:6333" {
		t.Errorf("Qdrant.URL = %q", cfg.Qdrant.URL)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		cfg.OpenAI.APIKey = "key"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.OpenAI.APIKey = "" }},
		{"overlap >= segment size", func(c *Config) { c.Splitter.MaxOverlap = 500 }},
		{"min score out of range", func(c *Config) { c.Retrieval.MinScore = 1.5 }},
		{"negative iterations", func(c *Config) { c.Agent.MaxIterations = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
				t.Errorf("error = %v, want ErrConfiguration", err)
			}
		})
	}
}
