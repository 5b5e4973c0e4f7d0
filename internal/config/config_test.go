package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Todos.IDStrategy != "count" {
		t.Errorf("IDStrategy = %s, want count", cfg.Todos.IDStrategy)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %s, want memory", cfg.Storage.Driver)
	}
	if cfg.Text.MaxKeywords != 10 {
		t.Errorf("Text.MaxKeywords = %d, want 10", cfg.Text.MaxKeywords)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
  request_timeout: 2s
todos:
  id_strategy: sequence
storage:
  driver: sqlite3
  dsn: "file:todos.db"
text:
  extra_stop_words: ["the", "a"]
  max_keywords: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %s, want :9090", cfg.Server.Addr)
	}
	if cfg.Server.RequestTimeout != 2*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 2s", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxCCU != 5000 {
		t.Errorf("Server.MaxCCU = %d, want default 5000", cfg.Server.MaxCCU)
	}
	if cfg.Todos.IDStrategy != "sequence" {
		t.Errorf("IDStrategy = %s, want sequence", cfg.Todos.IDStrategy)
	}
	if cfg.Storage.DSN != "file:todos.db" {
		t.Errorf("Storage.DSN = %s, want file:todos.db", cfg.Storage.DSN)
	}
	if len(cfg.Text.ExtraStopWords) != 2 || cfg.Text.MaxKeywords != 5 {
		t.Errorf("Text = %+v, want 2 stop words and 5 keywords", cfg.Text)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[log]
level = "debug"
format = "json"

[events]
driver = "nats"
nats_url = "nats://localhost:4222"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
	if cfg.Events.Driver != "nats" || cfg.Events.Subject != "events" {
		t.Errorf("Events = %+v, want nats with default subject", cfg.Events)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TODO_SERVER_ADDR", ":7070")
	t.Setenv("TODO_TODOS_ID_STRATEGY", "sequence")
	t.Setenv("TODO_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("TODO_TEXT_EXTRA_STOP_WORDS", "foo, bar")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %s, want :7070", cfg.Server.Addr)
	}
	if cfg.Todos.IDStrategy != "sequence" {
		t.Errorf("IDStrategy = %s, want sequence", cfg.Todos.IDStrategy)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("Auth.JWTSecret = %s, want s3cret", cfg.Auth.JWTSecret)
	}
	if strings.Join(cfg.Text.ExtraStopWords, "|") != "foo|bar" {
		t.Errorf("ExtraStopWords = %v, want [foo bar]", cfg.Text.ExtraStopWords)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad id strategy", func(c *Config) { c.Todos.IDStrategy = "uuid" }},
		{"bad storage driver", func(c *Config) { c.Storage.Driver = "mysql" }},
		{"sql without dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"nats without url", func(c *Config) { c.Events.Driver = "nats" }},
		{"zipkin without url", func(c *Config) { c.Tracing.Exporter = "zipkin" }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"utilization over 100", func(c *Config) { c.Server.UtilizationPercent = 120 }},
		{"zero keywords", func(c *Config) { c.Text.MaxKeywords = 0 }},
		{"bad summary language", func(c *Config) { c.Text.SummaryLanguage = "fr" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"negative request timeout", func(c *Config) { c.Server.RequestTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want failure")
			}
		})
	}
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "todo-service.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if cfg.Server.Addr != def.Server.Addr || cfg.Server.RequestTimeout != def.Server.RequestTimeout {
		t.Errorf("server = %+v, want defaults %+v", cfg.Server, def.Server)
	}
	if cfg.Storage.Driver != "memory" || cfg.Todos.IDStrategy != "count" {
		t.Errorf("storage driver = %q, id strategy = %q", cfg.Storage.Driver, cfg.Todos.IDStrategy)
	}
	if cfg.Text.MaxKeywords != 10 {
		t.Errorf("max keywords = %d, want 10", cfg.Text.MaxKeywords)
	}
}
