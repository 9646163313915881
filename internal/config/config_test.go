package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8080" || cfg.Sessions.CookieName != "portal_sid" || cfg.Sessions.Backend != BackendMemory {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	content := `
server:
  port: 4000
api:
  base_url: https://api.example.com
  timeout: 5s
sessions:
  backend: redis
exams:
  idle_timeout: 90m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "4100")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("DRAFTS_DIR", "/srv/drafts")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("env should override file, port = %d", cfg.Server.Port)
	}
	if cfg.API.BaseURL != "https://api.example.com" || cfg.API.Timeout != 5*time.Second {
		t.Errorf("file values not applied: %+v", cfg.API)
	}
	if cfg.Sessions.Backend != BackendRedis || cfg.Exams.IdleTimeout != 90*time.Minute {
		t.Errorf("unexpected sessions/exams %+v %+v", cfg.Sessions, cfg.Exams)
	}
	if cfg.Sessions.CookieName != "portal_sid" || cfg.Exams.SweepInterval != 5*time.Minute {
		t.Error("defaults should survive a partial file")
	}
	if cfg.Logging.Pretty {
		t.Error("LOG_PRETTY=false not applied")
	}
	if cfg.Drafts.Dir != "/srv/drafts" {
		t.Errorf("Drafts.Dir = %q", cfg.Drafts.Dir)
	}
	if cfg.Address() != "0.0.0.0:4100" {
		t.Errorf("Address = %q", cfg.Address())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"api url", func(c *Config) { c.API.BaseURL = "localhost" }, "invalid api base url"},
		{"backend", func(c *Config) { c.Sessions.Backend = "etcd" }, "unknown session backend"},
		{"postgres dsn", func(c *Config) { c.Sessions.Backend = BackendPostgres }, "database DSN is required"},
		{"cookie", func(c *Config) { c.Sessions.CookieName = "" }, "cookie name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want %q", err, tt.want)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("server: [unclosed"), 0o644)
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}
