package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
listen:
  http_port: 9100
collector:
  console_logging: true
  resource_timing: true
session:
  ttl: 2m
  settle_window: 250ms
  broadcast_interval: 3s
budgets:
  rules:
    - name: slow-lcp
      condition: "lcp_ms > 4000"
      severity: critical
      cooldown: 10m
  webhooks:
    - type: slack
      url_env: SLACK_WEBHOOK_URL
`
	cfg := loadFromString(t, yaml)

	if cfg.Listen.HTTPPort != 9100 {
		t.Errorf("http_port: got %d", cfg.Listen.HTTPPort)
	}
	if !cfg.Collector.ConsoleLogging || !cfg.Collector.ResourceTiming {
		t.Errorf("collector options: got %+v", cfg.Collector)
	}
	if cfg.Session.TTL != 2*time.Minute {
		t.Errorf("ttl: got %v", cfg.Session.TTL)
	}
	if cfg.Session.SettleWindow != 250*time.Millisecond {
		t.Errorf("settle_window: got %v", cfg.Session.SettleWindow)
	}
	if len(cfg.Budgets.Rules) != 1 {
		t.Fatalf("rules: got %d, want 1", len(cfg.Budgets.Rules))
	}
	rule := cfg.Budgets.Rules[0]
	if rule.Name != "slow-lcp" || rule.Cooldown != 10*time.Minute {
		t.Errorf("rule: got %+v", rule)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, "collector:\n  resource_timing: true\n")

	if cfg.Listen.HTTPPort != DefaultHTTPPort {
		t.Errorf("default http_port: got %d, want %d", cfg.Listen.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Session.TTL != DefaultSessionTTL {
		t.Errorf("default ttl: got %v, want %v", cfg.Session.TTL, DefaultSessionTTL)
	}
	if cfg.Session.SettleWindow != DefaultSettleWindow {
		t.Errorf("default settle_window: got %v, want %v", cfg.Session.SettleWindow, DefaultSettleWindow)
	}
	if cfg.Session.BroadcastInterval != DefaultBroadcastInterval {
		t.Errorf("default broadcast_interval: got %v, want %v",
			cfg.Session.BroadcastInterval, DefaultBroadcastInterval)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	_, err := loadStringErr(t, "listen:\n  http_port: -1\n")
	if err == nil {
		t.Fatal("expected error for negative port, got nil")
	}
}

func TestLoad_MalformedCondition(t *testing.T) {
	yaml := `
budgets:
  rules:
    - name: broken
      condition: "lcp_ms >"
`
	_, err := loadStringErr(t, yaml)
	if err == nil {
		t.Fatal("expected error for two-token condition, got nil")
	}
}

func TestLoad_UnknownSeverity(t *testing.T) {
	yaml := `
budgets:
  rules:
    - name: shouty
      condition: "score < 50"
      severity: catastrophic
`
	_, err := loadStringErr(t, yaml)
	if err == nil {
		t.Fatal("expected error for unknown severity, got nil")
	}
}

func TestLoad_UnknownWebhookType(t *testing.T) {
	yaml := `
budgets:
  webhooks:
    - type: carrier-pigeon
      url_env: COOP_URL
`
	_, err := loadStringErr(t, yaml)
	if err == nil {
		t.Fatal("expected error for unknown webhook type, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestWebhookURL_FromEnvironment(t *testing.T) {
	t.Setenv("PAGEPULSE_TEST_WEBHOOK", "https://hooks.example.com/x")

	wh := WebhookConfig{Type: "http", URLEnv: "PAGEPULSE_TEST_WEBHOOK"}
	if got := wh.URL(); got != "https://hooks.example.com/x" {
		t.Errorf("URL: got %q", got)
	}

	empty := WebhookConfig{Type: "http"}
	if got := empty.URL(); got != "" {
		t.Errorf("URL with no env: got %q, want empty", got)
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
