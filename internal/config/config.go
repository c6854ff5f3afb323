package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort          = 8080
	DefaultSessionTTL        = 5 * time.Minute
	DefaultSettleWindow      = 500 * time.Millisecond
	DefaultBroadcastInterval = 5 * time.Second
)

// Config is the top-level pagepulsed configuration. Fields map 1:1 to
// the YAML config file.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Collector CollectorConfig `yaml:"collector"`
	Session   SessionConfig   `yaml:"session"`
	Budgets   BudgetsConfig   `yaml:"budgets"`
}

// ListenConfig holds the serving addresses.
type ListenConfig struct {
	// HTTPPort serves the beacon ingest WebSocket, the dashboard stream,
	// the REST API, and the Prometheus exposition endpoint.
	HTTPPort int `yaml:"http_port"`
}

// CollectorConfig holds per-session collection options.
type CollectorConfig struct {
	// ConsoleLogging mirrors every snapshot merge to the diagnostic log.
	ConsoleLogging bool `yaml:"console_logging"`

	// ResourceTiming enables the large-resource collection path.
	ResourceTiming bool `yaml:"resource_timing"`
}

// SessionConfig controls session lifecycle and propagation.
type SessionConfig struct {
	// TTL is how long an idle session is kept before eviction tears it down.
	TTL time.Duration `yaml:"ttl"`

	// SettleWindow is the debounce window for the settled snapshot that
	// feeds budget evaluation.
	SettleWindow time.Duration `yaml:"settle_window"`

	// BroadcastInterval is how often the dashboard hub pushes a full refresh.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// BudgetsConfig holds performance budget rules and webhook targets.
type BudgetsConfig struct {
	Rules    []BudgetRule    `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// BudgetRule defines one threshold condition over a session snapshot.
type BudgetRule struct {
	// Name is the human-readable budget identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "lcp_ms > 4000" or "score < 50".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after the rule fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Listen: ListenConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Session: SessionConfig{
			TTL:               DefaultSessionTTL,
			SettleWindow:      DefaultSettleWindow,
			BroadcastInterval: DefaultBroadcastInterval,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Listen.HTTPPort <= 0 || cfg.Listen.HTTPPort > 65535 {
		return fmt.Errorf("listen.http_port %d out of range", cfg.Listen.HTTPPort)
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if cfg.Session.SettleWindow <= 0 {
		return fmt.Errorf("session.settle_window must be positive")
	}
	if cfg.Session.BroadcastInterval <= 0 {
		return fmt.Errorf("session.broadcast_interval must be positive")
	}
	for i, rule := range cfg.Budgets.Rules {
		if rule.Name == "" {
			return fmt.Errorf("budgets.rules[%d]: name is required", i)
		}
		if len(strings.Fields(rule.Condition)) != 3 {
			return fmt.Errorf("budgets.rules[%d] %q: condition must be \"field op value\"", i, rule.Name)
		}
		switch rule.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("budgets.rules[%d] %q: unknown severity %q", i, rule.Name, rule.Severity)
		}
	}
	for i, wh := range cfg.Budgets.Webhooks {
		switch wh.Type {
		case "slack", "http":
		default:
			return fmt.Errorf("budgets.webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}
	return nil
}
