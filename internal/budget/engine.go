package budget

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pagepulse/pagepulse/internal/config"
	"github.com/pagepulse/pagepulse/internal/metrics"
)

const (
	defaultCooldown   = 5 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Violation represents a single budget violation produced by the rule engine.
type Violation struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	SessionID  string     `json:"session_id"`
	Page       string     `json:"page"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates performance budget rules against settled session
// snapshots and delivers webhook notifications when budgets are blown or
// recover.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []config.BudgetRule
	webhooks []config.WebhookConfig
	active   map[string]*Violation // key: "ruleName:sessionID"
	lastFire map[string]time.Time  // last fire time per key (for cooldown)
	history  []*Violation          // recently resolved violations
	client   *http.Client
}

// New creates an Engine from the budgets configuration.
// An Engine with empty rules is valid — Evaluate becomes a no-op.
func New(cfg config.BudgetsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Violation),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Reload replaces the rule set and webhook targets, typically on a config
// hot-reload. Active violations whose rule no longer exists are moved to
// history as resolved; everything else carries over, cooldowns included.
func (e *Engine) Reload(cfg config.BudgetsConfig) {
	known := make(map[string]bool, len(cfg.Rules))
	for _, r := range cfg.Rules {
		known[r.Name] = true
	}

	e.mu.Lock()
	e.rules = cfg.Rules
	e.webhooks = cfg.Webhooks

	now := time.Now()
	for key, v := range e.active {
		if known[v.RuleName] {
			continue
		}
		resolved := now
		v.State = "resolved"
		v.ResolvedAt = &resolved
		delete(e.active, key)
		e.history = append(e.history, v)
	}
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	rules := len(e.rules)
	e.mu.Unlock()

	slog.Info("budget: rules reloaded", "rules", rules)
}

// Evaluate tests all configured rules against one session's snapshot.
// Violations that fire are stored and webhook delivery is triggered
// asynchronously. Violations whose condition is no longer true are resolved.
func (e *Engine) Evaluate(sessionID, page string, snap metrics.Snapshot, scoreVal int) {
	e.mu.Lock()
	rules := e.rules
	e.mu.Unlock()

	now := time.Now()
	for _, rule := range rules {
		key := rule.Name + ":" + sessionID
		fires, value := evalCondition(rule.Condition, snap, scoreVal)

		e.mu.Lock()

		if fires {
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if now.Sub(e.lastFire[key]) > cooldown {
				sev := rule.Severity
				if sev == "" {
					sev = "warning"
				}
				v := &Violation{
					ID:        fmt.Sprintf("%s:%s:%d", rule.Name, sessionID, now.UnixNano()),
					RuleName:  rule.Name,
					SessionID: sessionID,
					Page:      page,
					Severity:  sev,
					Value:     value,
					Message: fmt.Sprintf("[%s] budget %q blown on %s — %s = %.2f",
						sev, rule.Name, page, rule.Condition, value),
					FiredAt: now,
					State:   "firing",
				}
				e.active[key] = v
				e.lastFire[key] = now
				violationCopy := *v
				e.mu.Unlock()

				slog.Warn("budget: blown",
					"rule", rule.Name,
					"session_id", sessionID,
					"page", page,
					"value", value,
					"severity", sev,
				)
				go e.deliver(&violationCopy)
			} else {
				e.mu.Unlock()
			}
		} else {
			if v, ok := e.active[key]; ok && v.State == "firing" {
				resolved := now
				v.State = "resolved"
				v.ResolvedAt = &resolved
				delete(e.active, key)

				e.history = append(e.history, v)
				if len(e.history) > maxHistoryLen {
					e.history = e.history[len(e.history)-maxHistoryLen:]
				}
				violationCopy := *v
				e.mu.Unlock()

				slog.Info("budget: recovered",
					"rule", rule.Name,
					"session_id", sessionID,
				)
				go e.deliver(&violationCopy)
			} else {
				e.mu.Unlock()
			}
		}
	}
}

// Active returns copies of all currently firing violations plus any resolved
// within the past hour, firing first.
func (e *Engine) Active() []*Violation {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-recentWindowHours * time.Hour)
	out := make([]*Violation, 0, len(e.active))

	for _, v := range e.active {
		cp := *v
		out = append(out, &cp)
	}
	for _, v := range e.history {
		if v.ResolvedAt != nil && v.ResolvedAt.After(cutoff) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out
}
