package budget

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// deliver sends webhook notifications for v to all configured targets.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(v *Violation) {
	e.mu.Lock()
	webhooks := e.webhooks
	e.mu.Unlock()

	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = e.sendSlack(url, v)
		case "http":
			err = e.sendHTTP(url, v)
		default:
			slog.Warn("budget: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("budget: webhook delivery failed",
				"type", wh.Type,
				"rule", v.RuleName,
				"err", err,
			)
		} else {
			slog.Debug("budget: webhook delivered",
				"type", wh.Type,
				"rule", v.RuleName,
				"state", v.State,
			)
		}
	}
}

func (e *Engine) sendSlack(url string, v *Violation) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", severityLabel(v.Severity), v.Message),
	})
	return e.post(url, body)
}

func (e *Engine) sendHTTP(url string, v *Violation) error {
	body, _ := json.Marshal(map[string]interface{}{"violation": v})
	return e.post(url, body)
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}
