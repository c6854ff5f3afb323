// Package config loads and watches the pagepulsed configuration file.
//
// Top-level types:
//   - Config{Listen, Collector, Session, Budgets} — full config tree parsed
//     from YAML
//   - CollectorConfig — console_logging, resource_timing (per-session
//     collection options)
//   - SessionConfig — ttl, settle_window, broadcast_interval
//   - BudgetsConfig — threshold rules ("lcp_ms > 4000") and webhook targets;
//     WebhookConfig.URL() resolves the target URL from an environment variable
//
// Load(path) reads the YAML file, applies defaults (port 8080, 5m session
// TTL, 500ms settle window, 5s broadcast), then validates ranges and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors by re-adding the watch after a rename event.
package config
