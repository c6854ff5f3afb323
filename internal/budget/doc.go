// Package budget implements the performance-budget rule engine and webhook
// delivery. Rules are threshold conditions over settled session snapshots
// ("lcp_ms > 4000", "score < 50"); violations are delivered to Slack or
// generic HTTP targets with per-rule cooldowns.
package budget
