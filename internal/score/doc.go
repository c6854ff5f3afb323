// Package score maps a web-vitals snapshot to a 0–100 health score.
//
// Score starts at 100 and applies an independent two-tier deduction per
// metric (needs-improvement vs poor); see the threshold and penalty constants
// in score.go. Unset metrics deduct nothing, and the floor is 0.
// Rating maps a score to "good", "needs-improvement", or "poor".
package score
