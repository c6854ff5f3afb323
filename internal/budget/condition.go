package budget

import (
	"strconv"
	"strings"

	"github.com/pagepulse/pagepulse/internal/metrics"
)

// evalCondition evaluates a budget condition string against a session
// snapshot and its score.
//
// Supported expressions (field operator value):
//
//	fcp_ms > 1800
//	lcp_ms > 4000
//	fid_ms > 300
//	cls > 0.25
//	score < 50
//	ttfb_ms > 800
//	load_event_ms > 6000
//	resource_count >= 5
//	largest_resource_bytes > 1000000
//
// Returns (fires bool, triggering value float64). A condition over a metric
// the session has not observed yet does not fire. Unparseable expressions
// and unknown fields return (false, 0).
func evalCondition(cond string, snap metrics.Snapshot, scoreVal int) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}

	v, ok := numericField(field, snap, scoreVal)
	if !ok {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the snapshot.
// ok is false when the field is unknown or its metric is still unset.
func numericField(field string, snap metrics.Snapshot, scoreVal int) (v float64, ok bool) {
	switch field {
	case "fcp_ms":
		return deref(snap.FirstContentfulPaintMs)
	case "lcp_ms":
		return deref(snap.LargestContentfulPaintMs)
	case "fid_ms":
		return deref(snap.FirstInputDelayMs)
	case "cls":
		return deref(snap.CumulativeLayoutShift)
	case "score":
		return float64(scoreVal), true
	case "ttfb_ms":
		if snap.Navigation == nil {
			return 0, false
		}
		return snap.Navigation.TimeToFirstByteMs, true
	case "load_event_ms":
		if snap.Navigation == nil {
			return 0, false
		}
		return snap.Navigation.LoadEventMs, true
	case "resource_count":
		return float64(len(snap.LargeResources)), true
	case "largest_resource_bytes":
		if len(snap.LargeResources) == 0 {
			return 0, true
		}
		// LargeResources is sorted descending by transfer size.
		return float64(snap.LargeResources[0].TransferSize), true
	default:
		return 0, false
	}
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
