package score

import "github.com/pagepulse/pagepulse/internal/metrics"

// MaxScore is the score of a snapshot with no observed regressions.
const MaxScore = 100

// Two-tier deduction thresholds per metric. A metric past its poor threshold
// takes the poor penalty only — the lower tier is not applied on top.
const (
	fcpNeedsImprovementMs = 1000.0
	fcpPoorMs             = 1800.0
	lcpNeedsImprovementMs = 2500.0
	lcpPoorMs             = 4000.0
	fidNeedsImprovementMs = 100.0
	fidPoorMs             = 300.0
	clsNeedsImprovement   = 0.1
	clsPoor               = 0.25
)

// Penalties per tier.
const (
	fcpNeedsImprovementPenalty = 5
	fcpPoorPenalty             = 15
	lcpNeedsImprovementPenalty = 10
	lcpPoorPenalty             = 20
	fidNeedsImprovementPenalty = 5
	fidPoorPenalty             = 15
	clsNeedsImprovementPenalty = 10
	clsPoorPenalty             = 20
)

// Rating labels derived from a score.
const (
	RatingGood             = "good"
	RatingNeedsImprovement = "needs-improvement"
	RatingPoor             = "poor"
)

// Thresholds that map a score to a rating.
const (
	thresholdGood             = 90
	thresholdNeedsImprovement = 50
)

// Score maps a snapshot to a health score in [0, 100]. Deductions are
// independent per metric; an unset metric deducts nothing. The result never
// goes below zero.
func Score(s metrics.Snapshot) int {
	score := MaxScore

	score -= deduct(s.FirstContentfulPaintMs,
		fcpPoorMs, fcpPoorPenalty,
		fcpNeedsImprovementMs, fcpNeedsImprovementPenalty)
	score -= deduct(s.LargestContentfulPaintMs,
		lcpPoorMs, lcpPoorPenalty,
		lcpNeedsImprovementMs, lcpNeedsImprovementPenalty)
	score -= deduct(s.FirstInputDelayMs,
		fidPoorMs, fidPoorPenalty,
		fidNeedsImprovementMs, fidNeedsImprovementPenalty)
	score -= deduct(s.CumulativeLayoutShift,
		clsPoor, clsPoorPenalty,
		clsNeedsImprovement, clsNeedsImprovementPenalty)

	if score < 0 {
		score = 0
	}
	return score
}

// Rating maps a score to a named rating label.
func Rating(score int) string {
	switch {
	case score >= thresholdGood:
		return RatingGood
	case score >= thresholdNeedsImprovement:
		return RatingNeedsImprovement
	default:
		return RatingPoor
	}
}

// deduct returns the single matching tier's penalty for one metric value.
// Poor is checked first; nil values deduct nothing.
func deduct(v *float64, poorAt float64, poorPenalty int, needsImprovementAt float64, needsImprovementPenalty int) int {
	switch {
	case v == nil:
		return 0
	case *v > poorAt:
		return poorPenalty
	case *v > needsImprovementAt:
		return needsImprovementPenalty
	default:
		return 0
	}
}
