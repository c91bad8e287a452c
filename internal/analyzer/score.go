package analyzer

import "github.com/a11y-auditor/auditor/internal/model"

// ScoreWeights holds the conformance-score heuristic's tunable
// constants (Open Question resolution: spec.md leaves these
// unspecified; see DESIGN.md).
type ScoreWeights struct {
	SeverityMultiplier        float64
	CriticalFractionMultiplier float64
}

// DefaultScoreWeights returns the resolved defaults: 2 and 20.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{SeverityMultiplier: 2, CriticalFractionMultiplier: 20}
}

// ConformanceScore is the analyzer's heuristic, explicitly-not-legal
// conformance estimate.
type ConformanceScore struct {
	Weighted        float64
	CriticalFraction float64
	Reduction       float64
	Score           float64
	Level           string
	UniquePages     int
}

// Score implements spec §4.6's conformance-score heuristic.
func Score(rows []Row, weights ScoreWeights) ConformanceScore {
	pages := make(map[model.NormalizedURL]struct{})
	criticalPages := make(map[model.NormalizedURL]struct{})
	severitySum := 0.0

	for _, r := range rows {
		pages[r.PageURL] = struct{}{}
		severitySum += r.SeverityWeight
		if r.Impact == model.ImpactCritical {
			criticalPages[r.PageURL] = struct{}{}
		}
	}

	uniquePages := len(pages)
	if uniquePages == 0 {
		return ConformanceScore{Level: "N/A (No pages analyzed)"}
	}

	weighted := severitySum / float64(uniquePages)
	criticalFrac := float64(len(criticalPages)) / float64(uniquePages)
	reduction := weighted*weights.SeverityMultiplier + criticalFrac*weights.CriticalFractionMultiplier
	if reduction > 100 {
		reduction = 100
	}
	score := 100 - reduction
	if score < 0 {
		score = 0
	}

	return ConformanceScore{
		Weighted:         weighted,
		CriticalFraction: criticalFrac,
		Reduction:        reduction,
		Score:            score,
		Level:            levelFor(score),
		UniquePages:      uniquePages,
	}
}

func levelFor(score float64) string {
	switch {
	case score >= 95:
		return "AA (potential)"
	case score >= 85:
		return "A (potential)"
	case score >= 70:
		return "Non-conformant (minor)"
	case score >= 40:
		return "Non-conformant (moderate)"
	default:
		return "Non-conformant (major)"
	}
}
