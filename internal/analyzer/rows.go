package analyzer

import (
	"github.com/a11y-auditor/auditor/internal/model"
	"github.com/a11y-auditor/auditor/internal/urlutil"
)

// Row is one cleaned, enriched violation: the raw model.Violation plus
// the derived fields the aggregations key and weight on.
type Row struct {
	model.Violation
	PageType            string
	WCAG                model.WCAGMapping
	SeverityWeight       float64
	FunnelSeverityScore float64
}

// FunnelMultipliers maps a funnel name to its FunnelDefinition's
// SeverityMultiplier, used to weight rows captured during that
// funnel's execution.
type FunnelMultipliers map[string]float64

// Clean implements spec §4.6's cleaning/enrichment pipeline: drop rows
// missing required fields, derive page_type, coerce impact, dedupe,
// join WCAG, and compute the funnel-weighted severity score. The
// input ViolationSet is assumed already deduplicated by the Scanner
// (model.ViolationSet.Add); Clean re-dedupes defensively since the
// analyzer may also be fed hand-assembled or merged violation data.
func Clean(vs model.ViolationSet, weights model.SeverityWeights, multipliers FunnelMultipliers) []Row {
	seen := make(map[string]struct{})
	rows := make([]Row, 0, len(vs.Violations))

	for _, v := range vs.Violations {
		if v.ViolationID == "" || v.PageURL == "" || v.Impact == "" {
			continue
		}
		v.Impact = model.ParseImpact(string(v.Impact))

		key := v.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		weight := weights.Weight(v.Impact)
		multiplier := 1.0
		if v.FunnelName != "" {
			if m, ok := multipliers[v.FunnelName]; ok {
				multiplier = m
			}
		}

		rows = append(rows, Row{
			Violation:           v,
			PageType:            urlutil.PageType(v.PageURL),
			WCAG:                WCAGLookup(v.ViolationID),
			SeverityWeight:       weight,
			FunnelSeverityScore: weight * multiplier,
		})
	}
	return rows
}
