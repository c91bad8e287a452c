package analyzer

import "github.com/a11y-auditor/auditor/internal/model"

// Criticality labels a template's projected priority score.
type Criticality string

const (
	CriticalityHigh   Criticality = "High"
	CriticalityMedium Criticality = "Medium"
	CriticalityLow    Criticality = "Low"
)

// TemplateProjection estimates a template cluster's site-wide impact
// from the violations found on its single representative page.
type TemplateProjection struct {
	TemplateID       model.TemplateID
	RepresentativeURL model.NormalizedURL
	OccurrenceCount  int
	ProjectedCounts  map[model.Impact]int
	PriorityScore    float64
	Criticality      Criticality
	Estimated        bool
}

// Project implements spec §4.6's template projection: for each cluster
// with occurrence_count >= 1, multiply the representative page's
// per-impact violation counts by the cluster's member count, derive a
// priority score normalized back per-member, and label criticality
// against the serious/moderate severity weight thresholds.
func Project(rows []Row, state *model.DomainCrawlState, weights model.SeverityWeights) []TemplateProjection {
	if state == nil {
		return nil
	}

	byPage := make(map[model.NormalizedURL][]Row)
	for _, r := range rows {
		byPage[r.PageURL] = append(byPage[r.PageURL], r)
	}

	projections := make([]TemplateProjection, 0, len(state.Templates))
	for id, cluster := range state.Templates {
		occurrenceCount := cluster.Count()
		if occurrenceCount < 1 {
			continue
		}

		sample := byPage[cluster.RepresentativeURL]
		counts := make(map[model.Impact]int)
		severitySum := 0.0
		for _, r := range sample {
			counts[r.Impact]++
			severitySum += r.SeverityWeight
		}

		projected := make(map[model.Impact]int, len(counts))
		for impact, count := range counts {
			projected[impact] = count * occurrenceCount
		}

		totalProjectedSeverity := severitySum * float64(occurrenceCount)
		priority := totalProjectedSeverity / float64(occurrenceCount)

		projections = append(projections, TemplateProjection{
			TemplateID:        id,
			RepresentativeURL: cluster.RepresentativeURL,
			OccurrenceCount:   occurrenceCount,
			ProjectedCounts:   projected,
			PriorityScore:     priority,
			Criticality:       criticalityFor(priority, weights),
			Estimated:         true,
		})
	}
	return projections
}

func criticalityFor(priority float64, weights model.SeverityWeights) Criticality {
	switch {
	case priority >= weights.Serious:
		return CriticalityHigh
	case priority >= weights.Moderate:
		return CriticalityMedium
	default:
		return CriticalityLow
	}
}

// PageTemplateIndex builds the page->TemplateID lookup ByTemplate needs
// from a DomainCrawlState's clusters.
func PageTemplateIndex(state *model.DomainCrawlState) map[model.NormalizedURL]model.TemplateID {
	index := make(map[model.NormalizedURL]model.TemplateID)
	if state == nil {
		return index
	}
	for id, cluster := range state.Templates {
		for member := range cluster.MemberURLs {
			index[member] = id
		}
	}
	return index
}
