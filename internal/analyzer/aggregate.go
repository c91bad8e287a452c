package analyzer

import (
	"sort"

	"github.com/a11y-auditor/auditor/internal/model"
)

// ImpactStat is one row of the By Impact aggregation.
type ImpactStat struct {
	Impact     model.Impact
	Count      int
	Percentage float64
	PerPageAvg float64
}

// ByImpact groups rows by impact band. uniquePages is the count of
// distinct pages in the full row set, used for the per-page average.
func ByImpact(rows []Row, uniquePages int) []ImpactStat {
	counts := make(map[model.Impact]int)
	total := 0
	for _, r := range rows {
		counts[r.Impact]++
		total++
	}

	order := []model.Impact{model.ImpactCritical, model.ImpactSerious, model.ImpactModerate, model.ImpactMinor, model.ImpactUnknown}
	stats := make([]ImpactStat, 0, len(order))
	for _, impact := range order {
		count, ok := counts[impact]
		if !ok {
			continue
		}
		stat := ImpactStat{Impact: impact, Count: count}
		if total > 0 {
			stat.Percentage = 100 * float64(count) / float64(total)
		}
		if uniquePages > 0 {
			stat.PerPageAvg = float64(count) / float64(uniquePages)
		}
		stats = append(stats, stat)
	}
	return stats
}

// PageStat is one row of the By Page aggregation.
type PageStat struct {
	PageURL       model.NormalizedURL
	Counts        map[model.Impact]int
	Total         int
	PriorityScore float64
}

// ByPage groups rows by page, sorted by descending priority score.
func ByPage(rows []Row) []PageStat {
	byPage := make(map[model.NormalizedURL]*PageStat)
	order := make([]model.NormalizedURL, 0)

	for _, r := range rows {
		p, ok := byPage[r.PageURL]
		if !ok {
			p = &PageStat{PageURL: r.PageURL, Counts: make(map[model.Impact]int)}
			byPage[r.PageURL] = p
			order = append(order, r.PageURL)
		}
		p.Counts[r.Impact]++
		p.Total++
		p.PriorityScore += r.SeverityWeight
	}

	stats := make([]PageStat, 0, len(order))
	for _, url := range order {
		stats = append(stats, *byPage[url])
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].PriorityScore > stats[j].PriorityScore })
	return stats
}

// ViolationStat is one row of the By Violation aggregation.
type ViolationStat struct {
	ViolationID      string
	Occurrences      int
	AffectedPages    int
	MostCommonImpact model.Impact
	PriorityScore    float64
	Solution         Solution
}

// ByViolation groups rows by violation id, sorted by descending
// priority score.
func ByViolation(rows []Row, weights model.SeverityWeights) []ViolationStat {
	type accum struct {
		occurrences int
		pages       map[model.NormalizedURL]struct{}
		impactCount map[model.Impact]int
	}
	byID := make(map[string]*accum)
	order := make([]string, 0)

	for _, r := range rows {
		a, ok := byID[r.ViolationID]
		if !ok {
			a = &accum{pages: make(map[model.NormalizedURL]struct{}), impactCount: make(map[model.Impact]int)}
			byID[r.ViolationID] = a
			order = append(order, r.ViolationID)
		}
		a.occurrences++
		a.pages[r.PageURL] = struct{}{}
		a.impactCount[r.Impact]++
	}

	stats := make([]ViolationStat, 0, len(order))
	for _, id := range order {
		a := byID[id]
		mostCommon := mostCommonImpact(a.impactCount)
		stats = append(stats, ViolationStat{
			ViolationID:      id,
			Occurrences:      a.occurrences,
			AffectedPages:    len(a.pages),
			MostCommonImpact: mostCommon,
			PriorityScore:    weights.Weight(mostCommon) * float64(a.occurrences),
			Solution:         SolutionLookup(id),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].PriorityScore > stats[j].PriorityScore })
	return stats
}

func mostCommonImpact(counts map[model.Impact]int) model.Impact {
	var best model.Impact
	bestCount := -1
	// Deterministic order so ties resolve the same way every run.
	for _, impact := range []model.Impact{model.ImpactCritical, model.ImpactSerious, model.ImpactModerate, model.ImpactMinor, model.ImpactUnknown} {
		if c, ok := counts[impact]; ok && c > bestCount {
			best = impact
			bestCount = c
		}
	}
	return best
}

// GroupStat is the shared shape of By Page Type, By Template, By
// Funnel and By Funnel Step: pages/occurrences, per-impact counts, a
// priority score, and (for WCAG-joinable groupings) the dominant
// principle.
type GroupStat struct {
	Key           string
	Pages         int
	Total         int
	Counts        map[model.Impact]int
	PriorityScore float64
	TopPrinciple  model.Principle
}

// groupBy is the shared aggregation core for By Page Type and By
// Template: priority score is the average weighted severity per page
// in the group, keyed by whatever keyFn extracts from a Row.
func groupBy(rows []Row, keyFn func(Row) string, scoreFn func(Row) float64) []GroupStat {
	type accum struct {
		pages       map[model.NormalizedURL]struct{}
		counts      map[model.Impact]int
		scoreSum    float64
		principleCt map[model.Principle]int
	}
	byKey := make(map[string]*accum)
	order := make([]string, 0)

	for _, r := range rows {
		key := keyFn(r)
		a, ok := byKey[key]
		if !ok {
			a = &accum{pages: make(map[model.NormalizedURL]struct{}), counts: make(map[model.Impact]int), principleCt: make(map[model.Principle]int)}
			byKey[key] = a
			order = append(order, key)
		}
		a.pages[r.PageURL] = struct{}{}
		a.counts[r.Impact]++
		a.scoreSum += scoreFn(r)
		a.principleCt[r.WCAG.Principle]++
	}

	stats := make([]GroupStat, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		pages := len(a.pages)
		priority := 0.0
		if pages > 0 {
			priority = a.scoreSum / float64(pages)
		}
		total := 0
		for _, c := range a.counts {
			total += c
		}
		stats = append(stats, GroupStat{
			Key:           key,
			Pages:         pages,
			Total:         total,
			Counts:        a.counts,
			PriorityScore: priority,
			TopPrinciple:  dominantPrinciple(a.principleCt),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].PriorityScore > stats[j].PriorityScore })
	return stats
}

func dominantPrinciple(counts map[model.Principle]int) model.Principle {
	var best model.Principle
	bestCount := -1
	for _, p := range []model.Principle{model.PrinciplePerceivable, model.PrincipleOperable, model.PrincipleUnderstandable, model.PrincipleRobust, model.PrincipleOther} {
		if c, ok := counts[p]; ok && c > bestCount {
			best = p
			bestCount = c
		}
	}
	return best
}

// ByPageType implements the By Page Type aggregation.
func ByPageType(rows []Row) []GroupStat {
	return groupBy(rows, func(r Row) string { return r.PageType }, func(r Row) float64 { return r.SeverityWeight })
}

// ByTemplate implements the By Template aggregation, keying on the
// TemplateID each page belongs to per pageTemplate. Per spec, callers
// should only surface this table when a CrawlState with more than one
// known template is available.
func ByTemplate(rows []Row, pageTemplate map[model.NormalizedURL]model.TemplateID) []GroupStat {
	return groupBy(rows, func(r Row) string {
		return string(pageTemplate[r.PageURL])
	}, func(r Row) float64 { return r.SeverityWeight })
}

// ByFunnel implements the By Funnel aggregation, weighted by
// funnel_severity_score. Rows with no FunnelName are excluded.
func ByFunnel(rows []Row) []GroupStat {
	filtered := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.FunnelName != "" {
			filtered = append(filtered, r)
		}
	}
	return groupBy(filtered, func(r Row) string { return r.FunnelName }, func(r Row) float64 { return r.FunnelSeverityScore })
}

// ByFunnelStep implements the By Funnel Step aggregation, keyed on
// funnel name + step number.
func ByFunnelStep(rows []Row) []GroupStat {
	filtered := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.FunnelName != "" {
			filtered = append(filtered, r)
		}
	}
	return groupBy(filtered, func(r Row) string { return funnelStepKey(r) }, func(r Row) float64 { return r.FunnelSeverityScore })
}

func funnelStepKey(r Row) string {
	return r.FunnelName + "#" + r.FunnelStep
}
