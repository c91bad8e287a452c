package scanner

import "github.com/a11y-auditor/auditor/internal/model"

// axeResult mirrors the subset of axe-core's axe.run() output the
// scanner cares about: { resultTypes: ['violations'] } means passes,
// incomplete and inapplicable are never populated.
type axeResult struct {
	Violations []axeViolation `json:"violations"`
}

type axeViolation struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	Nodes       []axeNode `json:"nodes"`
}

type axeNode struct {
	Target         []string `json:"target"`
	HTML           string   `json:"html"`
	FailureSummary string   `json:"failureSummary"`
}

// flatten turns one axe.run() result into per-node Violation records,
// tagging each with the page it was found on and, for funnel-HTML
// scans, the originating funnel step.
func flatten(pageURL model.NormalizedURL, authRequired bool, job Job, result axeResult) []model.Violation {
	var out []model.Violation
	for _, v := range result.Violations {
		impact := model.ParseImpact(v.Impact)
		for _, n := range v.Nodes {
			out = append(out, model.Violation{
				PageURL:        pageURL,
				ViolationID:    v.ID,
				Impact:         impact,
				Description:    v.Description,
				Help:           v.Help,
				TargetSelector: joinSelectors(n.Target),
				HTMLFragment:   n.HTML,
				FailureSummary: n.FailureSummary,
				AuthRequired:   authRequired,
				FunnelName:     job.FunnelName,
				FunnelStep:     job.FunnelStep,
				StepNumber:     job.StepNumber,
			})
		}
	}
	return out
}

// joinSelectors flattens axe-core's target array (a CSS selector path
// that can traverse shadow-DOM boundaries) into a single selector
// string; the common case is a single-element array.
func joinSelectors(target []string) string {
	if len(target) == 0 {
		return ""
	}
	if len(target) == 1 {
		return target[0]
	}
	out := target[0]
	for _, t := range target[1:] {
		out += " >>> " + t
	}
	return out
}
