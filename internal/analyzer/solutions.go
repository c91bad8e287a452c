package analyzer

// Solution is the remediation guidance the By-Violation aggregation
// looks up per violation id, longest-prefix matched the same way
// WCAGLookup is.
type Solution struct {
	Description string
	Technical   string
	UserImpact  string
}

type solutionEntry struct {
	prefix   string
	solution Solution
}

var defaultSolution = Solution{
	Description: "Accessibility issue detected by automated testing",
	Technical:   "Review the flagged element against the referenced WCAG success criterion",
	UserImpact:  "May prevent some users from perceiving or operating this content",
}

var solutionTable = []solutionEntry{
	{"image-alt", Solution{
		Description: "Images must have alternate text",
		Technical:   "Add a descriptive alt attribute, or alt=\"\" for purely decorative images",
		UserImpact:  "Screen reader users cannot perceive the image's content or purpose",
	}},
	{"color-contrast", Solution{
		Description: "Elements must meet minimum color contrast ratio thresholds",
		Technical:   "Increase the contrast ratio between foreground text and its background to at least 4.5:1",
		UserImpact:  "Low-vision users may be unable to read text against its background",
	}},
	{"label", Solution{
		Description: "Form elements must have labels",
		Technical:   "Associate a <label for=...>, aria-label, or aria-labelledby with the control",
		UserImpact:  "Screen reader users cannot determine the purpose of the form control",
	}},
	{"link-name", Solution{
		Description: "Links must have discernible text",
		Technical:   "Give the link visible text, an aria-label, or an accessible name from its content",
		UserImpact:  "Screen reader users hear \"link\" with no indication of its destination",
	}},
	{"aria", Solution{
		Description: "ARIA attributes must be valid and used correctly",
		Technical:   "Use only ARIA roles/states/properties valid for the element, per the WAI-ARIA spec",
		UserImpact:  "Assistive technology may announce the element incorrectly or not at all",
	}},
	{"html-has-lang", Solution{
		Description: "Document language must be identified",
		Technical:   "Set a valid lang attribute (e.g. lang=\"en\") on the <html> element",
		UserImpact:  "Screen readers may mispronounce content or select the wrong voice profile",
	}},
	{"heading-order", Solution{
		Description: "Heading levels should only increase by one",
		Technical:   "Restructure headings so each nested heading is exactly one level deeper than its parent",
		UserImpact:  "Screen reader users navigating by heading level lose the document's logical structure",
	}},
	{"smoke-", Solution{
		Description: "Structural defect found by static pre-scan triage",
		Technical:   "Confirm with the paired axe-core rule once the page has been fully rendered",
		UserImpact:  "Varies; treat as a lead for the axe-core pass, not a final verdict",
	}},
}

// SolutionLookup returns remediation guidance for a violation id via
// longest-prefix match, falling back to generic guidance.
func SolutionLookup(violationID string) Solution {
	best := defaultSolution
	bestLen := -1
	for _, entry := range solutionTable {
		if len(entry.prefix) <= bestLen {
			continue
		}
		if hasPrefix(violationID, entry.prefix) {
			best = entry.solution
			bestLen = len(entry.prefix)
		}
	}
	return best
}
