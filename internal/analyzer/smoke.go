package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/a11y-auditor/auditor/internal/model"
)

// SmokeAnalyzer is a regex-based pre-axe triage pass over raw HTML: it
// catches the cheapest, highest-confidence accessibility defects
// (missing alt text, unlabeled form fields, skipped heading levels,
// invalid ARIA roles, missing lang attribute) without needing a
// browser. It runs ahead of the Scanner's axe-core pass so a domain
// with gross structural problems is flagged immediately; its findings
// are folded into the same ViolationSet axe-core contributes to, with
// an "smoke-" violation-id prefix.
type SmokeAnalyzer struct{}

// NewSmokeAnalyzer returns a SmokeAnalyzer.
func NewSmokeAnalyzer() *SmokeAnalyzer {
	return &SmokeAnalyzer{}
}

// Analyze scans rawHTML for pageURL, returning zero or more synthetic
// violations.
func (a *SmokeAnalyzer) Analyze(pageURL model.NormalizedURL, rawHTML string) []model.Violation {
	if rawHTML == "" {
		return nil
	}

	var out []model.Violation

	if n := countImagesWithoutAlt(rawHTML); n > 0 {
		out = append(out, model.Violation{
			PageURL:        pageURL,
			ViolationID:    "smoke-image-alt",
			Impact:         model.ImpactSerious,
			Description:    "Images must have alternate text",
			Help:           "Add an alt attribute to every <img> that conveys content",
			FailureSummary: fmt.Sprintf("%d <img> elements are missing an alt attribute", n),
		})
	}

	form := checkFormLabels(rawHTML)
	if form.inputsWithoutLabel > 0 {
		out = append(out, model.Violation{
			PageURL:        pageURL,
			ViolationID:    "smoke-form-label",
			Impact:         model.ImpactCritical,
			Description:    "Form elements must have labels",
			Help:           "Associate a <label>, aria-label, or aria-labelledby with every form control",
			FailureSummary: fmt.Sprintf("%d of %d form controls have no associated label", form.inputsWithoutLabel, form.totalInputs),
		})
	}

	for _, skip := range headingSkips(rawHTML) {
		out = append(out, model.Violation{
			PageURL:        pageURL,
			ViolationID:    "smoke-heading-order",
			Impact:         model.ImpactModerate,
			Description:    "Heading levels should only increase by one",
			Help:           "Do not skip heading levels when structuring page content",
			FailureSummary: skip,
		})
	}

	if roles := invalidARIARoles(rawHTML); len(roles) > 0 {
		out = append(out, model.Violation{
			PageURL:        pageURL,
			ViolationID:    "smoke-aria-valid-value",
			Impact:         model.ImpactCritical,
			Description:    "ARIA roles used must conform to valid values",
			Help:           "Use only roles defined in the WAI-ARIA specification",
			FailureSummary: fmt.Sprintf("invalid role(s): %s", strings.Join(roles, ", ")),
		})
	}

	if !hasLangAttribute(rawHTML) {
		out = append(out, model.Violation{
			PageURL:        pageURL,
			ViolationID:    "smoke-html-has-lang",
			Impact:         model.ImpactSerious,
			Description:    "The <html> element must have a lang attribute",
			Help:           "Set lang on the <html> element to the page's primary language",
			FailureSummary: "<html> element has no lang attribute",
		})
	}

	return out
}

var imgTagRe = regexp.MustCompile(`<img[^>]*>`)

func countImagesWithoutAlt(htmlStr string) int {
	count := 0
	for _, img := range imgTagRe.FindAllString(htmlStr, -1) {
		if !strings.Contains(img, "alt=") {
			count++
		}
	}
	return count
}

type formLabelResult struct {
	totalInputs        int
	inputsWithoutLabel int
}

var labeledInputTypesRe = regexp.MustCompile(`<input[^>]*type=["']?(text|email|password|tel|number|search|url|date|time)["']?[^>]*>`)
var ariaLabelRe = regexp.MustCompile(`aria-label=`)
var ariaLabelledByRe = regexp.MustCompile(`aria-labelledby=`)

func checkFormLabels(htmlStr string) formLabelResult {
	result := formLabelResult{
		totalInputs: len(labeledInputTypesRe.FindAllString(htmlStr, -1)),
	}
	result.totalInputs += strings.Count(htmlStr, "<textarea")
	result.totalInputs += strings.Count(htmlStr, "<select")

	labels := strings.Count(htmlStr, "<label") +
		len(ariaLabelRe.FindAllString(htmlStr, -1)) +
		len(ariaLabelledByRe.FindAllString(htmlStr, -1))

	if result.totalInputs > labels {
		result.inputsWithoutLabel = result.totalInputs - labels
	}
	return result
}

var headingTagRe = regexp.MustCompile(`<h([1-6])[^>]*>`)

func headingSkips(htmlStr string) []string {
	matches := headingTagRe.FindAllStringSubmatch(htmlStr, -1)
	if len(matches) == 0 {
		return nil
	}

	var skips []string
	prevLevel := 0
	for i, match := range matches {
		level := int(match[1][0] - '0')
		if i == 0 && level != 1 {
			skips = append(skips, fmt.Sprintf("first heading is H%d, not H1", level))
		}
		if prevLevel > 0 && level > prevLevel+1 {
			skips = append(skips, fmt.Sprintf("H%d to H%d", prevLevel, level))
		}
		prevLevel = level
	}
	return skips
}

var ariaRoleRe = regexp.MustCompile(`role=["']([^"']+)["']`)

var validARIARoles = map[string]bool{
	"alert": true, "alertdialog": true, "application": true, "article": true,
	"banner": true, "button": true, "checkbox": true, "complementary": true,
	"contentinfo": true, "dialog": true, "document": true, "feed": true,
	"figure": true, "form": true, "grid": true, "gridcell": true,
	"group": true, "heading": true, "img": true, "link": true,
	"list": true, "listbox": true, "listitem": true, "main": true,
	"menu": true, "menubar": true, "menuitem": true, "navigation": true,
	"none": true, "note": true, "option": true, "presentation": true,
	"progressbar": true, "radio": true, "region": true, "row": true,
	"rowgroup": true, "scrollbar": true, "search": true, "searchbox": true,
	"separator": true, "slider": true, "spinbutton": true, "status": true,
	"switch": true, "tab": true, "table": true, "tablist": true,
	"tabpanel": true, "textbox": true, "timer": true, "toolbar": true,
	"tooltip": true, "tree": true, "treegrid": true, "treeitem": true,
}

func invalidARIARoles(htmlStr string) []string {
	var invalid []string
	seen := make(map[string]struct{})
	for _, match := range ariaRoleRe.FindAllStringSubmatch(htmlStr, -1) {
		role := strings.ToLower(match[1])
		if validARIARoles[role] {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		invalid = append(invalid, role)
	}
	return invalid
}

var langAttrRe = regexp.MustCompile(`<html[^>]*lang=["'][^"']+["']`)

func hasLangAttribute(htmlStr string) bool {
	return langAttrRe.MatchString(htmlStr)
}
