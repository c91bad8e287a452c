package analyzer

import "github.com/a11y-auditor/auditor/internal/model"

// wcagEntry pairs a violation-id prefix with its WCAG mapping; axe-core
// rule IDs are themselves prefix-structured (e.g. "aria-*",
// "color-contrast", "image-alt"), so prefix matching against a rule-id
// table is the natural lookup shape.
type wcagEntry struct {
	prefix  string
	mapping model.WCAGMapping
}

// wcagTable is intentionally not exhaustive of every axe-core rule;
// entries are ordered longest-prefix-first within a stable base set so
// WCAGLookup's linear scan finds the most specific match.
var wcagTable = []wcagEntry{
	{"image-alt", model.WCAGMapping{Principle: model.PrinciplePerceivable, Criterion: "1.1.1", Name: "Non-text Content"}},
	{"image", model.WCAGMapping{Principle: model.PrinciplePerceivable, Criterion: "1.1.1", Name: "Non-text Content"}},
	{"color-contrast", model.WCAGMapping{Principle: model.PrinciplePerceivable, Criterion: "1.4.3", Name: "Contrast (Minimum)"}},
	{"video", model.WCAGMapping{Principle: model.PrinciplePerceivable, Criterion: "1.2.2", Name: "Captions (Prerecorded)"}},
	{"audio", model.WCAGMapping{Principle: model.PrinciplePerceivable, Criterion: "1.2.1", Name: "Audio-only and Video-only (Prerecorded)"}},
	{"meta-viewport", model.WCAGMapping{Principle: model.PrinciplePerceivable, Criterion: "1.4.4", Name: "Resize Text"}},
	{"landmark", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "1.3.1", Name: "Info and Relationships"}},
	{"region", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "1.3.1", Name: "Info and Relationships"}},
	{"heading-order", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "1.3.1", Name: "Info and Relationships"}},
	{"page-has-heading", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.4.6", Name: "Headings and Labels"}},
	{"skip-link", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.4.1", Name: "Bypass Blocks"}},
	{"bypass", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.4.1", Name: "Bypass Blocks"}},
	{"focus-order", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.4.3", Name: "Focus Order"}},
	{"tabindex", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.4.3", Name: "Focus Order"}},
	{"link-name", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.4.4", Name: "Link Purpose (In Context)"}},
	{"link", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.4.4", Name: "Link Purpose (In Context)"}},
	{"keyboard", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.1.1", Name: "Keyboard"}},
	{"accesskeys", model.WCAGMapping{Principle: model.PrincipleOperable, Criterion: "2.1.1", Name: "Keyboard"}},
	{"label", model.WCAGMapping{Principle: model.PrincipleUnderstandable, Criterion: "1.3.1", Name: "Info and Relationships"}},
	{"form-field-multiple-labels", model.WCAGMapping{Principle: model.PrincipleUnderstandable, Criterion: "3.3.2", Name: "Labels or Instructions"}},
	{"autocomplete", model.WCAGMapping{Principle: model.PrincipleUnderstandable, Criterion: "1.3.5", Name: "Identify Input Purpose"}},
	{"html-has-lang", model.WCAGMapping{Principle: model.PrincipleUnderstandable, Criterion: "3.1.1", Name: "Language of Page"}},
	{"html-lang", model.WCAGMapping{Principle: model.PrincipleUnderstandable, Criterion: "3.1.1", Name: "Language of Page"}},
	{"valid-lang", model.WCAGMapping{Principle: model.PrincipleUnderstandable, Criterion: "3.1.2", Name: "Language of Parts"}},
	{"duplicate-id", model.WCAGMapping{Principle: model.PrincipleRobust, Criterion: "4.1.1", Name: "Parsing"}},
	{"aria-valid-attr", model.WCAGMapping{Principle: model.PrincipleRobust, Criterion: "4.1.2", Name: "Name, Role, Value"}},
	{"aria-required", model.WCAGMapping{Principle: model.PrincipleRobust, Criterion: "4.1.2", Name: "Name, Role, Value"}},
	{"aria-roles", model.WCAGMapping{Principle: model.PrincipleRobust, Criterion: "4.1.2", Name: "Name, Role, Value"}},
	{"aria", model.WCAGMapping{Principle: model.PrincipleRobust, Criterion: "4.1.2", Name: "Name, Role, Value"}},
	{"button-name", model.WCAGMapping{Principle: model.PrincipleRobust, Criterion: "4.1.2", Name: "Name, Role, Value"}},
	{"smoke-", model.WCAGMapping{Principle: model.PrincipleOther, Criterion: "", Name: "Pre-axe static triage finding"}},
}

// WCAGLookup maps a violation id to its WCAG principle/criterion via
// longest-prefix match against wcagTable; an unmatched id gets
// PrincipleOther.
func WCAGLookup(violationID string) model.WCAGMapping {
	best := model.WCAGMapping{Principle: model.PrincipleOther, Name: "Unmapped rule"}
	bestLen := -1
	for _, entry := range wcagTable {
		if len(entry.prefix) <= bestLen {
			continue
		}
		if hasPrefix(violationID, entry.prefix) {
			best = entry.mapping
			bestLen = len(entry.prefix)
		}
	}
	return best
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
