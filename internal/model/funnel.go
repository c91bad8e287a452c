package model

import "time"

// ActionKind enumerates the variants a funnel step can execute. Unknown
// variants are a configuration error surfaced at load time, never at
// runtime, per the "duck-typed collaborators become explicit
// capabilities" redesign note.
type ActionKind string

const (
	ActionWait         ActionKind = "wait"
	ActionClick        ActionKind = "click"
	ActionInput        ActionKind = "input"
	ActionSelect       ActionKind = "select"
	ActionSubmitForm   ActionKind = "submit_form"
	ActionScript       ActionKind = "script"
	ActionScreenshot   ActionKind = "screenshot"
	ActionCookieBanner ActionKind = "cookie_banner"
)

// Action is a single scripted browser interaction within a funnel
// step. Only the fields relevant to Kind are populated.
type Action struct {
	Kind     ActionKind
	Selector string
	Value    string
	Seconds  float64
	Code     string
	Filename string
}

// SuccessConditionKind enumerates the variants of a step's success
// predicate.
type SuccessConditionKind string

const (
	ConditionElementVisible   SuccessConditionKind = "element_visible"
	ConditionElementClickable SuccessConditionKind = "element_clickable"
	ConditionURLContains      SuccessConditionKind = "url_contains"
	ConditionTextContains     SuccessConditionKind = "text_contains"
)

// SuccessCondition is the predicate evaluated after a step's actions
// run to decide whether the step succeeded.
type SuccessCondition struct {
	Kind     SuccessConditionKind
	Selector string
	Text     string
}

// FunnelStep is one navigation + interaction + predicate unit within a
// funnel.
type FunnelStep struct {
	Name            string
	URL             string
	WaitForSelector string
	Actions         []Action
	SuccessCond     *SuccessCondition
	Timeout         time.Duration
}

// FunnelDefinition is a scripted user journey: an ordered sequence of
// steps, optionally requiring authentication.
type FunnelDefinition struct {
	ID                string
	Domain            string
	AuthRequired      bool
	Steps             []FunnelStep
	SeverityMultiplier float64
}

// FunnelArtifact is the captured evidence of one executed step: its
// HTML snapshot, screenshot, and whether the step's success condition
// passed.
type FunnelArtifact struct {
	FunnelID         string
	StepIndex        int
	StepName         string
	URL              string
	HTMLSnapshotPath string
	ScreenshotPath   string
	Success          bool
}
