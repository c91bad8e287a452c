package funnel

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/a11y-auditor/auditor/internal/model"
)

// yamlDefinition mirrors model.FunnelDefinition with yaml tags; kept
// separate so the model package stays free of serialization concerns,
// the same separation config draws between Config and its file
// encoding.
type yamlDefinition struct {
	ID                 string           `yaml:"id"`
	AuthRequired       bool             `yaml:"auth_required"`
	SeverityMultiplier float64          `yaml:"severity_multiplier"`
	Steps              []yamlFunnelStep `yaml:"steps"`
}

type yamlFunnelStep struct {
	Name            string        `yaml:"name"`
	URL             string        `yaml:"url"`
	WaitForSelector string        `yaml:"wait_for_selector"`
	TimeoutSeconds  float64       `yaml:"timeout_seconds"`
	Actions         []yamlAction  `yaml:"actions"`
	SuccessCond     *yamlSuccess  `yaml:"success_condition"`
}

type yamlAction struct {
	Kind     string  `yaml:"kind"`
	Selector string  `yaml:"selector"`
	Value    string  `yaml:"value"`
	Seconds  float64 `yaml:"seconds"`
	Code     string  `yaml:"code"`
	Filename string  `yaml:"filename"`
}

type yamlSuccess struct {
	Kind     string `yaml:"kind"`
	Selector string `yaml:"selector"`
	Text     string `yaml:"text"`
}

// LoadDefinitions reads one model.FunnelDefinition per YAML file in
// paths, for domain.
func LoadDefinitions(domain string, paths []string) ([]model.FunnelDefinition, error) {
	defs := make([]model.FunnelDefinition, 0, len(paths))
	for _, path := range paths {
		def, err := loadDefinition(domain, path)
		if err != nil {
			return nil, fmt.Errorf("funnel: loading %s: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func loadDefinition(domain, path string) (model.FunnelDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FunnelDefinition{}, err
	}

	var y yamlDefinition
	if err := yaml.Unmarshal(data, &y); err != nil {
		return model.FunnelDefinition{}, fmt.Errorf("parsing yaml: %w", err)
	}

	def := model.FunnelDefinition{
		ID:                 y.ID,
		Domain:             domain,
		AuthRequired:       y.AuthRequired,
		SeverityMultiplier: y.SeverityMultiplier,
		Steps:              make([]model.FunnelStep, 0, len(y.Steps)),
	}
	if def.SeverityMultiplier == 0 {
		def.SeverityMultiplier = 1
	}

	for _, s := range y.Steps {
		step := model.FunnelStep{
			Name:            s.Name,
			URL:             s.URL,
			WaitForSelector: s.WaitForSelector,
			Timeout:         time.Duration(s.TimeoutSeconds * float64(time.Second)),
		}
		for _, a := range s.Actions {
			kind := model.ActionKind(a.Kind)
			switch kind {
			case model.ActionWait, model.ActionClick, model.ActionInput, model.ActionSelect,
				model.ActionSubmitForm, model.ActionScript, model.ActionScreenshot, model.ActionCookieBanner:
			default:
				return model.FunnelDefinition{}, fmt.Errorf("step %q: unknown action kind %q", s.Name, a.Kind)
			}
			step.Actions = append(step.Actions, model.Action{
				Kind:     kind,
				Selector: a.Selector,
				Value:    a.Value,
				Seconds:  a.Seconds,
				Code:     a.Code,
				Filename: a.Filename,
			})
		}
		if s.SuccessCond != nil {
			condKind := model.SuccessConditionKind(s.SuccessCond.Kind)
			switch condKind {
			case model.ConditionElementVisible, model.ConditionElementClickable,
				model.ConditionURLContains, model.ConditionTextContains:
			default:
				return model.FunnelDefinition{}, fmt.Errorf("step %q: unknown success condition kind %q", s.Name, s.SuccessCond.Kind)
			}
			step.SuccessCond = &model.SuccessCondition{
				Kind:     condKind,
				Selector: s.SuccessCond.Selector,
				Text:     s.SuccessCond.Text,
			}
		}
		def.Steps = append(def.Steps, step)
	}
	return def, nil
}
