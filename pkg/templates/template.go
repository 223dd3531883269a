package templates

import (
	"fmt"
	"maps"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/validator"
)

// Vars is the variable bag a template is rendered with.
type Vars map[string]any

// ActionType selects how an action is executed.
type ActionType string

const (
	ActionAPICall ActionType = "api_call"
	ActionLink    ActionType = "link"
	ActionForm    ActionType = "form"
	ActionButton  ActionType = "button"
)

// Action is a user-triggerable control attached to a notification.
type Action struct {
	ID        string     `yaml:"id" json:"id" bson:"id"`
	Label     string     `yaml:"label" json:"label" bson:"label"`
	Type      ActionType `yaml:"type" json:"type" bson:"type"`
	URL       string     `yaml:"url,omitempty" json:"url,omitempty" bson:"url,omitempty"`
	Method    string     `yaml:"method,omitempty" json:"method,omitempty" bson:"method,omitempty"`
	Payload   any        `yaml:"payload,omitempty" json:"payload,omitempty" bson:"payload,omitempty"`
	Style     string     `yaml:"style,omitempty" json:"style,omitempty" bson:"style,omitempty"`
	Icon      string     `yaml:"icon,omitempty" json:"icon,omitempty" bson:"icon,omitempty"`
	Condition string     `yaml:"condition,omitempty" json:"condition,omitempty" bson:"condition,omitempty"`
}

var (
	actionTypes   = []ActionType{ActionAPICall, ActionLink, ActionForm, ActionButton}
	actionMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
)

func (a Action) rules(field string) []validator.Rule {
	rules := []validator.Rule{
		validator.Required(field+".id", a.ID),
		validator.InList(field+".type", a.Type, actionTypes),
	}
	if a.Type == ActionAPICall {
		rules = append(rules, validator.Required(field+".url", a.URL))
	}
	if a.URL != "" {
		rules = append(rules, validator.ValidURLOrPath(field+".url", a.URL))
	}
	if a.Method != "" {
		rules = append(rules, validator.InList(field+".method", strings.ToUpper(a.Method), actionMethods))
	}
	return rules
}

// Template is a named, versioned definition of a notification. Advanced
// templates evaluate action conditions and mark their output as processed.
type Template struct {
	Name        string          `yaml:"-"`
	Version     string          `yaml:"version"`
	Type        string          `yaml:"type"`
	Advanced    bool            `yaml:"advanced"`
	Title       Field[string]   `yaml:"title"`
	Message     Field[string]   `yaml:"message"`
	Priority    Field[string]   `yaml:"priority"`
	Channels    Field[[]string] `yaml:"channels"`
	Actions     Field[[]Action] `yaml:"actions"`
	Navigation  map[string]any  `yaml:"navigation"`
	Sender      string          `yaml:"sender"`
	SenderModel string          `yaml:"senderModel"`
}

// Validate checks the name, title and literal actions.
func (t Template) Validate() error {
	rules := []validator.Rule{
		validator.Required("name", t.Name),
		validator.Custom("title", t.Title.IsSet, "field is required", "validation.required"),
	}
	if !t.Actions.IsConditional() {
		for i, a := range t.Actions.Eval(nil) {
			rules = append(rules, a.rules(fmt.Sprintf("actions[%d]", i))...)
		}
	}
	if err := validator.Apply(rules...); err != nil {
		return fmt.Errorf("%w: template %q: %w", ErrInvalidTemplate, t.Name, err)
	}
	return nil
}

// Snapshot records which template and variables produced a notification.
type Snapshot struct {
	Name      string         `json:"name" bson:"name"`
	Version   string         `json:"version" bson:"version"`
	Variables map[string]any `json:"variables,omitempty" bson:"variables,omitempty"`
	Processed bool           `json:"processed,omitempty" bson:"processed,omitempty"`
}

// Rendered is the channel-ready output of Render.
type Rendered struct {
	Type        string
	Title       string
	Message     string
	Priority    string
	Channels    []string
	Actions     []Action
	Metadata    map[string]any
	Sender      string
	SenderModel string
	Snapshot    Snapshot
}

func cloneVars(vars Vars) map[string]any {
	if len(vars) == 0 {
		return nil
	}
	return maps.Clone(map[string]any(vars))
}
