package hass

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

type ActionKind string

const (
	ACTION_MORE_INFO      ActionKind = "more-info"
	ACTION_NAVIGATE       ActionKind = "navigate"
	ACTION_PERFORM_ACTION ActionKind = "perform-action"
	ACTION_CALL_SERVICE   ActionKind = "call-service"
	ACTION_URL            ActionKind = "url"
	ACTION_TOGGLE         ActionKind = "toggle"
	ACTION_NONE           ActionKind = "none"
)

var ErrInvalidAction = errors.New("invalid action descriptor")

// Action is a tap action descriptor in the Home Assistant ui_action shape.
type Action struct {
	Action         ActionKind     `json:"action" mapstructure:"action"`
	Entity         string         `json:"entity,omitempty" mapstructure:"entity"`
	NavigationPath string         `json:"navigation_path,omitempty" mapstructure:"navigation_path"`
	URLPath        string         `json:"url_path,omitempty" mapstructure:"url_path"`
	PerformAction  string         `json:"perform_action,omitempty" mapstructure:"perform_action"`
	Data           map[string]any `json:"data,omitempty" mapstructure:"data"`
	Target         map[string]any `json:"target,omitempty" mapstructure:"target"`
}

// legacy keys still found in older dashboards
type legacyAction struct {
	Service     string         `mapstructure:"service"`
	ServiceData map[string]any `mapstructure:"service_data"`
}

func MoreInfo() Action {
	return Action{Action: ACTION_MORE_INFO}
}

func NoAction() Action {
	return Action{Action: ACTION_NONE}
}

func (a Action) IsNone() bool {
	return a.Action == "" || a.Action == ACTION_NONE
}

// ParseAction decodes an action descriptor from a config value. Both the
// full map form and the short string form ("more-info") are accepted.
func ParseAction(value any) (Action, error) {
	switch v := value.(type) {
	case nil:
		return Action{}, fmt.Errorf("%w: empty", ErrInvalidAction)
	case Action:
		return normalize(v)
	case string:
		return normalize(Action{Action: ActionKind(v)})
	case map[string]any:
		var a Action
		if err := decode(v, &a); err != nil {
			return Action{}, err
		}
		var legacy legacyAction
		if err := decode(v, &legacy); err != nil {
			return Action{}, err
		}
		if a.PerformAction == "" {
			a.PerformAction = legacy.Service
		}
		if a.Data == nil {
			a.Data = legacy.ServiceData
		}
		return normalize(a)
	default:
		return Action{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidAction, value)
	}
}

func decode(input map[string]any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAction, err)
	}
	return nil
}

func normalize(a Action) (Action, error) {
	if a.Action == ACTION_CALL_SERVICE {
		a.Action = ACTION_PERFORM_ACTION
	}
	switch a.Action {
	case ACTION_MORE_INFO, ACTION_TOGGLE, ACTION_NONE:
	case ACTION_NAVIGATE:
		if a.NavigationPath == "" {
			return Action{}, fmt.Errorf("%w: navigate requires navigation_path", ErrInvalidAction)
		}
	case ACTION_URL:
		if a.URLPath == "" {
			return Action{}, fmt.Errorf("%w: url requires url_path", ErrInvalidAction)
		}
	case ACTION_PERFORM_ACTION:
		if a.PerformAction == "" {
			return Action{}, fmt.Errorf("%w: perform-action requires perform_action", ErrInvalidAction)
		}
	default:
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Action)
	}
	return a, nil
}
