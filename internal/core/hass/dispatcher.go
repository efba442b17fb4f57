package hass

import (
	"context"
	"sync/atomic"
)

// Dispatcher performs the host side effect of a tap action.
type Dispatcher interface {
	Dispatch(ctx context.Context, action Action, entityID string) error
}

type DispatcherFunc func(ctx context.Context, action Action, entityID string) error

func (f DispatcherFunc) Dispatch(ctx context.Context, action Action, entityID string) error {
	return f(ctx, action, entityID)
}

// ActionEvent is the message handed to the host for one tap.
type ActionEvent struct {
	Action   Action `json:"action"`
	EntityID string `json:"entity_id,omitempty"`
	Source   string `json:"source,omitempty"`
}

// NewActionEvent fills the more-info target from the tapped entity when
// the descriptor does not name one.
func NewActionEvent(action Action, entityID string) ActionEvent {
	if action.Action == ACTION_MORE_INFO && action.Entity == "" {
		action.Entity = entityID
	}
	return ActionEvent{Action: action, EntityID: entityID}
}

type noopDispatcher struct {
	dropped atomic.Uint64
}

func (d *noopDispatcher) Dispatch(context.Context, Action, string) error {
	d.dropped.Add(1)
	return nil
}

// NoopDispatcher drops every action. It is what callers get before the
// real dispatcher is ready.
func NoopDispatcher() Dispatcher {
	return &noopDispatcher{}
}
