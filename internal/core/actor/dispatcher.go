package actor

import (
	"context"

	"github.com/berfenger/tdsflow/internal/core/domain"
	"github.com/berfenger/tdsflow/internal/core/hass"

	"github.com/asynkron/protoactor-go/actor"
)

// MQTTDispatcher hands tap actions to the MQTT actor, which publishes them
// on the action topic. Dispatch does not wait for the broker.
type MQTTDispatcher struct {
	root      *actor.RootContext
	mqttActor *actor.PID
}

func NewMQTTDispatcher(root *actor.RootContext, mqttActor *actor.PID) *MQTTDispatcher {
	return &MQTTDispatcher{
		root:      root,
		mqttActor: mqttActor,
	}
}

func (d *MQTTDispatcher) Dispatch(ctx context.Context, action hass.Action, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.root.Send(d.mqttActor, domain.PublishActionRequest{
		Event: hass.NewActionEvent(action, entityID),
	})
	return nil
}

// ensure interface compliance
var _ hass.Dispatcher = (*MQTTDispatcher)(nil)
