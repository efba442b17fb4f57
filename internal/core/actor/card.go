package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/tdsflow/internal/config"
	"github.com/berfenger/tdsflow/internal/core/domain"
	"github.com/berfenger/tdsflow/internal/core/hass"
	"github.com/berfenger/tdsflow/internal/core/port"
	"github.com/berfenger/tdsflow/internal/metrics"
	. "github.com/berfenger/tdsflow/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	HELPERS_RETRY_DELAY     = 5 * time.Second
	HELPERS_ACQUIRE_TIMEOUT = 2 * time.Second
	TAP_DISPATCH_TIMEOUT    = 2 * time.Second
)

var ErrTransportNotReady = errors.New("mqtt transport not ready")

type CardActor struct {
	ActorWithStates
	config    *config.Config
	service   port.CardService
	helpers   *hass.HelperCache
	mqttActor *actor.PID
	scheduler *scheduler.TimerScheduler
	stash     *Stash
	metrics   *metrics.Metrics
	lastView  string

	logger *zap.Logger
}

type acquireHelpers struct {
}

type helpersAcquired struct {
	dispatcher hass.Dispatcher
}

type helpersFailed struct {
	err error
}

func NewCardActor(config *config.Config, service port.CardService, helpers *hass.HelperCache, mqttActor *actor.PID,
	m *metrics.Metrics, logger *zap.Logger) *CardActor {
	act := &CardActor{
		config:    config,
		service:   service,
		helpers:   helpers,
		mqttActor: mqttActor,
		stash:     &Stash{},
		metrics:   m,
		logger:    ActorLogger(domain.ACTOR_ID_CARD, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(CardStartingState{
		actor: act,
	})
	return act
}

func (state *CardActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type CardStartingState struct {
	ActorState
	actor *CardActor
}

func (state CardStartingState) Name() string {
	return "starting"
}

func (state CardStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("card@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)

		// the card renders right away; taps use the no-op dispatcher until
		// the helpers are acquired
		state.actor.acquireHelpers(ctx)
		state.actor.publishView(ctx, true)

		state.actor.Become(CardDefaultState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("card@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Default state

type CardDefaultState struct {
	ActorState
	actor *CardActor
}

func (state CardDefaultState) Name() string {
	return "default"
}

func (state CardDefaultState) Receive(ctx actor.Context) {
	srv := state.actor.service
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("card@default ActorHealthRequest")
		helpersState := "acquiring"
		if state.actor.helpers.Ready() {
			helpersState = "ready"
		}
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CARD,
			Healthy: true,
			State:   helpersState,
		})
	case domain.EntityUpdateEvent:
		if srv.ApplyUpdate(msg.EntityID, msg.Attribute, msg.Payload) {
			state.actor.publishView(ctx, false)
		}
	case domain.GetCardViewRequest:
		ForRequest(msg).Respond(ctx, domain.GetCardViewResponse{View: srv.View()})
	case domain.GetCardConfigRequest:
		ForRequest(msg).Respond(ctx, domain.GetCardConfigResponse{
			Config:   srv.Config(),
			Resolved: srv.Resolved(),
		})
	case domain.SetCardConfigRequest:
		state.actor.logger.Debug("card@default SetCardConfigRequest")
		resolved, err := srv.SetConfig(msg.Config)
		if err != nil {
			state.actor.logger.Warn("card@default config rejected", zap.Error(err))
		}
		ForRequest(msg).Respond(ctx, domain.SetCardConfigResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Resolved:           resolved,
		})
		if err == nil {
			state.actor.publishView(ctx, false)
		}
	case domain.EditCardConfigRequest:
		state.actor.logger.Debug("card@default EditCardConfigRequest")
		cfg, err := srv.Edit(msg.Changes)
		ForRequest(msg).Respond(ctx, domain.EditCardConfigResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Config:             cfg,
		})
		if err == nil {
			state.actor.publishView(ctx, false)
		}
	case domain.GetStubConfigRequest:
		ForRequest(msg).Respond(ctx, domain.GetStubConfigResponse{Config: srv.Stub()})
	case domain.CardTapRequest:
		state.actor.logger.Debug("card@default CardTapRequest", zap.String("slot", string(msg.Slot)), zap.Bool("icon", msg.Icon))
		tapCtx, cancel := context.WithTimeout(context.Background(), TAP_DISPATCH_TIMEOUT)
		event, dispatched, err := srv.Tap(tapCtx, msg.Slot, msg.Icon)
		cancel()
		if err != nil {
			state.actor.logger.Warn("card@default tap failed", zap.Error(err))
		}
		ForRequest(msg).Respond(ctx, domain.CardTapResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Event:              event,
			Dispatched:         dispatched,
		})
	case domain.RepublishRequest:
		state.actor.publishView(ctx, true)
	case acquireHelpers:
		state.actor.acquireHelpers(ctx)
	case helpersAcquired:
		state.actor.logger.Info("card@default action dispatcher ready")
		state.actor.helpers.Complete(msg.dispatcher)
		state.actor.metrics.HelpersReady(true)
	case helpersFailed:
		state.actor.logger.Warn("card@default could not acquire action dispatcher", zap.Error(msg.err))
		state.actor.helpers.Fail()
		state.actor.scheduler.SendOnce(HELPERS_RETRY_DELAY, ctx.Self(), acquireHelpers{})
	case domain.PublishMessageResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("card@default view publish failed", zap.Error(msg.GetResponseError()))
			// force the next publish
			state.actor.lastView = ""
		}
	case *actor.Stopping, *actor.Stopped, *actor.Restarting:
	default:
		state.actor.logger.Debug("card@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// publishView sends the rendered card to the MQTT actor unless it is
// unchanged since the last publish and force is false.
func (state *CardActor) publishView(ctx actor.Context, force bool) {
	if state.mqttActor == nil {
		return
	}
	view := state.service.View()
	payload, err := json.Marshal(view)
	if err != nil {
		state.logger.Error("card: could not encode view", zap.Error(err))
		return
	}
	if !force && string(payload) == state.lastView {
		return
	}
	state.lastView = string(payload)
	ctx.Request(state.mqttActor, domain.PublishCardViewRequest{View: view})
}

// acquireHelpers builds the action dispatcher in the background once the
// MQTT actor answers as healthy. Nothing happens when the cache is
// already ready or loading.
func (state *CardActor) acquireHelpers(ctx actor.Context) {
	if state.mqttActor == nil || !state.helpers.Begin() {
		return
	}
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	mqttActor := state.mqttActor
	timeout := time.Duration(state.config.Render.HelperAcquireTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = HELPERS_ACQUIRE_TIMEOUT
	}

	NewBackgroundTask(ctx, func() (*helpersAcquired, error) {
		res, err := root.RequestFuture(mqttActor, domain.ActorHealthRequest{}, timeout).Result()
		if err != nil {
			return nil, err
		}
		if health, ok := res.(domain.ActorHealthResponse); !ok || !health.Healthy {
			return nil, ErrTransportNotReady
		}
		return &helpersAcquired{
			dispatcher: NewMQTTDispatcher(root, mqttActor),
		}, nil
	}).WithTimeout(2 * timeout).OnError(func(err error) {
		root.Send(self, helpersFailed{err: err})
	}).PipeTo(self)
}
