package actorutil

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/berfenger/tdsflow/internal/core/card"
	"github.com/berfenger/tdsflow/internal/core/domain"
	"github.com/berfenger/tdsflow/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel, zap.PanicLevel, zap.FatalLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps a command received over MQTT to the card
// request it stands for.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.CardRequest, error) {
	switch cmd.Command {
	case mqtt.COMMAND_SET_CONFIG:
		cfg, err := card.Parse([]byte(cmd.Payload))
		if err != nil {
			return nil, err
		}
		return domain.SetCardConfigRequest{Config: cfg}, nil
	case mqtt.COMMAND_TAP, mqtt.COMMAND_ICON_TAP:
		slot := card.SlotID(cmd.Slot)
		if !slot.Valid() {
			return nil, fmt.Errorf("unknown slot %q: %w", cmd.Slot, mqtt.ErrInvalidCommand)
		}
		return domain.CardTapRequest{
			Slot: slot,
			Icon: cmd.Command == mqtt.COMMAND_ICON_TAP,
		}, nil
	}
	return nil, errors.Join(mqtt.ErrInvalidCommand, fmt.Errorf("command %q", cmd.Command))
}
