package service

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/berfenger/tdsflow/internal/core/card"
	"github.com/berfenger/tdsflow/internal/core/hass"
	"github.com/berfenger/tdsflow/internal/core/port"
	"github.com/berfenger/tdsflow/internal/metrics"
	"github.com/berfenger/tdsflow/pkg/display"

	"go.uber.org/zap"
)

var ErrUnknownSlot = errors.New("unknown slot")

// DefaultCardService holds one card: its config, the host state store and
// the formatter. It is not safe for concurrent use; the card actor owns it.
// Until a config is set it follows the suggested config of the store.
type DefaultCardService struct {
	store     *hass.Store
	helpers   *hass.HelperCache
	formatter *display.Formatter
	metrics   *metrics.Metrics
	logger    *zap.Logger

	cfg        card.Config
	resolved   card.Resolved
	configured bool
}

func NewCardService(store *hass.Store, helpers *hass.HelperCache, formatter *display.Formatter,
	m *metrics.Metrics, logger *zap.Logger) *DefaultCardService {
	srv := &DefaultCardService{
		store:     store,
		helpers:   helpers,
		formatter: formatter,
		metrics:   m,
		logger:    logger,
		cfg:       card.Config{},
	}
	formatter.OnDegrade = func(entityID string, err error) {
		// text states are shown raw, that is not a degradation
		if errors.Is(err, display.ErrNotNumeric) {
			return
		}
		logger.Debug("card: host formatter failed, using fallback", zap.String("entity_id", entityID), zap.Error(err))
		m.FormatDegraded(entityID, err)
	}
	srv.resolved = card.Resolve(srv.cfg)
	return srv
}

func (s *DefaultCardService) SetConfig(cfg card.Config) (card.Resolved, error) {
	if err := card.Validate(cfg); err != nil {
		s.metrics.ConfigRejected()
		return card.Resolved{}, err
	}
	s.cfg = cfg.Clone()
	s.resolved = card.Resolve(s.cfg)
	s.configured = true
	for key, reason := range s.resolved.Invalid {
		s.logger.Warn("card: invalid action, using default", zap.String("key", key), zap.String("reason", reason))
	}
	return s.resolved, nil
}

func (s *DefaultCardService) Edit(changes map[string]any) (card.Config, error) {
	next := card.ApplyEdit(s.cfg, changes)
	if _, err := s.SetConfig(next); err != nil {
		return nil, err
	}
	return s.Config(), nil
}

func (s *DefaultCardService) Config() card.Config {
	return s.cfg.Clone()
}

func (s *DefaultCardService) Resolved() card.Resolved {
	return s.resolved
}

func (s *DefaultCardService) ApplyUpdate(entityID, attribute, payload string) bool {
	changed := s.store.Apply(entityID, attribute, payload)
	s.metrics.Entities(s.store.Len())
	if !changed {
		return false
	}
	if !s.configured && s.adoptStub() {
		return true
	}
	for _, slot := range s.resolved.Slots {
		if slot.Entity == entityID {
			return true
		}
	}
	return false
}

// adoptStub replaces the config with the current suggestion and reports
// whether it changed.
func (s *DefaultCardService) adoptStub() bool {
	stub := card.StubConfig(s.store)
	if maps.Equal(stub, s.cfg) {
		return false
	}
	s.cfg = stub
	s.resolved = card.Resolve(stub)
	s.logger.Info("card: using suggested config", zap.Any("config", stub))
	return true
}

func (s *DefaultCardService) View() card.View {
	s.metrics.Render()
	return card.Render(s.resolved, s.store, s.formatter)
}

func (s *DefaultCardService) Stub() card.Config {
	return card.StubConfig(s.store)
}

// Tap resolves the action of a slot and hands it to the dispatcher. An icon
// tap on a slot whose icon is hidden is a plain tap. The bool result
// reports whether a ready dispatcher received the action.
func (s *DefaultCardService) Tap(ctx context.Context, slot card.SlotID, icon bool) (hass.ActionEvent, bool, error) {
	if !slot.Valid() {
		return hass.ActionEvent{}, false, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	rs := s.resolved.Slot(slot)
	action := rs.TapAction
	source := "tap"
	if icon && rs.ShowIcon {
		action = rs.IconTapAction
		source = "icon_tap"
	}
	event := hass.NewActionEvent(action, rs.Entity)
	event.Source = source
	if action.IsNone() {
		s.metrics.Action(string(action.Action), false)
		return event, false, nil
	}
	ready := s.helpers.Ready()
	if err := s.helpers.Dispatcher().Dispatch(ctx, event.Action, event.EntityID); err != nil {
		s.metrics.Action(string(action.Action), false)
		return event, false, fmt.Errorf("dispatch %s action: %w", action.Action, err)
	}
	s.metrics.Action(string(action.Action), ready)
	return event, ready, nil
}

// ensure interface compliance
var _ port.CardService = (*DefaultCardService)(nil)
