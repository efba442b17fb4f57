package port

import (
	"context"

	"github.com/berfenger/tdsflow/internal/core/card"
	"github.com/berfenger/tdsflow/internal/core/hass"
)

type CardService interface {
	// SetConfig replaces the card config. Only a config that is not an
	// object is rejected, with a *card.ConfigError.
	SetConfig(cfg card.Config) (card.Resolved, error)
	Edit(changes map[string]any) (card.Config, error)
	Config() card.Config
	Resolved() card.Resolved
	// ApplyUpdate stores an entity attribute and reports whether a bound
	// slot may render differently.
	ApplyUpdate(entityID, attribute, payload string) bool
	View() card.View
	Stub() card.Config
	Tap(ctx context.Context, slot card.SlotID, icon bool) (hass.ActionEvent, bool, error)
}
