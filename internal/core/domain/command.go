package domain

import (
	"fmt"

	"github.com/berfenger/tdsflow/internal/core/card"
	"github.com/berfenger/tdsflow/internal/core/hass"
)

// CardRequest

type CardRequest interface {
	ActorRequest
	CardCommand() string
}

type CardRequestMixIn struct {
	ActorRequestMixIn
}

func (r CardRequestMixIn) CardCommand() string {
	return fmt.Sprintf("%T", r)
}

// Card commands

type GetCardViewRequest struct {
	CardRequestMixIn
}

type GetCardViewResponse struct {
	ActorResponseMixIn
	View card.View
}

type GetCardConfigRequest struct {
	CardRequestMixIn
}

type GetCardConfigResponse struct {
	ActorResponseMixIn
	Config   card.Config
	Resolved card.Resolved
}

type SetCardConfigRequest struct {
	CardRequestMixIn
	Config card.Config
}

type SetCardConfigResponse struct {
	ActorResponseMixIn
	Resolved card.Resolved
}

// EditCardConfigRequest merges editor changes into the current config. A
// nil value removes the key.
type EditCardConfigRequest struct {
	CardRequestMixIn
	Changes map[string]any
}

type EditCardConfigResponse struct {
	ActorResponseMixIn
	Config card.Config
}

type GetStubConfigRequest struct {
	CardRequestMixIn
}

type GetStubConfigResponse struct {
	ActorResponseMixIn
	Config card.Config
}

type CardTapRequest struct {
	CardRequestMixIn
	Slot card.SlotID
	Icon bool
}

type CardTapResponse struct {
	ActorResponseMixIn
	Event      hass.ActionEvent
	Dispatched bool
}

type RepublishRequest struct {
	CardRequestMixIn
}

// ensure interface compliance
var _ CardRequest = (*CardTapRequest)(nil)
