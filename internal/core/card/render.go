package card

import (
	"github.com/berfenger/tdsflow/internal/core/hass"
	"github.com/berfenger/tdsflow/pkg/display"
)

type SlotView struct {
	ID            SlotID      `json:"id"`
	Area          string      `json:"area"`
	Label         string      `json:"label"`
	Text          string      `json:"text"`
	Unit          string      `json:"unit,omitempty"`
	Entity        string      `json:"entity,omitempty"`
	ShowIcon      bool        `json:"show_icon"`
	Icon          string      `json:"icon,omitempty"`
	Placeholder   string      `json:"placeholder,omitempty"`
	TapAction     hass.Action `json:"tap_action"`
	IconTapAction hass.Action `json:"icon_tap_action"`
}

// View is one render pass of the card.
type View struct {
	Title string     `json:"title,omitempty"`
	Size  int        `json:"size"`
	Slots []SlotView `json:"slots"`
}

func (v View) Slot(id SlotID) SlotView {
	for _, s := range v.Slots {
		if s.ID == id {
			return s
		}
	}
	return SlotView{}
}

// Render formats every slot from the store. It reads only, never fails
// and returns the same view for the same inputs.
func Render(res Resolved, store hass.StateStore, formatter *display.Formatter) View {
	view := View{
		Title: res.Name,
		Size:  CARD_SIZE,
		Slots: make([]SlotView, 0, len(res.Slots)),
	}
	for _, slot := range res.Slots {
		var reading *display.Reading
		if slot.Bound() && store != nil {
			if r, ok := store.Reading(slot.Entity); ok {
				reading = r
			}
		}
		value := formatter.Format(reading, slot.FallbackUnit)

		sv := SlotView{
			ID:            slot.ID,
			Area:          slot.Area,
			Label:         slot.Label,
			Text:          value.Text,
			Unit:          value.Unit,
			Entity:        slot.Entity,
			ShowIcon:      slot.ShowIcon,
			TapAction:     slot.TapAction,
			IconTapAction: slot.IconTapAction,
		}
		if slot.ShowIcon {
			sv.Icon = slot.Icon
		}
		if slot.ID == SLOT_FLOW && !slot.Bound() {
			sv.Placeholder = FLOW_PLACEHOLDER
		}
		view.Slots = append(view.Slots, sv)
	}
	return view
}
