package card

import (
	"github.com/berfenger/tdsflow/internal/core/hass"
)

// Resolved is a config with a value for every field.
type Resolved struct {
	Name  string         `json:"name,omitempty"`
	Slots []ResolvedSlot `json:"slots"`
	// Invalid collects config fields that were ignored because their
	// value could not be used.
	Invalid map[string]string `json:"invalid,omitempty"`
}

type ResolvedSlot struct {
	ID            SlotID      `json:"id"`
	Area          string      `json:"area"`
	Entity        string      `json:"entity,omitempty"`
	Label         string      `json:"label"`
	ShowIcon      bool        `json:"show_icon"`
	Icon          string      `json:"icon"`
	FallbackUnit  string      `json:"fallback_unit,omitempty"`
	TapAction     hass.Action `json:"tap_action"`
	IconTapAction hass.Action `json:"icon_tap_action"`
}

func (s ResolvedSlot) Bound() bool {
	return s.Entity != ""
}

// Slot returns the resolved slot, or a zero slot for an unknown id.
func (r Resolved) Slot(id SlotID) ResolvedSlot {
	for _, s := range r.Slots {
		if s.ID == id {
			return s
		}
	}
	return ResolvedSlot{}
}

// Resolve fills every omitted field with its default. The name defaults
// only when the key is absent, so an explicit empty name hides the title.
func Resolve(cfg Config) Resolved {
	res := Resolved{
		Name:  DEFAULT_NAME,
		Slots: make([]ResolvedSlot, 0, len(slotSpecs)),
	}
	if name, ok := cfg.Name(); ok {
		res.Name = name
	}

	for _, spec := range slotSpecs {
		res.Slots = append(res.Slots, resolveSlot(cfg, spec, &res))
	}
	return res
}

func resolveSlot(cfg Config, spec slotSpec, res *Resolved) ResolvedSlot {
	slot := ResolvedSlot{
		ID:            spec.id,
		Area:          spec.area,
		Entity:        cfg.Entity(spec.id),
		Label:         spec.label,
		ShowIcon:      cfg.boolValue(spec.id.ShowIconKey()),
		Icon:          spec.icon,
		FallbackUnit:  spec.fallbackUnit,
		TapAction:     hass.NoAction(),
		IconTapAction: hass.NoAction(),
	}
	if label := cfg.stringValue(spec.id.NameKey()); label != "" {
		slot.Label = label
	}
	if icon := cfg.stringValue(spec.id.IconKey()); icon != "" {
		slot.Icon = icon
	}

	// unbound slots get no actions at all
	if !slot.Bound() {
		return slot
	}
	slot.TapAction = resolveAction(cfg, spec.id.TapActionKey(), res)
	slot.IconTapAction = resolveAction(cfg, spec.id.IconTapActionKey(), res)
	return slot
}

func resolveAction(cfg Config, key string, res *Resolved) hass.Action {
	v, ok := cfg[key]
	if !ok || v == nil {
		return hass.MoreInfo()
	}
	action, err := hass.ParseAction(v)
	if err != nil {
		if res.Invalid == nil {
			res.Invalid = make(map[string]string)
		}
		res.Invalid[key] = err.Error()
		return hass.MoreInfo()
	}
	return action
}
