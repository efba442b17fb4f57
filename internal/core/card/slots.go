package card

type SlotID string

const (
	SLOT_TDS_IN   SlotID = "tds_in"
	SLOT_TEMP_IN  SlotID = "tds_in_temp"
	SLOT_FLOW     SlotID = "flow"
	SLOT_TDS_OUT  SlotID = "tds_out"
	SLOT_TEMP_OUT SlotID = "tds_out_temp"

	ICON_WATER_OPACITY = "mdi:water-opacity"
	ICON_THERMOMETER   = "mdi:thermometer"
	ICON_WATER         = "mdi:water"

	UNIT_PPM     = "ppm"
	UNIT_CELSIUS = "°C"

	// DEFAULT_NAME is the title used when the config has no name key.
	DEFAULT_NAME = "TDS & Flow"

	FLOW_PLACEHOLDER = "Select flow entity in editor"

	CARD_TYPE = "custom:tds-flow-card"
	CARD_SIZE = 2
)

// slotSpec holds everything that is fixed per slot.
type slotSpec struct {
	id           SlotID
	area         string
	label        string
	icon         string
	fallbackUnit string
	editorLabel  string
	section      string
	fragments    []string
}

var slotSpecs = []slotSpec{
	{
		id:           SLOT_TDS_IN,
		area:         "tds-in",
		label:        "TDS in",
		icon:         ICON_WATER_OPACITY,
		fallbackUnit: UNIT_PPM,
		editorLabel:  "TDS in sensor",
		section:      "TDS in",
		fragments:    []string{"tds_in", "tds in"},
	},
	{
		id:           SLOT_TEMP_IN,
		area:         "temp-in",
		label:        "Temp in",
		icon:         ICON_THERMOMETER,
		fallbackUnit: UNIT_CELSIUS,
		editorLabel:  "TDS in temperature sensor",
		section:      "Temperature in",
		fragments:    []string{"temp_in", "temperature_in"},
	},
	{
		id:           SLOT_FLOW,
		area:         "flow",
		label:        "Flow",
		icon:         ICON_WATER,
		fallbackUnit: "",
		editorLabel:  "Flow sensor (required)",
		section:      "Flow",
		fragments:    []string{"flow"},
	},
	{
		id:           SLOT_TDS_OUT,
		area:         "tds-out",
		label:        "TDS out",
		icon:         ICON_WATER_OPACITY,
		fallbackUnit: UNIT_PPM,
		editorLabel:  "TDS out sensor",
		section:      "TDS out",
		fragments:    []string{"tds_out", "tds out"},
	},
	{
		id:           SLOT_TEMP_OUT,
		area:         "temp-out",
		label:        "Temp out",
		icon:         ICON_THERMOMETER,
		fallbackUnit: UNIT_CELSIUS,
		editorLabel:  "TDS out temperature sensor",
		section:      "Temperature out",
		fragments:    []string{"temp_out", "temperature_out"},
	},
}

// Slots lists the slot ids in layout order.
func Slots() []SlotID {
	ids := make([]SlotID, len(slotSpecs))
	for i := range slotSpecs {
		ids[i] = slotSpecs[i].id
	}
	return ids
}

func lookupSlot(id SlotID) (slotSpec, bool) {
	for _, s := range slotSpecs {
		if s.id == id {
			return s, true
		}
	}
	return slotSpec{}, false
}

func (id SlotID) EntityKey() string {
	return string(id) + "_entity"
}

func (id SlotID) NameKey() string {
	return string(id) + "_name"
}

func (id SlotID) ShowIconKey() string {
	return string(id) + "_show_icon"
}

func (id SlotID) IconKey() string {
	return string(id) + "_icon"
}

func (id SlotID) TapActionKey() string {
	return string(id) + "_tap_action"
}

func (id SlotID) IconTapActionKey() string {
	return string(id) + "_icon_tap_action"
}

func (id SlotID) Valid() bool {
	_, ok := lookupSlot(id)
	return ok
}
