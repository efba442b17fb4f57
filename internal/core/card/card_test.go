package card

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/berfenger/tdsflow/internal/core/hass"
	"github.com/berfenger/tdsflow/pkg/display"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {

	assert := assert.New(t)

	assert.NoError(Validate(map[string]any{}))
	assert.NoError(Validate(Config{"flow_entity": "sensor.flow"}))

	for _, v := range []any{nil, "tds", 12, []any{"a"}, Config(nil)} {
		err := Validate(v)
		var cfgErr *ConfigError
		assert.True(errors.As(err, &cfgErr), "value %#v", v)
	}
}

func TestParse(t *testing.T) {

	require := require.New(t)

	cfg, err := Parse([]byte(`{"flow_entity":"sensor.flow_rate","future_slot":{"x":1}}`))
	require.NoError(err)
	require.Equal("sensor.flow_rate", cfg.Entity(SLOT_FLOW))

	for _, data := range []string{`[]`, `"card"`, `null`, `{`} {
		_, err = Parse([]byte(data))
		var cfgErr *ConfigError
		require.ErrorAs(err, &cfgErr, data)
	}
}

func TestParseYAML(t *testing.T) {

	require := require.New(t)

	cfg, err := ParseYAML([]byte(`
type: custom:tds-flow-card
name: Kitchen RO
flow_entity: sensor.ro_flow
flow_show_icon: true
flow_tap_action:
  action: navigate
  navigation_path: /lovelace/water
`))
	require.NoError(err)

	res := Resolve(cfg)
	require.Equal("Kitchen RO", res.Name)
	flow := res.Slot(SLOT_FLOW)
	require.True(flow.ShowIcon)
	require.Equal(hass.Action{Action: hass.ACTION_NAVIGATE, NavigationPath: "/lovelace/water"}, flow.TapAction)

	_, err = ParseYAML([]byte("- a\n- b\n"))
	var cfgErr *ConfigError
	require.ErrorAs(err, &cfgErr)
}

func TestUnknownFieldsRoundTrip(t *testing.T) {

	require := require.New(t)

	in := `{"flow_entity":"sensor.flow","grid_options":{"columns":12},"tds_in_show_icon":true}`
	cfg, err := Parse([]byte(in))
	require.NoError(err)

	edited := ApplyEdit(cfg, map[string]any{"tds_in_entity": "sensor.tds_in"})
	out, err := edited.Marshal()
	require.NoError(err)

	var decoded map[string]any
	require.NoError(json.Unmarshal(out, &decoded))
	require.Equal(map[string]any{"columns": float64(12)}, decoded["grid_options"])
	require.Equal(true, decoded["tds_in_show_icon"])
	require.Equal("sensor.tds_in", decoded["tds_in_entity"])

	// the original is left untouched
	_, ok := cfg["tds_in_entity"]
	require.False(ok)
}

func TestUnknownNumbersKeepDigits(t *testing.T) {

	require := require.New(t)

	in := `{"flow_entity":"sensor.flow","future_slot_id":9007199254740993,"ratio":0.10000000000000001,"flow_show_icon":1,"tds_in_name":42}`
	cfg, err := Parse([]byte(in))
	require.NoError(err)

	out, err := cfg.Marshal()
	require.NoError(err)
	require.Contains(string(out), `"future_slot_id":9007199254740993`)
	require.Contains(string(out), `"ratio":0.10000000000000001`)

	// numbers are still usable as values of known keys
	res := Resolve(cfg)
	require.True(res.Slot(SLOT_FLOW).ShowIcon)
	require.Equal("42", res.Slot(SLOT_TDS_IN).Label)

	_, err = Parse([]byte(`{"flow_entity":"sensor.flow"} {}`))
	var cfgErr *ConfigError
	require.ErrorAs(err, &cfgErr)
}

func TestApplyEditRemovesNilKeys(t *testing.T) {
	cfg := ApplyEdit(Config{"flow_icon": "mdi:pipe", "flow_entity": "sensor.flow"}, map[string]any{"flow_icon": nil})
	assert.Equal(t, Config{"flow_entity": "sensor.flow"}, cfg)
}

func TestResolveDefaults(t *testing.T) {

	require := require.New(t)

	res := Resolve(Config{})
	require.Equal(DEFAULT_NAME, res.Name)
	require.Len(res.Slots, 5)

	expected := map[SlotID][2]string{
		SLOT_TDS_IN:   {"TDS in", ICON_WATER_OPACITY},
		SLOT_TEMP_IN:  {"Temp in", ICON_THERMOMETER},
		SLOT_FLOW:     {"Flow", ICON_WATER},
		SLOT_TDS_OUT:  {"TDS out", ICON_WATER_OPACITY},
		SLOT_TEMP_OUT: {"Temp out", ICON_THERMOMETER},
	}
	for _, slot := range res.Slots {
		require.Equal(expected[slot.ID][0], slot.Label, slot.ID)
		require.Equal(expected[slot.ID][1], slot.Icon, slot.ID)
		require.False(slot.ShowIcon, slot.ID)
		require.True(slot.TapAction.IsNone(), "unbound slot has no tap action")
		require.True(slot.IconTapAction.IsNone(), "unbound slot has no icon tap action")
	}
	require.Equal(Slots(), []SlotID{SLOT_TDS_IN, SLOT_TEMP_IN, SLOT_FLOW, SLOT_TDS_OUT, SLOT_TEMP_OUT})
}

func TestResolveLabelDefaultPerSlot(t *testing.T) {

	assert := assert.New(t)

	// override every label but one, the missing one gets its default
	for _, missing := range Slots() {
		cfg := Config{}
		for _, id := range Slots() {
			if id != missing {
				cfg[id.NameKey()] = "custom"
			}
		}
		res := Resolve(cfg)
		spec, _ := lookupSlot(missing)
		assert.Equal(spec.label, res.Slot(missing).Label)
		for _, id := range Slots() {
			if id != missing {
				assert.Equal("custom", res.Slot(id).Label)
			}
		}
	}
}

func TestResolveName(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(DEFAULT_NAME, Resolve(Config{}).Name)
	assert.Equal("", Resolve(Config{"name": ""}).Name, "explicit empty name hides the title")
	assert.Equal("RO", Resolve(Config{"name": "RO"}).Name)
}

func TestResolveActions(t *testing.T) {

	require := require.New(t)

	res := Resolve(Config{
		"tds_in_entity":           "sensor.tds_in",
		"flow_entity":             "sensor.flow",
		"flow_tap_action":         map[string]any{"action": "toggle"},
		"flow_icon_tap_action":    "none",
		"tds_out_tap_action":      map[string]any{"action": "toggle"},
		"tds_in_icon_tap_action":  map[string]any{"action": "url"},
		"tds_in_show_icon":        "true",
		"tds_in_icon":             "mdi:cup-water",
		"temp_in_unknown_setting": 1,
	})

	tdsIn := res.Slot(SLOT_TDS_IN)
	require.Equal(hass.ACTION_MORE_INFO, tdsIn.TapAction.Action)
	require.Equal(hass.ACTION_MORE_INFO, tdsIn.IconTapAction.Action, "invalid action falls back to more-info")
	require.Contains(res.Invalid, "tds_in_icon_tap_action")
	require.True(tdsIn.ShowIcon)
	require.Equal("mdi:cup-water", tdsIn.Icon)

	flow := res.Slot(SLOT_FLOW)
	require.Equal(hass.ACTION_TOGGLE, flow.TapAction.Action)
	require.Equal(hass.ACTION_NONE, flow.IconTapAction.Action)

	// explicit action without a binding is suppressed
	require.True(res.Slot(SLOT_TDS_OUT).TapAction.IsNone())
}

func TestSuggest(t *testing.T) {

	require := require.New(t)

	cfg := Suggest([]string{"sensor.tds_in_ppm", "sensor.flow_rate", "sensor.tds_out_ppm"})
	require.Equal("sensor.tds_in_ppm", cfg.Entity(SLOT_TDS_IN))
	require.Equal("sensor.flow_rate", cfg.Entity(SLOT_FLOW))
	require.Equal("sensor.tds_out_ppm", cfg.Entity(SLOT_TDS_OUT))

	_, ok := cfg[SLOT_TEMP_IN.EntityKey()]
	require.False(ok)
	_, ok = cfg[SLOT_TEMP_OUT.EntityKey()]
	require.False(ok)
}

func TestSuggestCaseInsensitiveAndAlternates(t *testing.T) {

	require := require.New(t)

	cfg := Suggest([]string{"sensor.RO_Temperature_In", "sensor.Water_Temp_Out", "sensor.TDS In Probe"})
	require.Equal("sensor.RO_Temperature_In", cfg.Entity(SLOT_TEMP_IN))
	require.Equal("sensor.Water_Temp_Out", cfg.Entity(SLOT_TEMP_OUT))
	require.Equal("sensor.TDS In Probe", cfg.Entity(SLOT_TDS_IN))
	// no flow match: first candidate
	require.Equal("sensor.RO_Temperature_In", cfg.Entity(SLOT_FLOW))
}

func TestSuggestOnlyReturnsCandidates(t *testing.T) {

	assert := assert.New(t)

	lists := [][]string{
		nil,
		{},
		{"light.kitchen"},
		{"sensor.tds_in", "sensor.tds_in_temp", "sensor.flow", "sensor.tds_out", "sensor.temp_out"},
	}
	for _, candidates := range lists {
		cfg := Suggest(candidates)
		for _, id := range Slots() {
			entity, ok := cfg[id.EntityKey()]
			if !ok {
				continue
			}
			assert.Contains(candidates, entity)
		}
	}
	_, ok := Suggest(nil)[SLOT_FLOW.EntityKey()]
	assert.False(ok, "no candidates, no flow binding")
}

func TestStubConfig(t *testing.T) {

	require := require.New(t)

	store := hass.NewStore()
	store.SetState("switch.flow_valve", "on")
	store.SetState("sensor.ro_flow", "1.2")
	store.SetState("sensor.tds_out", "12")

	cfg := StubConfig(store)
	require.Equal(DEFAULT_NAME, cfg[KEY_NAME])
	require.Equal("sensor.ro_flow", cfg.Entity(SLOT_FLOW))
	require.Equal("sensor.tds_out", cfg.Entity(SLOT_TDS_OUT))
}

func TestEditorSchema(t *testing.T) {

	require := require.New(t)

	schema := EditorSchema()
	require.Len(schema, 6)
	require.Equal("name", schema[0].Name)
	require.Equal("Name (optional)", schema[0].Label)

	flow := schema[3]
	require.Equal("expandable", flow.Type)
	require.True(flow.Expanded)
	require.Equal("flow_entity", flow.Schema[0].Name)
	require.Equal("Flow sensor (required)", flow.Schema[0].Label)

	require.Equal("TDS in temperature sensor", ComputeLabel("tds_in_temp_entity"))
	require.Equal("TDS out temperature sensor", ComputeLabel("tds_out_temp_entity"))
	require.Equal("whatever", ComputeLabel("whatever"))
}

func TestEditorData(t *testing.T) {

	assert := assert.New(t)

	data := EditorData(Config{"flow_entity": "sensor.flow", "extra": 1})
	assert.Equal(DEFAULT_NAME, data["name"])
	assert.Equal("", data["tds_in_entity"])
	assert.Equal("sensor.flow", data["flow_entity"])
	assert.Equal(1, data["extra"])
}

func TestRender(t *testing.T) {

	require := require.New(t)

	store := hass.NewStore()
	p := 1
	store.Put(display.Reading{EntityID: "sensor.tds_in", State: "123.456", Unit: "ppm", Precision: &p})
	store.Put(display.Reading{EntityID: "sensor.temp_in", State: "unavailable", Unit: "°C"})
	store.Put(display.Reading{EntityID: "sensor.tds_out", State: "8"})

	res := Resolve(Config{
		"name":                "",
		"tds_in_entity":       "sensor.tds_in",
		"tds_in_temp_entity":  "sensor.temp_in",
		"tds_out_entity":      "sensor.tds_out",
		"tds_out_show_icon":   true,
		"tds_out_temp_entity": "sensor.missing",
	})
	view := Render(res, store, display.NewFormatter(display.POLICY_FORMATTED, nil))

	require.Equal("", view.Title)
	require.Equal(CARD_SIZE, view.Size)

	require.Equal("123.5", view.Slot(SLOT_TDS_IN).Text)
	require.Equal("ppm", view.Slot(SLOT_TDS_IN).Unit)
	require.Equal("", view.Slot(SLOT_TDS_IN).Icon, "icon hidden by default")

	require.Equal(display.Placeholder, view.Slot(SLOT_TEMP_IN).Text)
	require.Equal("°C", view.Slot(SLOT_TEMP_IN).Unit)

	flow := view.Slot(SLOT_FLOW)
	require.Equal(display.Placeholder, flow.Text)
	require.Equal(FLOW_PLACEHOLDER, flow.Placeholder)
	require.True(flow.TapAction.IsNone())

	tdsOut := view.Slot(SLOT_TDS_OUT)
	require.Equal("8", tdsOut.Text)
	require.Equal("ppm", tdsOut.Unit)
	require.Equal(ICON_WATER_OPACITY, tdsOut.Icon)
	require.Equal(hass.ACTION_MORE_INFO, tdsOut.TapAction.Action)

	missing := view.Slot(SLOT_TEMP_OUT)
	require.Equal(display.Placeholder, missing.Text)
	require.Equal("", missing.Placeholder)

	require.Equal(view, Render(res, store, display.NewFormatter(display.POLICY_FORMATTED, nil)))
}
