package service

import (
	"context"
	"errors"
	"testing"

	"github.com/berfenger/tdsflow/internal/core/card"
	"github.com/berfenger/tdsflow/internal/core/hass"
	"github.com/berfenger/tdsflow/internal/metrics"
	"github.com/berfenger/tdsflow/pkg/display"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingDispatcher struct {
	actions  []hass.Action
	entities []string
	err      error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, action hass.Action, entityID string) error {
	d.actions = append(d.actions, action)
	d.entities = append(d.entities, entityID)
	return d.err
}

func newTestService(host display.HostFormatter) (*DefaultCardService, *hass.HelperCache, *prometheus.Registry) {
	helpers := hass.NewHelperCache()
	reg := prometheus.NewRegistry()
	srv := NewCardService(hass.NewStore(), helpers, display.NewFormatter(display.POLICY_FORMATTED, host), metrics.New(reg), zap.NewNop())
	return srv, helpers, reg
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func TestSetConfig(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	srv, _, reg := newTestService(nil)

	res, err := srv.SetConfig(card.Config{"flow_entity": "sensor.flow", "custom": 1})
	require.NoError(err)
	assert.Equal(card.DEFAULT_NAME, res.Name)
	assert.Equal("sensor.flow", res.Slot(card.SLOT_FLOW).Entity)
	assert.Equal(1, srv.Config()["custom"])

	_, err = srv.SetConfig(nil)
	var cfgErr *card.ConfigError
	require.ErrorAs(err, &cfgErr)
	assert.Equal(1.0, counterValue(t, reg, "tdsflow_config_rejected_total"))
	// previous config survives a rejected one
	assert.Equal("sensor.flow", srv.Resolved().Slot(card.SLOT_FLOW).Entity)
}

func TestConfigIsCopied(t *testing.T) {

	assert := assert.New(t)

	srv, _, _ := newTestService(nil)
	cfg := card.Config{"flow_entity": "sensor.flow"}
	_, _ = srv.SetConfig(cfg)
	cfg["flow_entity"] = "sensor.other"
	srv.Config()["flow_entity"] = "sensor.third"
	assert.Equal("sensor.flow", srv.Config().Entity(card.SLOT_FLOW))
}

func TestEdit(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	srv, _, _ := newTestService(nil)
	_, err := srv.SetConfig(card.Config{"name": "Kitchen", "flow_entity": "sensor.flow", "tds_in_name": "Raw"})
	require.NoError(err)

	cfg, err := srv.Edit(map[string]any{"tds_in_name": nil, "tds_out_entity": "sensor.tds_out"})
	require.NoError(err)
	assert.Equal("Kitchen", cfg["name"])
	assert.NotContains(cfg, "tds_in_name")
	assert.Equal("sensor.tds_out", srv.Resolved().Slot(card.SLOT_TDS_OUT).Entity)
}

func TestApplyUpdateAndView(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	srv, _, _ := newTestService(nil)
	_, err := srv.SetConfig(card.Config{"tds_in_entity": "sensor.tds_in", "flow_entity": "sensor.flow"})
	require.NoError(err)

	assert.True(srv.ApplyUpdate("sensor.tds_in", hass.ATTR_STATE, "123.456"))
	assert.True(srv.ApplyUpdate("sensor.tds_in", hass.ATTR_DISPLAY_PRECISION, "1"))
	// not bound to any slot
	assert.False(srv.ApplyUpdate("sensor.other", hass.ATTR_STATE, "1"))
	// not a render attribute
	assert.False(srv.ApplyUpdate("sensor.tds_in", "friendly_name", `"TDS"`))

	view := srv.View()
	assert.Equal(card.DEFAULT_NAME, view.Title)
	assert.Equal("123.5", view.Slot(card.SLOT_TDS_IN).Text)
	assert.Equal(card.UNIT_PPM, view.Slot(card.SLOT_TDS_IN).Unit)
	assert.Equal(display.Placeholder, view.Slot(card.SLOT_FLOW).Text)
	assert.Equal(display.Placeholder, view.Slot(card.SLOT_TDS_OUT).Text)
}

func TestFormatDegradeCounted(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	host := display.HostFormatterFunc(func(display.Reading) (string, error) {
		return "", errors.New("no locale")
	})
	srv, _, reg := newTestService(host)
	_, err := srv.SetConfig(card.Config{"tds_in_entity": "sensor.tds_in"})
	require.NoError(err)
	srv.ApplyUpdate("sensor.tds_in", hass.ATTR_STATE, "10")

	view := srv.View()
	assert.Equal("10", view.Slot(card.SLOT_TDS_IN).Text)
	assert.Equal(1.0, counterValue(t, reg, "tdsflow_format_degraded_total"))
	assert.Equal(1.0, counterValue(t, reg, "tdsflow_card_renders_total"))
}

func TestStub(t *testing.T) {

	assert := assert.New(t)

	srv, _, _ := newTestService(nil)
	srv.ApplyUpdate("sensor.ro_flow", hass.ATTR_STATE, "1")
	srv.ApplyUpdate("sensor.ro_tds_in", hass.ATTR_STATE, "200")
	srv.ApplyUpdate("switch.flow_pump", hass.ATTR_STATE, "on")

	stub := srv.Stub()
	assert.Equal("sensor.ro_flow", stub.Entity(card.SLOT_FLOW))
	assert.Equal("sensor.ro_tds_in", stub.Entity(card.SLOT_TDS_IN))
}

func TestSuggestedConfigUntilSet(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	srv, _, _ := newTestService(nil)
	assert.Equal("", srv.Resolved().Slot(card.SLOT_TDS_IN).Entity)

	assert.True(srv.ApplyUpdate("sensor.ro_tds_in", hass.ATTR_STATE, "200"))
	assert.Equal("sensor.ro_tds_in", srv.Resolved().Slot(card.SLOT_TDS_IN).Entity)
	assert.Equal("200", srv.View().Slot(card.SLOT_TDS_IN).Text)

	// flow moves to the better match once it shows up
	assert.True(srv.ApplyUpdate("sensor.ro_flow", hass.ATTR_STATE, "1.2"))
	assert.Equal("sensor.ro_flow", srv.Resolved().Slot(card.SLOT_FLOW).Entity)
	assert.Equal("sensor.ro_flow", srv.Config().Entity(card.SLOT_FLOW))
	assert.True(srv.ApplyUpdate("sensor.ro_flow", hass.ATTR_STATE, "1.3"))
	// not a sensor, the suggestion does not change
	assert.False(srv.ApplyUpdate("switch.pump", hass.ATTR_STATE, "on"))

	// a rejected config does not stop the suggestion
	_, err := srv.SetConfig(nil)
	require.Error(err)
	assert.True(srv.ApplyUpdate("sensor.ro_tds_out", hass.ATTR_STATE, "5"))
	assert.Equal("sensor.ro_tds_out", srv.Resolved().Slot(card.SLOT_TDS_OUT).Entity)

	_, err = srv.SetConfig(card.Config{"tds_out_entity": "sensor.other"})
	require.NoError(err)
	assert.False(srv.ApplyUpdate("sensor.ro_temp_in", hass.ATTR_STATE, "21"))
	assert.Equal("sensor.other", srv.Resolved().Slot(card.SLOT_TDS_OUT).Entity)
	assert.Equal("", srv.Resolved().Slot(card.SLOT_TDS_IN).Entity)
}

func TestTextStateNotCountedAsDegraded(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	lf, err := display.NewLocaleFormatter("en")
	require.NoError(err)
	srv, _, reg := newTestService(lf)
	_, err = srv.SetConfig(card.Config{"flow_entity": "sensor.flow", "tds_in_entity": "sensor.tds_in"})
	require.NoError(err)
	srv.ApplyUpdate("sensor.flow", hass.ATTR_STATE, "idle")
	srv.ApplyUpdate("sensor.tds_in", hass.ATTR_STATE, "1234")

	view := srv.View()
	assert.Equal("idle", view.Slot(card.SLOT_FLOW).Text)
	assert.Equal("1,234", view.Slot(card.SLOT_TDS_IN).Text)
	assert.Equal(0.0, counterValue(t, reg, "tdsflow_format_degraded_total"))
}

func TestTapBeforeHelpersReady(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	srv, _, _ := newTestService(nil)
	_, err := srv.SetConfig(card.Config{"flow_entity": "sensor.flow"})
	require.NoError(err)

	event, dispatched, err := srv.Tap(context.Background(), card.SLOT_FLOW, false)
	require.NoError(err)
	assert.False(dispatched)
	assert.Equal(hass.ACTION_MORE_INFO, event.Action.Action)
	assert.Equal("sensor.flow", event.Action.Entity)
	assert.Equal("tap", event.Source)
}

func TestTapDispatch(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	srv, helpers, _ := newTestService(nil)
	target := &recordingDispatcher{}
	require.True(helpers.Begin())
	helpers.Complete(target)

	_, err := srv.SetConfig(card.Config{
		"flow_entity":             "sensor.flow",
		"flow_show_icon":          true,
		"flow_icon_tap_action":    map[string]any{"action": "navigate", "navigation_path": "/water"},
		"tds_out_temp_entity":     "sensor.temp_out",
		"tds_out_temp_tap_action": map[string]any{"action": "none"},
	})
	require.NoError(err)

	event, dispatched, err := srv.Tap(context.Background(), card.SLOT_FLOW, true)
	require.NoError(err)
	assert.True(dispatched)
	assert.Equal("icon_tap", event.Source)
	require.Len(target.actions, 1)
	assert.Equal(hass.ACTION_NAVIGATE, target.actions[0].Action)
	assert.Equal("/water", target.actions[0].NavigationPath)

	// explicit none
	_, dispatched, err = srv.Tap(context.Background(), card.SLOT_TEMP_OUT, false)
	require.NoError(err)
	assert.False(dispatched)
	// unbound slot
	_, dispatched, err = srv.Tap(context.Background(), card.SLOT_TDS_IN, false)
	require.NoError(err)
	assert.False(dispatched)
	assert.Len(target.actions, 1)

	_, _, err = srv.Tap(context.Background(), card.SlotID("pressure"), false)
	assert.ErrorIs(err, ErrUnknownSlot)

	target.err = errors.New("broker down")
	_, dispatched, err = srv.Tap(context.Background(), card.SLOT_FLOW, false)
	assert.Error(err)
	assert.False(dispatched)
}
