package hass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionForms(t *testing.T) {

	require := require.New(t)

	a, err := ParseAction("more-info")
	require.NoError(err)
	require.Equal(ACTION_MORE_INFO, a.Action)

	a, err = ParseAction(map[string]any{
		"action":          "navigate",
		"navigation_path": "/lovelace/water",
	})
	require.NoError(err)
	require.Equal(Action{Action: ACTION_NAVIGATE, NavigationPath: "/lovelace/water"}, a)

	a, err = ParseAction(map[string]any{
		"action":       "call-service",
		"service":      "switch.toggle",
		"service_data": map[string]any{"entity_id": "switch.ro_pump"},
	})
	require.NoError(err)
	require.Equal(ACTION_PERFORM_ACTION, a.Action)
	require.Equal("switch.toggle", a.PerformAction)
	require.Equal("switch.ro_pump", a.Data["entity_id"])
}

func TestParseActionInvalid(t *testing.T) {

	assert := assert.New(t)

	for _, v := range []any{nil, 42, "explode", map[string]any{"action": "url"}, map[string]any{"action": "navigate"}} {
		_, err := ParseAction(v)
		assert.ErrorIs(err, ErrInvalidAction, "value %v", v)
	}
}

func TestActionEventFillsMoreInfoEntity(t *testing.T) {

	assert := assert.New(t)

	ev := NewActionEvent(MoreInfo(), "sensor.flow_rate")
	assert.Equal("sensor.flow_rate", ev.Action.Entity)

	ev = NewActionEvent(Action{Action: ACTION_MORE_INFO, Entity: "sensor.other"}, "sensor.flow_rate")
	assert.Equal("sensor.other", ev.Action.Entity)

	ev = NewActionEvent(Action{Action: ACTION_TOGGLE}, "switch.valve")
	assert.Equal("", ev.Action.Entity)
}

func TestStore(t *testing.T) {

	require := require.New(t)

	s := NewStore()
	_, ok := s.Reading("sensor.tds_in")
	require.False(ok)
	_, ok = s.Reading("")
	require.False(ok)

	s.SetUnit("sensor.tds_in", "ppm")
	r, ok := s.Reading("sensor.tds_in")
	require.True(ok)
	require.Equal("unknown", r.State, "attribute before state")

	s.SetState("sensor.tds_in", "120")
	p := 1
	s.SetPrecision("sensor.tds_in", &p)
	r, ok = s.Reading("sensor.tds_in")
	require.True(ok)
	require.Equal("120", r.State)
	require.Equal("ppm", r.Unit)
	require.Equal(1, *r.Precision)

	// readers get copies
	*r.Precision = 5
	r2, _ := s.Reading("sensor.tds_in")
	require.Equal(1, *r2.Precision)

	s.SetState("switch.pump", "on")
	require.Equal([]string{"sensor.tds_in", "switch.pump"}, s.EntityIDs())
	require.Equal([]string{"sensor.tds_in"}, FilterDomain(s.EntityIDs(), "sensor"))

	s.Remove("switch.pump")
	require.Equal(1, s.Len())
}

func TestHelperCacheNoopBeforeReady(t *testing.T) {

	require := require.New(t)

	h := NewHelperCache()
	require.False(h.Ready())
	require.NotNil(h.Dispatcher())
	require.NoError(h.Dispatcher().Dispatch(context.Background(), MoreInfo(), "sensor.flow"))

	var calls []string
	target := DispatcherFunc(func(_ context.Context, a Action, id string) error {
		calls = append(calls, id)
		return nil
	})
	require.True(h.Begin())

	// a second acquisition while loading is ignored
	require.False(h.Begin())
	require.False(h.Ready())
	require.NoError(h.Dispatcher().Dispatch(context.Background(), MoreInfo(), "sensor.flow"))
	require.Empty(calls)

	h.Complete(target)
	require.True(h.Ready())
	require.False(h.Begin())

	require.NoError(h.Dispatcher().Dispatch(context.Background(), MoreInfo(), "sensor.flow"))
	require.Equal([]string{"sensor.flow"}, calls)
}

func TestHelperCacheRetriesAfterFailure(t *testing.T) {

	require := require.New(t)

	h := NewHelperCache()
	require.True(h.Begin())
	h.Fail()
	require.False(h.Ready())

	// a nil dispatcher counts as a failure
	require.True(h.Begin())
	h.Complete(nil)
	require.False(h.Ready())

	require.True(h.Begin())
	h.Complete(NoopDispatcher())
	require.True(h.Ready())
}
