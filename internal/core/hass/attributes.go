package hass

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
)

// Attribute names published by the mqtt_statestream integration.
const (
	ATTR_STATE                       = "state"
	ATTR_UNIT_OF_MEASUREMENT         = "unit_of_measurement"
	ATTR_DISPLAY_PRECISION           = "display_precision"
	ATTR_SUGGESTED_DISPLAY_PRECISION = "suggested_display_precision"
)

// Apply writes one entity attribute into the store. Attribute payloads are
// JSON encoded; a bare string is accepted too. It reports whether the
// store changed in a way a render can see.
func (s *Store) Apply(entityID, attribute, payload string) bool {
	switch attribute {
	case ATTR_STATE:
		if payload == "" {
			// retained message cleared: entity removed
			s.Remove(entityID)
			return true
		}
		s.SetState(entityID, payload)
		return true
	case ATTR_UNIT_OF_MEASUREMENT:
		s.SetUnit(entityID, decodeAttribute(payload))
		return true
	case ATTR_DISPLAY_PRECISION, ATTR_SUGGESTED_DISPLAY_PRECISION:
		raw := decodeAttribute(payload)
		if raw == "" {
			s.SetPrecision(entityID, nil)
			return true
		}
		p, err := cast.ToIntE(raw)
		if err != nil || p < 0 {
			return false
		}
		s.SetPrecision(entityID, &p)
		return true
	default:
		return false
	}
}

func decodeAttribute(payload string) string {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return strings.TrimSpace(payload)
	}
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return strings.TrimSpace(payload)
	}
	return s
}
