package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Placeholder is shown in place of a value that cannot be displayed.
	Placeholder = "–"

	STATE_UNKNOWN     = "unknown"
	STATE_UNAVAILABLE = "unavailable"
)

type Policy string

const (
	// POLICY_RAW shows the entity state verbatim.
	POLICY_RAW Policy = "raw"
	// POLICY_FORMATTED asks the host formatter first, then rounds to the
	// reading precision, then falls back to the raw state.
	POLICY_FORMATTED Policy = "formatted"
)

// Reading is a single entity state as supplied by the host.
type Reading struct {
	EntityID  string `json:"entity_id,omitempty"`
	State     string `json:"state"`
	Unit      string `json:"unit,omitempty"`
	Precision *int   `json:"precision,omitempty"`
}

// Value is what a card slot shows: the value text and a separate unit.
type Value struct {
	Text string `json:"text"`
	Unit string `json:"unit"`
}

// HostFormatter turns a reading into a locale formatted string with the
// unit already embedded.
type HostFormatter interface {
	FormatState(reading Reading) (string, error)
}

// HostFormatterFunc adapts a plain function to HostFormatter.
type HostFormatterFunc func(reading Reading) (string, error)

func (f HostFormatterFunc) FormatState(reading Reading) (string, error) {
	return f(reading)
}

type Formatter struct {
	policy Policy
	host   HostFormatter
	// OnDegrade, when set, is called every time the host formatter fails
	// and a simpler policy is used instead.
	OnDegrade func(entityID string, err error)
}

func NewFormatter(policy Policy, host HostFormatter) *Formatter {
	if policy != POLICY_RAW {
		policy = POLICY_FORMATTED
	}
	return &Formatter{
		policy: policy,
		host:   host,
	}
}

func (f *Formatter) Policy() Policy {
	return f.policy
}

// Format applies the formatted policy without a host formatter.
func Format(reading *Reading, fallbackUnit string) Value {
	return defaultFormatter.Format(reading, fallbackUnit)
}

var defaultFormatter = NewFormatter(POLICY_FORMATTED, nil)

// Format never fails: a nil reading or a sentinel state yields the
// placeholder together with the fallback unit.
func (f *Formatter) Format(reading *Reading, fallbackUnit string) Value {
	if reading == nil || IsSentinel(reading.State) {
		return Value{Text: Placeholder, Unit: fallbackUnit}
	}

	unit := reading.Unit
	if unit == "" {
		unit = fallbackUnit
	}

	if f.policy == POLICY_RAW {
		return Value{Text: reading.State, Unit: unit}
	}

	if f.host != nil {
		resolved := *reading
		resolved.Unit = unit
		formatted, err := f.hostFormat(resolved)
		if err == nil {
			return splitUnit(formatted, unit)
		}
		if f.OnDegrade != nil {
			f.OnDegrade(reading.EntityID, err)
		}
	}

	if text, ok := roundToPrecision(reading.State, reading.Precision); ok {
		return Value{Text: text, Unit: unit}
	}

	return Value{Text: reading.State, Unit: unit}
}

func IsSentinel(state string) bool {
	return state == STATE_UNKNOWN || state == STATE_UNAVAILABLE
}

func (f *Formatter) hostFormat(reading Reading) (formatted string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host formatter panic: %v", r)
		}
	}()
	formatted, err = f.host.FormatState(reading)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(formatted) == "" {
		return "", ErrEmptyFormat
	}
	return formatted, nil
}

// splitUnit separates a trailing unit from a host formatted string. When
// the unit is not a suffix the host placed it itself and the whole string
// is the text.
func splitUnit(formatted, unit string) Value {
	if unit != "" && strings.HasSuffix(formatted, unit) {
		text := strings.TrimSpace(strings.TrimSuffix(formatted, unit))
		if text != "" {
			return Value{Text: text, Unit: unit}
		}
	}
	return Value{Text: formatted, Unit: ""}
}

func roundToPrecision(state string, precision *int) (string, bool) {
	if precision == nil || *precision < 0 || *precision > maxPrecision {
		return "", false
	}
	value, ok := ParseFinite(state)
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(value, 'f', *precision, 64), true
}

const maxPrecision = 100

// ParseFinite parses a numeric state, rejecting NaN and infinities.
func ParseFinite(state string) (float64, bool) {
	trimmed := strings.TrimSpace(state)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
