package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const KEY_NAME = "name"

// Config is the user authored card configuration. It is kept as the
// decoded object so keys this version does not know survive a round trip.
type Config map[string]any

// ConfigError is returned when a configuration is not an object.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration for tds-flow-card: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration for tds-flow-card: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate accepts any decoded object and rejects everything else.
func Validate(value any) error {
	switch v := value.(type) {
	case Config:
		if v == nil {
			return &ConfigError{Reason: "config is null"}
		}
		return nil
	case map[string]any:
		if v == nil {
			return &ConfigError{Reason: "config is null"}
		}
		return nil
	case nil:
		return &ConfigError{Reason: "config is null"}
	default:
		return &ConfigError{Reason: fmt.Sprintf("config must be an object, got %T", value)}
	}
}

// Parse decodes a JSON configuration. Numbers are kept as json.Number so
// fields this version does not know are written back digit for digit.
func Parse(data []byte) (Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ConfigError{Reason: "malformed json", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Reason: "malformed json", Err: errors.New("trailing data after object")}
	}
	return fromRaw(raw)
}

// ParseYAML decodes a YAML configuration, the format dashboards are
// written in.
func ParseYAML(data []byte) (Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Reason: "malformed yaml", Err: err}
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (Config, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case Config:
		return v, nil
	default:
		return Config(v.(map[string]any)), nil
	}
}

func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}
	return maps.Clone(c)
}

// Name returns the configured name and whether the key is present.
func (c Config) Name() (string, bool) {
	v, ok := c[KEY_NAME]
	if !ok || v == nil {
		return "", false
	}
	s, err := cast.ToStringE(plain(v))
	if err != nil {
		return "", false
	}
	return s, true
}

func (c Config) Entity(id SlotID) string {
	return c.stringValue(id.EntityKey())
}

func (c Config) SetEntity(id SlotID, entityID string) {
	c[id.EntityKey()] = entityID
}

func (c Config) stringValue(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(plain(v))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (c Config) boolValue(key string) bool {
	v, ok := c[key]
	if !ok || v == nil {
		return false
	}
	b, err := cast.ToBoolE(plain(v))
	if err != nil {
		return false
	}
	return b
}

// plain turns a json.Number into the int64 or float64 it holds.
func plain(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// Marshal encodes the config back to JSON with every key preserved.
func (c Config) Marshal() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(c))
}
