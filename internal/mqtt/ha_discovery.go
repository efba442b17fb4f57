package mqtt

import (
	"fmt"

	"github.com/berfenger/tdsflow/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device                 HADiscoveryDevice `json:"device"`
	StateTopic             string            `json:"state_topic"`
	ValueTemplate          string            `json:"value_template,omitempty"`
	JsonAttributesTopic    string            `json:"json_attributes_topic,omitempty"`
	JsonAttributesTemplate string            `json:"json_attributes_template,omitempty"`
	DeviceClass            string            `json:"device_class,omitempty"`
	AvTopic                string            `json:"availability_topic,omitempty"`
	EntityCategory         string            `json:"entity_category,omitempty"`
	Name                   string            `json:"name"`
	UniqueId               string            `json:"unique_id"`
	Platform               string            `json:"platform"`
	EnabledByDefault       *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn              string            `json:"payload_on,omitempty"`
	PayloadOff             string            `json:"payload_off,omitempty"`
	Icon                   string            `json:"icon,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

func HADiscoveryTopic(prefix string, sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device: HADiscoveryDevice{
			Id:           []string{sensor.Device.Id},
			Manufacturer: sensor.Device.Manufacturer,
			Version:      sensor.Device.Version,
			Model:        sensor.Device.Model,
			Name:         sensor.Device.Name,
		},
		DeviceClass:      sensor.DeviceClass,
		AvTopic:          client.BridgeStateTopic(),
		EntityCategory:   sensor.EntityCategory,
		Name:             sensor.Name,
		UniqueId:         sensor.UniqueId,
		Icon:             sensor.Icon,
		EnabledByDefault: sensor.EnabledByDefault,
		Platform:         "mqtt",
	}
	switch sensor.Id {
	case domain.SENSOR_ID_BRIDGE_STATE:
		disConfig.StateTopic = client.BridgeStateTopic()
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
		// availability would hide the sensor when offline
		disConfig.AvTopic = ""
	case domain.SENSOR_ID_CARD_TITLE:
		disConfig.StateTopic = client.CardViewTopic()
		disConfig.ValueTemplate = "{{ value_json.title | default('') }}"
		disConfig.JsonAttributesTopic = client.CardViewTopic()
	default:
		if sensor.Slot != "" {
			disConfig.StateTopic = client.CardViewTopic()
			disConfig.ValueTemplate = slotTemplate(sensor.Slot, "text")
			disConfig.JsonAttributesTopic = client.CardViewTopic()
			disConfig.JsonAttributesTemplate = fmt.Sprintf("{{ (value_json.slots | selectattr('id', 'eq', '%s') | first) | tojson }}", sensor.Slot)
		}
	}
	return disConfig
}

func slotTemplate(slot, field string) string {
	return fmt.Sprintf("{{ (value_json.slots | selectattr('id', 'eq', '%s') | first).%s | default('') }}", slot, field)
}
