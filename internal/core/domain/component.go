package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/berfenger/tdsflow/internal/core/card"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE    = "bridge"
	SENSOR_ID_CARD_TITLE      = "card"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
)

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
}

type GenericSensor struct {
	Device           Device
	Id               string
	SensorType       string
	Name             string
	UniqueId         string
	DeviceClass      string
	EntityCategory   string // diagnostic, config, nil
	EnabledByDefault *bool
	Icon             string
	// Slot is set on sensors that mirror one slot of the card view
	Slot             string
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("tdsflow_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "TDS & Flow",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("TDS & Flow %s", md5HashShort(baseTopic)),
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	// Card title, view as attributes
	sensors = append(sensors, GenericSensor{
		Device:           IdDevice(bridgeDevice),
		Id:               SENSOR_ID_CARD_TITLE,
		SensorType:       SENSOR_TYPE_SENSOR,
		Name:             "Card",
		Icon:             "mdi:water-opacity",
		EnabledByDefault: optionalBool(false),
		UniqueId:         uniqueId(bridgeDevice.Id, SENSOR_ID_CARD_TITLE),
	})

	// One text sensor per slot, as rendered
	defaults := card.Resolve(card.Config{})
	for _, id := range card.Slots() {
		slot := defaults.Slot(id)
		sensors = append(sensors, GenericSensor{
			Device:           IdDevice(bridgeDevice),
			Id:               string(id),
			SensorType:       SENSOR_TYPE_SENSOR,
			Name:             slot.Label,
			Icon:             slot.Icon,
			EnabledByDefault: optionalBool(false),
			UniqueId:         uniqueId(bridgeDevice.Id, string(id)),
			Slot:             string(id),
		})
	}

	return sensors
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5HashShort(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
