package util

import (
	"github.com/berfenger/tdsflow/internal/config"
	"github.com/berfenger/tdsflow/pkg/display"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "tdsflow",
			StatestreamTopic: "homeassistant_statestream",
			HADiscoveryTopic: "homeassistant",
		},
		Render: config.RenderConfig{
			Policy:                 string(display.POLICY_FORMATTED),
			Locale:                 "en",
			RepublishIntervalSecs:  60,
			HelperAcquireTimeoutMs: 500,
		},
		Port: 8080,
	}
}
