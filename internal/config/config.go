package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Card     CardConfig   `mapstructure:"card"`
	Render   RenderConfig `mapstructure:"render"`
	Port     uint         `mapstructure:"port"`
	HttpLog  bool         `mapstructure:"http_log"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	StatestreamTopic  string `mapstructure:"statestream_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

type CardConfig struct {
	// ConfigFile holds the card config in YAML or JSON. Empty starts from
	// the suggested config once the first states are known.
	ConfigFile string `mapstructure:"config_file"`
}

type RenderConfig struct {
	// Policy is "raw" or "formatted".
	Policy                 string `mapstructure:"policy"`
	Locale                 string `mapstructure:"locale"`
	RepublishIntervalSecs  uint32 `mapstructure:"republish_interval_secs"`
	HelperAcquireTimeoutMs uint32 `mapstructure:"helper_acquire_timeout_millis"`
}

var topicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	if !topicRegexp.MatchString(lowerBaseTopic) {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
