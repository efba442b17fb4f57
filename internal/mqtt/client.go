package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/berfenger/tdsflow/internal/config"
	"github.com/berfenger/tdsflow/internal/core/hass"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"

	COMMAND_SET_CONFIG = "config"
	COMMAND_TAP        = "tap"
	COMMAND_ICON_TAP   = "icon_tap"
)

var ErrInvalidCommand = errors.New("invalid command")

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("tdsflow_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:              mqtt.NewClient(opts),
		cfg:                 cfg.MQTT,
		setConfigRegexp:     setConfigExtractor(cfg.MQTT.BaseTopic),
		tapCommandRegexp:    tapCommandExtractor(cfg.MQTT.BaseTopic),
		statestreamRegexp:   statestreamExtractor(cfg.MQTT.StatestreamTopic),
		statestreamBaseName: cfg.MQTT.StatestreamTopic,
	}
}

type MQTTClient struct {
	client              mqtt.Client
	cfg                 config.MQTTConfig
	setConfigRegexp     *regexp.Regexp
	tapCommandRegexp    *regexp.Regexp
	statestreamRegexp   *regexp.Regexp
	statestreamBaseName string
}

type ParsedMQTTCommand struct {
	Slot    string
	Command string
	Payload string
}

// StatestreamMessage is one message of the Home Assistant mqtt_statestream
// integration: either the entity state or one of its attributes.
type StatestreamMessage struct {
	EntityID  string
	Attribute string
	Payload   string
}

func (m StatestreamMessage) IsState() bool {
	return m.Attribute == hass.ATTR_STATE
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) CardViewTopic() string {
	return fmt.Sprintf("%s/card/view", c.baseTopic())
}

func (c *MQTTClient) ActionTopic() string {
	return fmt.Sprintf("%s/card/action", c.baseTopic())
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.parseCommand(msg.Topic(), string(msg.Payload()))
}

func (c *MQTTClient) parseCommand(topic, payload string) (*ParsedMQTTCommand, error) {
	if c.setConfigRegexp.MatchString(topic) {
		return &ParsedMQTTCommand{
			Command: COMMAND_SET_CONFIG,
			Payload: payload,
		}, nil
	}
	matches := c.tapCommandRegexp.FindStringSubmatch(topic)
	if len(matches) != 3 {
		return nil, ErrInvalidCommand
	}
	command := COMMAND_TAP
	if matches[2] == "icon_tap" {
		command = COMMAND_ICON_TAP
	}
	return &ParsedMQTTCommand{
		Slot:    matches[1],
		Command: command,
		Payload: payload,
	}, nil
}

func (c *MQTTClient) ParseStatestreamMessage(msg mqtt.Message) (*StatestreamMessage, error) {
	return c.parseStatestream(msg.Topic(), string(msg.Payload()))
}

func (c *MQTTClient) parseStatestream(topic, payload string) (*StatestreamMessage, error) {
	matches := c.statestreamRegexp.FindStringSubmatch(topic)
	if len(matches) != 4 {
		return nil, errors.New("not a statestream topic")
	}
	return &StatestreamMessage{
		EntityID:  matches[1] + "." + matches[2],
		Attribute: matches[3],
		Payload:   payload,
	}, nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

// SubscribeAll subscribes to the command and the statestream topics in a
// single request.
func (c *MQTTClient) SubscribeAll(commandHandler, statestreamHandler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.SubscribeMultiple(map[string]byte{
		c.commandTopic():     1,
		c.statestreamTopic(): 0,
	}, func(cl mqtt.Client, m mqtt.Message) {
		if c.statestreamRegexp.MatchString(m.Topic()) {
			statestreamHandler(cl, m)
		} else {
			commandHandler(cl, m)
		}
	})
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/card/+/+", c.baseTopic())
}

func (c *MQTTClient) statestreamTopic() string {
	return fmt.Sprintf("%s/+/+/+", c.statestreamBaseName)
}

func setConfigExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/card/config/set$", regexp.QuoteMeta(baseTopic)))
}

func tapCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/card/([a-z_]+)/(tap|icon_tap)$", regexp.QuoteMeta(baseTopic)))
}

func statestreamExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/([a-z_]+)/([a-zA-Z0-9_]+)/([a-zA-Z0-9_]+)$", regexp.QuoteMeta(baseTopic)))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
