package config

const (
	defaultConfigPath        = "~/.config/blinkcode/config.toml"
	defaultStateDir          = "~/.local/share/blinkcode"
	defaultMQTTBroker        = "tcp://mqtt.eclipseprojects.io:1883"
	defaultMQTTTopic         = "blink"
	defaultMQTTQoS           = 2
	defaultMQTTClientPrefix  = "blinkcode"
	defaultConnectTimeout    = 10
	defaultGPIOPin           = 5
	defaultSysfsRoot         = "/sys/class/gpio"
	defaultConsumerPollMS    = 200
	defaultSignalPollMS      = 200
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	IndicatorDriverLog       = "log"
	IndicatorDriverSysfs     = "sysfs"
	envMQTTBroker            = "BLINKCODE_MQTT_BROKER"
	envMQTTPassword          = "BLINKCODE_MQTT_PASSWORD"
	envNtfyTopic             = "BLINKCODE_NTFY_TOPIC"
	maxPollIntervalMS        = 60_000
	maxMQTTConnectTimeoutSec = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		MQTT: MQTT{
			Broker:         defaultMQTTBroker,
			Topic:          defaultMQTTTopic,
			QoS:            defaultMQTTQoS,
			ConnectTimeout: defaultConnectTimeout,
		},
		Indicator: Indicator{
			Driver:    IndicatorDriverLog,
			GPIOPin:   defaultGPIOPin,
			SysfsRoot: defaultSysfsRoot,
		},
		Workflow: Workflow{
			ConsumerPollMS: defaultConsumerPollMS,
			SignalPollMS:   defaultSignalPollMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
