package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMQTT()
	c.normalizeIndicator()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMQTT() {
	if value, ok := os.LookupEnv(envMQTTBroker); ok && strings.TrimSpace(value) != "" {
		c.MQTT.Broker = value
	}
	c.MQTT.Broker = strings.TrimSpace(c.MQTT.Broker)
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = defaultMQTTBroker
	}
	c.MQTT.Topic = strings.TrimSpace(c.MQTT.Topic)
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = defaultMQTTTopic
	}
	c.MQTT.ClientID = strings.TrimSpace(c.MQTT.ClientID)
	if c.MQTT.ClientID == "" {
		// Brokers drop the older session on a client ID clash.
		c.MQTT.ClientID = defaultMQTTClientPrefix + "-" + uuid.NewString()[:8]
	}
	c.MQTT.Username = strings.TrimSpace(c.MQTT.Username)
	if c.MQTT.Password == "" {
		if value, ok := os.LookupEnv(envMQTTPassword); ok {
			c.MQTT.Password = value
		}
	}
	if c.MQTT.ConnectTimeout == 0 {
		c.MQTT.ConnectTimeout = defaultConnectTimeout
	}
}

func (c *Config) normalizeIndicator() {
	c.Indicator.Driver = strings.ToLower(strings.TrimSpace(c.Indicator.Driver))
	if c.Indicator.Driver == "" {
		c.Indicator.Driver = IndicatorDriverLog
	}
	c.Indicator.SysfsRoot = strings.TrimSpace(c.Indicator.SysfsRoot)
	if c.Indicator.SysfsRoot == "" {
		c.Indicator.SysfsRoot = defaultSysfsRoot
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(envNtfyTopic); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
