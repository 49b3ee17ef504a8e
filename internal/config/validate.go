package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMQTT(); err != nil {
		return err
	}
	if err := c.validateIndicator(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMQTT() error {
	u, err := url.Parse(c.MQTT.Broker)
	if err != nil {
		return fmt.Errorf("mqtt.broker: %w", err)
	}
	switch u.Scheme {
	case "tcp", "mqtt", "ssl", "tls", "mqtts", "ws", "wss":
	default:
		return fmt.Errorf("mqtt.broker: unsupported scheme %q (use tcp://, ssl://, or ws://)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("mqtt.broker must include a host")
	}
	if strings.ContainsAny(c.MQTT.Topic, "+#") {
		return errors.New("mqtt.topic must be a concrete topic without wildcards")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.New("mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.ConnectTimeout <= 0 || c.MQTT.ConnectTimeout > maxMQTTConnectTimeoutSec {
		return fmt.Errorf("mqtt.connect_timeout must be between 1 and %d seconds", maxMQTTConnectTimeoutSec)
	}
	return nil
}

func (c *Config) validateIndicator() error {
	switch c.Indicator.Driver {
	case IndicatorDriverLog, IndicatorDriverSysfs:
	default:
		return fmt.Errorf("indicator.driver: unsupported value %q (use %q or %q)", c.Indicator.Driver, IndicatorDriverLog, IndicatorDriverSysfs)
	}
	if c.Indicator.GPIOPin < 0 {
		return errors.New("indicator.gpio_pin must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensureRangeMap(map[string]int{
		"workflow.consumer_poll_ms": c.Workflow.ConsumerPollMS,
		"workflow.signal_poll_ms":   c.Workflow.SignalPollMS,
	}, 1, maxPollIntervalMS)
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	u, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("notifications.ntfy_topic must be a full http(s) URL, e.g. https://ntfy.sh/my-topic")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensureRangeMap(values map[string]int, lo, hi int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if v := values[key]; v < lo || v > hi {
			return fmt.Errorf("%s must be between %d and %d", key, lo, hi)
		}
	}
	return nil
}
