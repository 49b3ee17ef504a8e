// Package config loads, normalizes, and validates blinkcode configuration.
//
// It supplies repository defaults that match the device firmware (broker,
// topic "blink", QoS 2, GPIO 5, 200 ms worker polls), expands user paths,
// reads TOML files, and honours environment fallbacks such as
// BLINKCODE_MQTT_BROKER. The Config type centralizes every knob the daemon
// and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized values and clear validation errors.
package config
