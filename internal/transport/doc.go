// Package transport moves status payloads over MQTT.
//
// Subscriber keeps a broker session open, subscribes to the configured topic
// once per connection, and hands every delivered payload to a Sink (the
// mailbox). Publisher and Simulate back the CLI tools that emit payloads in
// the device's compact JSON shape.
package transport
