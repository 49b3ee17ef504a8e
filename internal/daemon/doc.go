// Package daemon coordinates the long-running blinkcode process.
//
// It wires the mailbox, status register, indicator, pipeline workers, and
// MQTT subscriber into a single lifecycle with flock-based locking to prevent
// multiple instances driving the same light. The daemon also accepts locally
// injected payloads and reports a status snapshot for the IPC layer.
package daemon
