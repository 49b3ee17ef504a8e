// Package main hosts the blinkcode CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground, controls a
// detached daemon over its IPC socket, injects payloads for local testing,
// renders pulse sequences offline, and publishes payloads to the broker the
// way the device's upstream publisher does. Configuration resolution and
// socket discovery live in commandContext so subcommands stay declarative.
package main
