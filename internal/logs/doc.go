// Package logs reads the daemon's JSON log file for the CLI.
//
// Tail returns the last N lines or everything after a byte offset, and can
// wait for new lines in follow mode with bounded memory usage. ParseEntry
// decodes a line written by the logging package's JSON handler so callers
// can filter by level, component, or event type and print a compact form.
package logs
