// Package notifications pushes status changes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// pipeline code can call it unconditionally.
package notifications
