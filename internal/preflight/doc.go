// Package preflight provides readiness checks for the filesystem paths,
// indicator hardware, and network services blinkcode depends on.
//
// The CLI "blinkcode status" and "blinkcode config validate" commands run
// these checks to explain why a daemon would fail before it is started.
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
