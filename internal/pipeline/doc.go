// Package pipeline runs the two polling workers that connect the mailbox to
// the status light.
//
// The consumer worker takes the latest payload from the mailbox, releases the
// slot, parses it, and writes every "error" field through the status
// register's validated write. The signal worker reads the register and plays
// the pulse sequence for any non-zero code, holding the light off otherwise.
// The register is the only state the two workers share.
//
// Neither loop exits on payload or validation errors; they log, record the
// last error for status reporting, and keep polling until the context ends.
package pipeline
