// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Reuse
// these types when adding new RPC endpoints to keep the protocol stable.
package ipc
