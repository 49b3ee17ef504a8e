package ipc

import "time"

// StartRequest resumes payload processing.
type StartRequest struct{}

// StartResponse indicates whether processing was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest pauses payload processing without ending the daemon process.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon, pipeline, and transport state.
type StatusResponse struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	SessionID     string    `json:"session_id"`
	StartedAt     time.Time `json:"started_at"`
	LockPath      string    `json:"lock_path"`
	Broker        string    `json:"broker"`
	Topic         string    `json:"topic"`
	Connected     bool      `json:"connected"`
	Received      uint64    `json:"received"`
	Truncated     uint64    `json:"truncated"`
	MailboxSeq    uint64    `json:"mailbox_seq"`
	Code          uint8     `json:"code"`
	Bits          string    `json:"bits"`
	Accepted      uint64    `json:"accepted"`
	Rejected      uint64    `json:"rejected"`
	Parsed        uint64    `json:"parsed"`
	ParseFailures uint64    `json:"parse_failures"`
	Sequences     uint64    `json:"sequences"`
	LastError     string    `json:"last_error"`
	Ignore        string    `json:"ignore"`
	Count         string    `json:"count"`
	Indicator     string    `json:"indicator"`
}

// InjectRequest delivers a raw payload into the daemon's mailbox.
type InjectRequest struct {
	Payload string `json:"payload"`
}

// InjectResponse reports how the payload was stored.
type InjectResponse struct {
	Stored    int    `json:"stored"`
	Seq       uint64 `json:"seq"`
	Truncated bool   `json:"truncated"`
}
