package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a record for filtering (payload_received, status_updated, ...).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldStatusCode is the 4-bit status code being stored or displayed.
	FieldStatusCode = "status_code"
	// FieldCandidate is a decoded error value before range checking.
	FieldCandidate = "candidate"
	// FieldPayloadLen is the stored length of a received payload.
	FieldPayloadLen = "payload_len"
	// FieldMessageSeq is the mailbox sequence number of the payload being handled.
	FieldMessageSeq = "message_seq"
	// FieldBitIndex is the bit position a failed pulse belonged to (3 is the most significant).
	FieldBitIndex = "bit_index"
	// FieldSessionID identifies one daemon run.
	FieldSessionID = "session_id"
)

type messageSeqKey struct{}

// WithMessageSeq attaches a mailbox sequence number to ctx.
func WithMessageSeq(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, messageSeqKey{}, seq)
}

// MessageSeqFromContext returns the sequence stored by WithMessageSeq.
func MessageSeqFromContext(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	seq, ok := ctx.Value(messageSeqKey{}).(uint64)
	return seq, ok
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if seq, ok := MessageSeqFromContext(ctx); ok {
		return []slog.Attr{slog.Uint64(FieldMessageSeq, seq)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
