package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/fields"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/notifications"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/status"
)

func (m *Manager) runConsumer(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.consumeOnce(ctx)
		if !m.wait(ctx, m.consumerPoll) {
			return
		}
	}
}

// consumeOnce handles at most one mailbox message and reports whether one
// was present.
func (m *Manager) consumeOnce(ctx context.Context) bool {
	msg, ok := m.mailbox.Take()
	if !ok {
		return false
	}
	// Take returned a private copy; free the slot before parsing.
	m.mailbox.Release(msg.Seq)

	ctx = logging.WithMessageSeq(ctx, msg.Seq)
	logger := logging.WithContext(ctx, m.consumerLogger)
	logger.Debug("payload received",
		logging.String(logging.FieldEventType, "payload_received"),
		logging.Int(logging.FieldPayloadLen, msg.Len()),
	)

	parsed, err := m.parser.Parse(msg.Data)
	if err != nil {
		m.parseFailures.Add(1)
		m.setLastError(err)
		hint := "publish a flat JSON object such as {\"error\":5}"
		if errors.Is(err, fields.ErrTooManyTokens) {
			hint = "reduce the number of members in the payload"
		}
		logging.WarnWithContext(logger, "payload parse failed", "payload_parse_failed",
			logging.Error(err),
			logging.Int(logging.FieldPayloadLen, msg.Len()),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "payload ignored; status unchanged"),
		)
		return true
	}
	m.parsed.Add(1)

	for _, info := range parsed.Info {
		logger.Debug("informational field",
			logging.String(logging.FieldEventType, "informational_field"),
			logging.String("key", info.Key),
			logging.String("value", info.Raw),
		)
	}
	m.recordInfo(parsed)

	for _, field := range parsed.Errors {
		m.applyCandidate(logger, field.Int())
	}
	return true
}

func (m *Manager) applyCandidate(logger *slog.Logger, candidate int) {
	previous := m.register.Read()
	if err := m.register.WriteInt(candidate); err != nil {
		m.setLastError(err)
		logging.WarnWithContext(logger, "status rejected", "status_rejected",
			logging.Int(logging.FieldCandidate, candidate),
			logging.Int(logging.FieldStatusCode, int(previous)),
			logging.String(logging.FieldErrorHint, "status codes range from 0 to 15"),
			logging.String(logging.FieldImpact, "previous status code kept"),
		)
		return
	}
	current := m.register.Read()
	if current == previous {
		return
	}
	logger.Info("status updated",
		logging.String(logging.FieldEventType, "status_updated"),
		logging.Int(logging.FieldStatusCode, int(current)),
		logging.Int("previous", int(previous)),
		logging.String("bits", status.Bits(current)),
	)
	m.enqueueNotification(notifications.Change{Previous: previous, Current: current})
}

func (m *Manager) recordInfo(parsed fields.Fields) {
	ignore, hasIgnore := parsed.Ignore()
	count, hasCount := parsed.Count()
	if !hasIgnore && !hasCount {
		return
	}
	m.mu.Lock()
	if hasIgnore {
		m.info.Ignore = ignore
	}
	if hasCount {
		m.info.Count = count
	}
	m.mu.Unlock()
}
