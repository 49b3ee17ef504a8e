package pipeline

import (
	"context"
	"errors"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/pulse"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/status"
)

func (m *Manager) runSignal(ctx context.Context) {
	defer m.wg.Done()
	defer func() {
		if err := m.player.Off(); err != nil {
			m.signalLogger.Warn("failed to switch indicator off on shutdown",
				logging.Error(err),
				logging.String(logging.FieldEventType, "indicator_failed"),
				logging.String(logging.FieldErrorHint, "check indicator wiring and permissions"),
				logging.String(logging.FieldImpact, "light may stay lit"),
			)
		}
	}()
	m.dark = false
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := m.signalOnce(ctx); err != nil && ctx.Err() != nil {
			return
		}
		if !m.wait(ctx, m.signalPoll) {
			return
		}
	}
}

// signalOnce reads the register once and either holds the light off or
// plays one complete rendering of the code. A register change during
// playback is picked up on the next call.
func (m *Manager) signalOnce(ctx context.Context) error {
	code := m.register.Read()
	if pulse.Idle(code) {
		if m.dark {
			return nil
		}
		if err := m.player.Off(); err != nil {
			m.reportIndicatorError(err)
			return err
		}
		m.dark = true
		return nil
	}

	seq := pulse.Render(code)
	m.sequences.Add(1)
	m.signalLogger.Info("signal sequence",
		logging.String(logging.FieldEventType, "signal_sequence"),
		logging.Int(logging.FieldStatusCode, int(code)),
		logging.String("bits", status.Bits(code)),
	)
	m.dark = false
	err := m.player.Play(ctx, seq)
	// Play always finishes with the light off, including on error.
	m.dark = true
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		m.reportIndicatorError(err)
		return err
	}
	return nil
}

func (m *Manager) reportIndicatorError(err error) {
	m.setLastError(err)
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String("indicator", m.indicator.Name()),
		logging.String(logging.FieldErrorHint, "check indicator wiring and permissions"),
	}
	var bitErr *pulse.BitError
	if errors.As(err, &bitErr) {
		attrs = append(attrs, logging.Int(logging.FieldBitIndex, bitErr.Bit))
	}
	logging.ErrorWithContext(m.signalLogger, "indicator write failed", "indicator_failed", attrs...)
}
