package pipeline

import (
	"github.com/ComittmentIssues/esp32-error-decoder/internal/status"
)

// InfoFields holds the most recent informational members seen by the consumer.
type InfoFields struct {
	Ignore string
	Count  string
}

// StatusSummary represents lightweight pipeline diagnostics.
type StatusSummary struct {
	Running       bool
	Code          uint8
	Bits          string
	Accepted      uint64
	Rejected      uint64
	Parsed        uint64
	ParseFailures uint64
	Sequences     uint64
	MailboxSeq    uint64
	LastError     string
	Info          InfoFields
	Indicator     string
}

// Status returns the latest pipeline information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	info := m.info
	m.mu.RUnlock()

	code := m.register.Read()
	accepted, rejected := m.register.Counters()
	summary := StatusSummary{
		Running:       running,
		Code:          code,
		Bits:          status.Bits(code),
		Accepted:      accepted,
		Rejected:      rejected,
		Parsed:        m.parsed.Load(),
		ParseFailures: m.parseFailures.Load(),
		Sequences:     m.sequences.Load(),
		MailboxSeq:    m.mailbox.Seq(),
		Info:          info,
	}
	if m.indicator != nil {
		summary.Indicator = m.indicator.Name()
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}
