package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/fields"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/indicator"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/mailbox"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/notifications"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/pulse"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/status"
)

const notifyBacklog = 16

// Manager owns the consumer and signal workers.
type Manager struct {
	mailbox   *mailbox.Mailbox
	register  *status.Register
	parser    *fields.Parser
	indicator indicator.Indicator
	player    *pulse.Player
	notifier  notifications.Service
	sleep     pulse.SleepFunc

	consumerPoll time.Duration
	signalPoll   time.Duration

	logger         *slog.Logger
	consumerLogger *slog.Logger
	signalLogger   *slog.Logger

	notifyCh chan notifications.Change

	parsed        atomic.Uint64
	parseFailures atomic.Uint64
	sequences     atomic.Uint64

	// dark is owned by the signal worker.
	dark bool

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	info    InfoFields
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithNotifier replaces the notification service derived from config.
func WithNotifier(svc notifications.Service) Option {
	return func(m *Manager) {
		if svc != nil {
			m.notifier = svc
		}
	}
}

// WithSleep replaces the timer used for poll delays and pulse steps.
func WithSleep(sleep pulse.SleepFunc) Option {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// WithPollIntervals overrides the configured worker delays.
func WithPollIntervals(consumer, signal time.Duration) Option {
	return func(m *Manager) {
		if consumer > 0 {
			m.consumerPoll = consumer
		}
		if signal > 0 {
			m.signalPoll = signal
		}
	}
}

// NewManager wires the workers around box, reg, and light.
func NewManager(cfg *config.Config, box *mailbox.Mailbox, reg *status.Register, light indicator.Indicator, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		mailbox:        box,
		register:       reg,
		parser:         fields.NewParser(),
		indicator:      light,
		notifier:       notifications.NewService(cfg),
		sleep:          pulse.Sleep,
		consumerPoll:   200 * time.Millisecond,
		signalPoll:     200 * time.Millisecond,
		logger:         logger,
		consumerLogger: logging.NewComponentLogger(logger, "consumer"),
		signalLogger:   logging.NewComponentLogger(logger, "signal"),
	}
	if cfg != nil {
		m.consumerPoll = cfg.ConsumerPollInterval()
		m.signalPoll = cfg.SignalPollInterval()
	}
	for _, opt := range opts {
		opt(m)
	}
	m.player = pulse.NewPlayer(light, m.sleep)
	return m
}

// Start launches both workers. They stop when ctx ends or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}
	if m.mailbox == nil || m.register == nil || m.indicator == nil {
		m.mu.Unlock()
		return errors.New("pipeline not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.notifyCh = make(chan notifications.Change, notifyBacklog)
	m.wg.Add(3)
	m.mu.Unlock()

	go m.runConsumer(runCtx)
	go m.runSignal(runCtx)
	go m.runNotifier(runCtx, m.notifyCh)

	m.logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_started"),
		logging.Duration("consumer_poll", m.consumerPoll),
		logging.Duration("signal_poll", m.signalPoll),
		logging.String("indicator", m.indicator.Name()),
	)
	return nil
}

// Stop terminates both workers and waits for them. The light is off on return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the workers are active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) wait(ctx context.Context, d time.Duration) bool {
	if err := m.sleep(ctx, d); err != nil {
		return false
	}
	return ctx.Err() == nil
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) runNotifier(ctx context.Context, changes <-chan notifications.Change) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-changes:
			if err := m.notifier.NotifyStatusChanged(ctx, change.Previous, change.Current); err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.WarnWithContext(m.consumerLogger, "status notification failed", "notification_failed",
					logging.Error(err),
					logging.Int(logging.FieldStatusCode, int(change.Current)),
					logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
					logging.String(logging.FieldImpact, "status change not pushed"),
				)
			}
		}
	}
}

func (m *Manager) enqueueNotification(change notifications.Change) {
	m.mu.RLock()
	ch := m.notifyCh
	m.mu.RUnlock()
	if ch == nil {
		return
	}
	select {
	case ch <- change:
	default:
		logging.WarnWithContext(m.consumerLogger, "notification backlog full", "notification_dropped",
			logging.Int(logging.FieldStatusCode, int(change.Current)),
			logging.String(logging.FieldErrorHint, "ntfy is responding slowly"),
			logging.String(logging.FieldImpact, "status change not pushed"),
		)
	}
}
