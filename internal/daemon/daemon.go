package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/indicator"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/mailbox"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/pipeline"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/status"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/transport"
)

// Source delivers payloads into the mailbox. transport.Subscriber is the
// production implementation.
type Source interface {
	Start(ctx context.Context) error
	Close()
	Deliver(payload []byte) int
	Connected() bool
	Stats() transport.Stats
	Broker() string
	Topic() string
}

// SourceFactory builds a Source around the daemon's mailbox.
type SourceFactory func(cfg *config.Config, sink transport.Sink, logger *slog.Logger) Source

// Option configures optional Daemon behavior.
type Option func(*options)

type options struct {
	light        indicator.Indicator
	source       SourceFactory
	pipelineOpts []pipeline.Option
	sessionID    string
}

// WithIndicator replaces the indicator selected by configuration.
func WithIndicator(light indicator.Indicator) Option {
	return func(o *options) { o.light = light }
}

// WithSource replaces the MQTT subscriber.
func WithSource(factory SourceFactory) Option {
	return func(o *options) { o.source = factory }
}

// WithPipelineOptions forwards options to the pipeline manager.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) { o.pipelineOpts = append(o.pipelineOpts, opts...) }
}

// WithSessionID tags the daemon's status with a run identifier.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// Daemon owns the pipeline and transport and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	box       *mailbox.Mailbox
	register  *status.Register
	light     indicator.Indicator
	pipeline  *pipeline.Manager
	source    Source
	sessionID string

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	cancel    context.CancelFunc
	startedAt time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running   bool
	Pipeline  pipeline.StatusSummary
	Broker    string
	Topic     string
	Connected bool
	Transport transport.Stats
	LockPath  string
	SessionID string
	StartedAt time.Time
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	light := o.light
	if light == nil {
		var err error
		light, err = indicator.New(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open indicator: %w", err)
		}
	}

	box := mailbox.New()
	register := status.NewRegister()
	factory := o.source
	if factory == nil {
		factory = func(cfg *config.Config, sink transport.Sink, logger *slog.Logger) Source {
			return transport.NewSubscriber(cfg, sink, logger)
		}
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		box:       box,
		register:  register,
		light:     light,
		pipeline:  pipeline.NewManager(cfg, box, register, light, logger, o.pipelineOpts...),
		source:    factory(cfg, box, logger),
		sessionID: o.sessionID,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, launches the pipeline workers, then
// connects the payload source.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another blinkcode daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pipeline.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.source.Start(runCtx); err != nil {
		cancel()
		d.pipeline.Stop()
		_ = d.lock.Unlock()
		return fmt.Errorf("start transport: %w", err)
	}

	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("blinkcode daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("broker", d.source.Broker()),
		logging.String("topic", d.source.Topic()),
		logging.String("indicator", d.light.Name()),
	)
	return nil
}

// Stop disconnects the source, stops the workers, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.source.Close()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("blinkcode daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases the indicator.
func (d *Daemon) Close() error {
	d.Stop()
	if closer, ok := d.light.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Running reports whether the daemon is started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns a snapshot of daemon, pipeline, and transport state.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()
	return Status{
		Running:   d.running.Load(),
		Pipeline:  d.pipeline.Status(),
		Broker:    d.source.Broker(),
		Topic:     d.source.Topic(),
		Connected: d.source.Connected(),
		Transport: d.source.Stats(),
		LockPath:  d.lockPath,
		SessionID: d.sessionID,
		StartedAt: startedAt,
	}
}

// InjectResult describes a locally injected payload.
type InjectResult struct {
	Stored    int
	Seq       uint64
	Truncated bool
}

// Inject delivers payload into the mailbox as if it had arrived from the broker.
func (d *Daemon) Inject(payload []byte) (InjectResult, error) {
	if !d.running.Load() {
		return InjectResult{}, errors.New("daemon not running")
	}
	if len(payload) == 0 {
		return InjectResult{}, errors.New("payload is empty")
	}
	stored := d.source.Deliver(payload)
	d.logger.Debug("payload injected",
		logging.String(logging.FieldEventType, "payload_injected"),
		logging.Int(logging.FieldPayloadLen, stored),
	)
	return InjectResult{
		Stored:    stored,
		Seq:       d.box.Seq(),
		Truncated: stored < len(payload),
	}, nil
}
