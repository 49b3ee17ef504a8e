package indicator

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
)

// Indicator is a single digital output.
type Indicator interface {
	Name() string
	Set(on bool) error
}

// New builds the driver selected by cfg.Indicator.Driver.
func New(cfg *config.Config, logger *slog.Logger) (Indicator, error) {
	if cfg == nil {
		return NewLog("led", logger), nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Indicator.Driver)) {
	case "", config.IndicatorDriverLog:
		return NewLog(fmt.Sprintf("gpio%d", cfg.Indicator.GPIOPin), logger), nil
	case config.IndicatorDriverSysfs:
		return OpenSysfs(cfg.Indicator.SysfsRoot, cfg.Indicator.GPIOPin, cfg.Indicator.ActiveLow)
	default:
		return nil, fmt.Errorf("indicator: unsupported driver %q", cfg.Indicator.Driver)
	}
}

// Log is an indicator that only reports transitions to the logger.
type Log struct {
	mu     sync.Mutex
	name   string
	level  bool
	logger *slog.Logger
}

// NewLog returns a log-backed indicator.
func NewLog(name string, logger *slog.Logger) *Log {
	return &Log{name: name, logger: logging.NewComponentLogger(logger, "indicator")}
}

func (l *Log) Name() string { return l.name }

func (l *Log) Set(on bool) error {
	l.mu.Lock()
	changed := l.level != on
	l.level = on
	l.mu.Unlock()
	if changed {
		l.logger.Debug("indicator level", logging.String("pin", l.name), logging.Bool("on", on))
	}
	return nil
}

// Level reports the last level written.
func (l *Log) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Transition is one recorded Set call.
type Transition struct {
	On bool
	At time.Duration
}

// Recorder keeps every Set call. Clock, when set, stamps each transition.
type Recorder struct {
	mu          sync.Mutex
	Clock       func() time.Duration
	transitions []Transition
	err         error
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	var at time.Duration
	if r.Clock != nil {
		at = r.Clock()
	}
	r.transitions = append(r.transitions, Transition{On: on, At: at})
	return nil
}

// FailWith makes subsequent Set calls return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Transitions returns a copy of the recorded calls.
func (r *Recorder) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// Level reports the last recorded level.
func (r *Recorder) Level() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.transitions) == 0 {
		return false
	}
	return r.transitions[len(r.transitions)-1].On
}

// Reset drops recorded transitions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.transitions = nil
	r.mu.Unlock()
}
