package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/indicator"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/mailbox"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/notifications"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/status"
)

type fakeClock struct {
	mu      sync.Mutex
	elapsed time.Duration
	onSleep func(calls int)
	calls   int
}

func (c *fakeClock) now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.elapsed += d
	c.calls++
	calls := c.calls
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(calls)
	}
	return ctx.Err()
}

type harness struct {
	manager  *Manager
	box      *mailbox.Mailbox
	register *status.Register
	light    *indicator.Recorder
	notifier *notifications.Recorder
	clock    *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	h := &harness{
		box:      mailbox.New(),
		register: status.NewRegister(),
		notifier: &notifications.Recorder{},
		clock:    &fakeClock{},
	}
	h.light = &indicator.Recorder{Clock: h.clock.now}
	h.manager = NewManager(&cfg, h.box, h.register, h.light, logging.NewNop(),
		WithNotifier(h.notifier),
		WithSleep(h.clock.sleep),
	)
	return h
}

func (h *harness) publish(payload string) {
	h.box.Publish([]byte(payload), len(payload))
}

// scaledSleep runs real timers 200 times faster than requested.
func scaledSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d / 200)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
