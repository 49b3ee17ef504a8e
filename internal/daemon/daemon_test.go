package daemon_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/daemon"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/indicator"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/pipeline"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/testsupport"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/transport"
)

func fastSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d / 200)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type fixture struct {
	daemon *daemon.Daemon
	source *testsupport.FakeSource
	light  *indicator.Recorder
	cfg    *config.Config
}

func newFixture(t *testing.T, opts ...daemon.Option) *fixture {
	t.Helper()
	f := &fixture{cfg: testsupport.NewConfig(t), light: &indicator.Recorder{}}
	all := append([]daemon.Option{
		daemon.WithIndicator(f.light),
		daemon.WithSource(func(_ *config.Config, sink transport.Sink, _ *slog.Logger) daemon.Source {
			f.source = testsupport.NewFakeSource(sink)
			return f.source
		}),
		daemon.WithPipelineOptions(pipeline.WithSleep(fastSleep)),
		daemon.WithSessionID("session-1"),
	}, opts...)
	d, err := daemon.New(f.cfg, logging.NewNop(), all...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	f.daemon = d
	return f
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

func TestDaemonStartStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.daemon.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}
	status := f.daemon.Status()
	if !status.Running || !status.Connected || !status.Pipeline.Running {
		t.Fatalf("unexpected status after start: %+v", status)
	}
	if status.LockPath != filepath.Join(f.cfg.Paths.StateDir, "blinkcode.lock") {
		t.Fatalf("unexpected lock path %q", status.LockPath)
	}
	if status.SessionID != "session-1" || status.StartedAt.IsZero() {
		t.Fatalf("expected session metadata, got %+v", status)
	}

	f.daemon.Stop()
	if f.daemon.Running() {
		t.Fatal("expected daemon stopped")
	}
	if !f.source.Closed() {
		t.Fatal("expected source closed on Stop")
	}
	if f.light.Level() {
		t.Fatal("expected light off after Stop")
	}
	f.daemon.Stop()
}

func TestDaemonInjectDrivesRegister(t *testing.T) {
	f := newFixture(t)
	if _, err := f.daemon.Inject([]byte(`{"error":5}`)); err == nil {
		t.Fatal("expected Inject to fail before Start")
	}
	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.daemon.Inject(nil); err == nil {
		t.Fatal("expected empty payload to be rejected")
	}

	result, err := f.daemon.Inject([]byte(`{"error":12,"count":7}`))
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if result.Stored != 22 || result.Seq != 1 || result.Truncated {
		t.Fatalf("unexpected inject result %+v", result)
	}
	waitFor(t, "status code 12", func() bool { return f.daemon.Status().Pipeline.Code == 12 })
	status := f.daemon.Status()
	if status.Pipeline.Bits != "1100" || status.Pipeline.Info.Count != "7" {
		t.Fatalf("unexpected pipeline status %+v", status.Pipeline)
	}
	if status.Transport.Received != 1 {
		t.Fatalf("expected one delivery, got %+v", status.Transport)
	}

	result, err = f.daemon.Inject([]byte(strings.Repeat(" ", 1500)))
	if err != nil {
		t.Fatalf("Inject oversized: %v", err)
	}
	if !result.Truncated || result.Stored != 1024 {
		t.Fatalf("expected truncation, got %+v", result)
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	first := newFixture(t)
	if err := first.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start first: %v", err)
	}

	second, err := daemon.New(first.cfg, logging.NewNop(),
		daemon.WithIndicator(&indicator.Recorder{}),
		daemon.WithSource(func(_ *config.Config, sink transport.Sink, _ *slog.Logger) daemon.Source {
			return testsupport.NewFakeSource(sink)
		}),
	)
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	err = second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock contention error, got %v", err)
	}

	first.daemon.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("expected second daemon to start after release: %v", err)
	}
	second.Stop()
}

func TestDaemonSourceFailureReleasesLock(t *testing.T) {
	f := newFixture(t)
	f.source.FailStart(errors.New("broker refused"))
	err := f.daemon.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broker refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
	if f.daemon.Running() {
		t.Fatal("expected daemon not running")
	}
	f.source.FailStart(nil)
	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestDaemonSysfsIndicatorFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFakeSysfs(5))
	d, err := daemon.New(cfg, logging.NewNop(),
		daemon.WithSource(func(_ *config.Config, sink transport.Sink, _ *slog.Logger) daemon.Source {
			return testsupport.NewFakeSource(sink)
		}),
	)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	value, err := os.ReadFile(filepath.Join(cfg.Indicator.SysfsRoot, "gpio5", "value"))
	if err != nil {
		t.Fatalf("read value: %v", err)
	}
	if string(value) != "0" {
		t.Fatalf("expected light driven off, got %q", value)
	}
}
