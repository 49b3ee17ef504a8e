package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/daemon"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/indicator"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/ipc"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/pipeline"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/testsupport"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/transport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	light      *indicator.Recorder
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

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

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.MQTT.Broker = "tcp://127.0.0.1:1"
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	logger := logging.NewNop()
	light := &indicator.Recorder{}
	d, err := daemon.New(cfg, logger,
		daemon.WithIndicator(light),
		daemon.WithSource(func(_ *config.Config, sink transport.Sink, _ *slog.Logger) daemon.Source {
			return testsupport.NewFakeSource(sink)
		}),
		daemon.WithPipelineOptions(pipeline.WithSleep(fastSleep)),
	)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.StateDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		_ = d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		light:      light,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q

[mqtt]
broker = %q
topic = %q
client_id = %q
connect_timeout = %d

[workflow]
consumer_poll_ms = %d
signal_poll_ms = %d
`,
		cfg.Paths.StateDir,
		cfg.MQTT.Broker,
		cfg.MQTT.Topic,
		cfg.MQTT.ClientID,
		cfg.MQTT.ConnectTimeout,
		cfg.Workflow.ConsumerPollMS,
		cfg.Workflow.SignalPollMS,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
