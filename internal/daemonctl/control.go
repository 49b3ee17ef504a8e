package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/ipc"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/preflight"
)

const (
	pollInterval        = 200 * time.Millisecond
	defaultStartTimeout = 10 * time.Second
	defaultStopGrace    = 5 * time.Second
)

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
	Diagnostic bool
}

// LaunchArgs returns the command line used to run a detached daemon.
func LaunchArgs(opts LaunchOptions) []string {
	args := []string{"run"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if opts.Diagnostic {
		args = append(args, "--diagnostic")
	}
	return args
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateRequested      StartState = "start_requested"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	Message  string
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Snapshot pairs the daemon's live status with local preflight results.
type Snapshot struct {
	// Daemon is nil when the daemon socket is unreachable.
	Daemon *ipc.StatusResponse
	Checks []preflight.Result
}

// Controller drives one daemon identified by its socket path.
type Controller struct {
	SocketPath string
	// Executable is the blinkcode binary launched when no daemon answers.
	Executable string
	Launch     LaunchOptions
	Config     *config.Config

	StartTimeout time.Duration
	StopGrace    time.Duration
}

func (c *Controller) startTimeout() time.Duration {
	if c.StartTimeout > 0 {
		return c.StartTimeout
	}
	return defaultStartTimeout
}

func (c *Controller) stopGrace() time.Duration {
	if c.StopGrace > 0 {
		return c.StopGrace
	}
	return defaultStopGrace
}

// dial connects to the daemon, mapping a missing or refusing socket to
// ErrDaemonNotRunning.
func (c *Controller) dial() (*ipc.Client, error) {
	client, err := ipc.Dial(c.SocketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil, ErrDaemonNotRunning
		}
		return nil, err
	}
	return client, nil
}

// Start launches a detached daemon if none answers on the socket, then makes
// sure payload processing is running.
func (c *Controller) Start() (StartResult, error) {
	launched := false
	client, err := c.dial()
	if errors.Is(err, ErrDaemonNotRunning) {
		if err := c.spawn(); err != nil {
			return StartResult{}, err
		}
		launched = true
		client, err = c.awaitSocket()
	}
	if err != nil {
		return StartResult{}, err
	}
	defer client.Close()

	if status, statusErr := client.Status(); statusErr == nil && status.Running {
		if launched {
			return StartResult{State: StartStateStarted, Launched: true}, nil
		}
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	resp, err := client.Start()
	if err != nil {
		return StartResult{}, err
	}
	result := StartResult{Launched: launched, Message: strings.TrimSpace(resp.Message)}
	switch {
	case resp.Started:
		result.State = StartStateStarted
	case strings.EqualFold(result.Message, "daemon already running"):
		result.State = StartStateAlreadyRunning
	default:
		result.State = StartStateRequested
		if result.Message == "" {
			result.Message = "Start request sent"
		}
	}
	return result, nil
}

func (c *Controller) spawn() error {
	if strings.TrimSpace(c.Executable) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	proc := exec.Command(c.Executable, LaunchArgs(c.Launch)...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

func (c *Controller) awaitSocket() (*ipc.Client, error) {
	deadline := time.Now().Add(c.startTimeout())
	lastErr := errors.New("timeout waiting for daemon")
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(c.SocketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(pollInterval)
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// Pause stops payload processing while keeping the daemon process alive.
func (c *Controller) Pause() error {
	client, err := c.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	resp, err := client.Stop()
	if err != nil {
		return err
	}
	if !resp.Stopped {
		return errors.New("daemon did not acknowledge pause")
	}
	return nil
}

// Stop pauses processing so the light ends dark, sends SIGTERM, and
// force-kills the process if its socket still answers after the grace period.
func (c *Controller) Stop() (StopResult, error) {
	client, err := c.dial()
	if err != nil {
		return StopResult{}, err
	}
	var lockPath string
	var pid int
	if status, statusErr := client.Status(); statusErr == nil {
		lockPath, pid = status.LockPath, status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid, StopAcknowledged: resp.Stopped}

	stateDir := DeriveStateDir(lockPath, c.Config)
	if stateDir == "" {
		return result, fmt.Errorf("unable to determine daemon state directory")
	}
	pidPath := filepath.Join(stateDir, "blinkcode.pid")
	signalled, err := SignalProcess(pidPath, pid, syscall.SIGTERM)
	if err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	result.PID = signalled
	if c.awaitExit() {
		return result, nil
	}

	if _, err := SignalProcess(pidPath, signalled, os.Kill); err != nil {
		return result, fmt.Errorf("failed to kill daemon process: %w", err)
	}
	for _, stale := range []string{pidPath, filepath.Join(stateDir, "blinkcode.lock"), c.SocketPath} {
		_ = os.Remove(stale)
	}
	result.ForcedKill = true
	return result, nil
}

func (c *Controller) awaitExit() bool {
	deadline := time.Now().Add(c.stopGrace())
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(c.SocketPath)
		if err != nil {
			return true
		}
		_ = client.Close()
		time.Sleep(pollInterval)
	}
	return false
}

// Restart stops the daemon if running, then starts it again.
func (c *Controller) Restart() (RestartResult, error) {
	stopped, err := c.Stop()
	wasRunning := err == nil
	if err != nil && !errors.Is(err, ErrDaemonNotRunning) {
		return RestartResult{}, err
	}
	started, err := c.Start()
	if err != nil {
		return RestartResult{}, err
	}
	return RestartResult{WasRunning: wasRunning, Stop: stopped, Start: started}, nil
}

// Snapshot collects daemon status when the daemon answers and always runs
// preflight checks for the resources it depends on.
func (c *Controller) Snapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}
	client, err := c.dial()
	switch {
	case err == nil:
		defer client.Close()
		status, statusErr := client.Status()
		if statusErr != nil {
			return nil, fmt.Errorf("query daemon status: %w", statusErr)
		}
		snapshot.Daemon = status
	case !errors.Is(err, ErrDaemonNotRunning):
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	snapshot.Checks = preflight.RunAll(ctx, c.Config)
	return snapshot, nil
}

// DeriveStateDir determines the daemon state directory from status and config hints.
func DeriveStateDir(lockPath string, cfg *config.Config) string {
	if lockPath != "" {
		return filepath.Dir(lockPath)
	}
	if cfg != nil && strings.TrimSpace(cfg.Paths.StateDir) != "" {
		return cfg.Paths.StateDir
	}
	return ""
}

// ReadPID returns the pid recorded in pidPath, or fallback when the file is
// absent or unreadable as a positive integer.
func ReadPID(pidPath string, fallback int) (int, error) {
	data, err := os.ReadFile(pidPath)
	if errors.Is(err, os.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 {
		return pid, nil
	}
	return fallback, nil
}

// SignalProcess sends sig to the daemon process recorded in pidPath.
func SignalProcess(pidPath string, fallbackPID int, sig os.Signal) (int, error) {
	pid, err := ReadPID(pidPath, fallbackPID)
	if err != nil {
		return 0, err
	}
	switch {
	case pid <= 0:
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	case pid == os.Getpid():
		return 0, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		return 0, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return pid, nil
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
