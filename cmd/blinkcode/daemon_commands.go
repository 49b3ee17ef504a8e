package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startDiagnostic bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the blinkcode daemon or resume a paused one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := ctx.controller(startDiagnostic)
			if err != nil {
				return err
			}
			result, err := ctl.Start()
			if err != nil {
				return err
			}
			if result.Launched {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon not running, launching...")
			}
			printStartResult(cmd, result)
			return nil
		},
	}
	startCmd.Flags().BoolVar(&startDiagnostic, "diagnostic", false, "Enable diagnostic mode with separate DEBUG logs")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the blinkcode daemon (turns the light off and terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := ctx.controller(false)
			if err != nil {
				return err
			}
			result, err := ctl.Stop()
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			printStopResult(cmd, result)
			return nil
		},
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause payload processing while keeping the daemon process alive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := ctx.controller(false)
			if err != nil {
				return err
			}
			err = ctl.Pause()
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Processing paused; run `blinkcode start` to resume")
			return nil
		},
	}

	var restartDiagnostic bool
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the blinkcode daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := ctx.controller(restartDiagnostic)
			if err != nil {
				return err
			}
			result, err := ctl.Restart()
			if err != nil {
				return err
			}
			if result.WasRunning {
				printStopResult(cmd, result.Stop)
			}
			printStartResult(cmd, result.Start)
			return nil
		},
	}
	restartCmd.Flags().BoolVar(&restartDiagnostic, "diagnostic", false, "Enable diagnostic mode with separate DEBUG logs")

	return []*cobra.Command{startCmd, stopCmd, pauseCmd, restartCmd, newStatusCommand(ctx)}
}

func printStartResult(cmd *cobra.Command, result daemonctl.StartResult) {
	stdout := cmd.OutOrStdout()
	switch result.State {
	case daemonctl.StartStateStarted:
		fmt.Fprintln(stdout, "Daemon started")
	case daemonctl.StartStateAlreadyRunning:
		fmt.Fprintln(stdout, "Daemon already running")
	case daemonctl.StartStateRequested:
		fmt.Fprintln(stdout, result.Message)
	}
}

func printStopResult(cmd *cobra.Command, result daemonctl.StopResult) {
	stdout := cmd.OutOrStdout()
	if result.StopAcknowledged {
		fmt.Fprintln(stdout, "Processing stopped, light off")
	}
	if result.ForcedKill {
		fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
	}
	fmt.Fprintln(stdout, "Daemon stopped")
}

// controller builds a daemon controller from the resolved socket and config.
func (c *commandContext) controller(diagnostic bool) (*daemonctl.Controller, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	launch := daemonctl.LaunchOptions{Diagnostic: diagnostic, ConfigPath: c.configPath()}
	if c.socketFlag != nil {
		launch.SocketPath = strings.TrimSpace(*c.socketFlag)
	}
	return &daemonctl.Controller{
		SocketPath: c.socketPath(),
		Executable: exe,
		Launch:     launch,
		Config:     c.configValue(),
	}, nil
}
