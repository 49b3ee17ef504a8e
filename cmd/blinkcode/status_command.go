package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/daemonctl"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/ipc"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, status light, and preflight status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := ctx.controller(false)
			if err != nil {
				return err
			}
			snapshot, err := ctl.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, snapshot)
			}
			out := cmd.OutOrStdout()
			renderSnapshot(out, snapshot, ctl.Config, shouldColorize(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw status snapshot as JSON")
	return cmd
}

func renderSnapshot(out io.Writer, snapshot *daemonctl.Snapshot, cfg *config.Config, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range daemonLines(snapshot.Daemon, cfg, colorize) {
		fmt.Fprintln(out, line)
	}

	if snapshot.Daemon != nil {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Status Light", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprint(out, renderTable([]string{"Field", "Value"}, statusRows(snapshot.Daemon), []columnAlignment{alignLeft, alignRight}))
	}

	if len(snapshot.Checks) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Preflight", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, line := range preflightLines(snapshot.Checks, colorize) {
			fmt.Fprintln(out, line)
		}
	}
}

func daemonLines(resp *ipc.StatusResponse, cfg *config.Config, colorize bool) []string {
	if resp == nil {
		lines := []string{renderStatusLine("Daemon", statusError, "Not running", colorize)}
		if cfg != nil {
			lines = append(lines,
				renderStatusLine("Broker", statusInfo, cfg.MQTT.Broker, colorize),
				renderStatusLine("Topic", statusInfo, cfg.MQTT.Topic, colorize),
				renderStatusLine("Indicator", statusInfo, cfg.Indicator.Driver, colorize),
			)
		}
		return lines
	}

	lines := make([]string, 0, 6)
	if resp.Running {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, fmt.Sprintf("Paused (pid %d)", resp.PID), colorize))
	}
	switch {
	case resp.Connected:
		lines = append(lines, renderStatusLine("Broker", statusOK, resp.Broker+" (connected)", colorize))
	case resp.Running:
		lines = append(lines, renderStatusLine("Broker", statusWarn, resp.Broker+" (reconnecting)", colorize))
	default:
		lines = append(lines, renderStatusLine("Broker", statusInfo, resp.Broker+" (disconnected)", colorize))
	}
	lines = append(lines, renderStatusLine("Topic", statusInfo, resp.Topic, colorize))
	if resp.SessionID != "" {
		lines = append(lines, renderStatusLine("Session", statusInfo, resp.SessionID, colorize))
	}
	if !resp.StartedAt.IsZero() {
		lines = append(lines, renderStatusLine("Started", statusInfo, resp.StartedAt.Local().Format(time.DateTime), colorize))
	}
	return lines
}

func statusRows(resp *ipc.StatusResponse) [][]string {
	lastError := resp.LastError
	if lastError == "" {
		lastError = "-"
	}
	return [][]string{
		{"Code", strconv.Itoa(int(resp.Code))},
		{"Bits", resp.Bits},
		{"Indicator", resp.Indicator},
		{"Accepted writes", strconv.FormatUint(resp.Accepted, 10)},
		{"Rejected writes", strconv.FormatUint(resp.Rejected, 10)},
		{"Parsed payloads", strconv.FormatUint(resp.Parsed, 10)},
		{"Parse failures", strconv.FormatUint(resp.ParseFailures, 10)},
		{"Sequences played", strconv.FormatUint(resp.Sequences, 10)},
		{"Payloads received", strconv.FormatUint(resp.Received, 10)},
		{"Payloads truncated", strconv.FormatUint(resp.Truncated, 10)},
		{"Mailbox sequence", strconv.FormatUint(resp.MailboxSeq, 10)},
		{"Last ignore", dashIfEmpty(resp.Ignore)},
		{"Last count", dashIfEmpty(resp.Count)},
		{"Last error", lastError},
	}
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusError
		if r.Passed {
			kind = statusOK
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
