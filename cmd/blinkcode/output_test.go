package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/ipc"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/preflight"
)

func TestRenderStatusLinePlain(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeBuffer(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestDaemonLinesBrokerState(t *testing.T) {
	tests := []struct {
		name string
		resp ipc.StatusResponse
		want string
	}{
		{name: "connected", resp: ipc.StatusResponse{Running: true, Connected: true, Broker: "tcp://b"}, want: "[OK] tcp://b (connected)"},
		{name: "reconnecting", resp: ipc.StatusResponse{Running: true, Broker: "tcp://b"}, want: "[WARN] tcp://b (reconnecting)"},
		{name: "paused", resp: ipc.StatusResponse{Broker: "tcp://b"}, want: "[INFO] tcp://b (disconnected)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := daemonLines(&tt.resp, nil, false)
			if len(lines) < 2 || !strings.Contains(lines[1], tt.want) {
				t.Fatalf("expected broker line %q, got %v", tt.want, lines)
			}
		})
	}
}

func TestStatusRows(t *testing.T) {
	rows := statusRows(&ipc.StatusResponse{Code: 9, Bits: "1001", Rejected: 2, Ignore: "randstring"})
	values := map[string]string{}
	for _, row := range rows {
		values[row[0]] = row[1]
	}
	if values["Code"] != "9" || values["Bits"] != "1001" {
		t.Fatalf("unexpected code rows: %v", values)
	}
	if values["Rejected writes"] != "2" {
		t.Fatalf("expected rejected count, got %q", values["Rejected writes"])
	}
	if values["Last ignore"] != "randstring" || values["Last count"] != "-" || values["Last error"] != "-" {
		t.Fatalf("unexpected informational rows: %v", values)
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "State directory", Passed: true, Detail: "/tmp (read/write ok)"},
		{Name: "MQTT broker", Detail: "127.0.0.1:1 (error: refused)"},
	}, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK]") || !strings.Contains(lines[1], "[ERROR]") {
		t.Fatalf("unexpected preflight lines: %v", lines)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
