package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/pulse"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/status"
)

func newRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "render CODE",
		Short:       "Print the pulse sequence the light plays for a status code",
		Long: `Print the pulse sequence the light plays for a status code.

Negative values must follow "--" so they are not read as flags.

Example:
  blinkcode render 5
  blinkcode render -- -1`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid code %q: must be an integer", args[0])
			}
			reg := status.NewRegister()
			if err := reg.WriteInt(candidate); err != nil {
				return err
			}
			code := reg.Read()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Code %d (%s)\n", code, status.Bits(code))
			if pulse.Idle(code) {
				fmt.Fprintln(out, "Light stays off; nothing is played for code 0")
				return nil
			}
			seq := pulse.Render(code)
			fmt.Fprint(out, renderTable([]string{"Bit", "Value", "Pulse", "Steps", "Duration"}, pulseRows(seq), []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight}))
			fmt.Fprintf(out, "Total: %s\n", seq.Duration())
			return nil
		},
	}
}

func pulseRows(seq pulse.Sequence) [][]string {
	rows := make([][]string, 0, len(seq.Pulses))
	for i, p := range seq.Pulses {
		rows = append(rows, []string{
			strconv.Itoa(pulse.BitCount - 1 - i),
			strconv.Itoa(int(p.Bit)),
			p.Kind.String(),
			formatSteps(p.Steps),
			p.Duration().String(),
		})
	}
	return rows
}

func formatSteps(steps []pulse.Step) string {
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		level := "off"
		if step.On {
			level = "on"
		}
		if step.Duration == 0 {
			parts = append(parts, level)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", level, step.Duration))
	}
	return strings.Join(parts, ", ")
}
