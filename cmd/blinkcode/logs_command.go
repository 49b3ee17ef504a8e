package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool
	var level string
	var component string
	var eventType string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Example: `  blinkcode logs -n 50
  blinkcode logs -f --event status_updated`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{MinLevel: slog.LevelDebug, Component: component, EventType: eventType}
			if level != "" {
				if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid --level %q", level)
				}
			}
			printer := logPrinter{out: cmd.OutOrStdout(), filter: filter, raw: raw}

			result, err := logs.Tail(cmd.Context(), cfg.LogPath(), logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			printer.print(result.Lines)
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				result, err = logs.Tail(cmd.Context(), cfg.LogPath(), logs.TailOptions{Offset: offset, Follow: true, Wait: time.Second})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				printer.print(result.Lines)
				offset = result.Offset
				if cmd.Context().Err() != nil {
					return nil
				}
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait for new log lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unchanged")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().StringVar(&component, "component", "", "Only show records from this component")
	cmd.Flags().StringVar(&eventType, "event", "", "Only show records with this event_type")
	return cmd
}

type logPrinter struct {
	out    io.Writer
	filter logs.Filter
	raw    bool
}

func (p logPrinter) print(lines []string) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, ok := logs.ParseEntry(line)
		if !ok {
			if p.raw || (p.filter.Component == "" && p.filter.EventType == "") {
				fmt.Fprintln(p.out, line)
			}
			continue
		}
		if !p.filter.Match(entry) {
			continue
		}
		if p.raw {
			fmt.Fprintln(p.out, line)
			continue
		}
		fmt.Fprintln(p.out, entry.Format())
	}
}
