package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/ipc"
)

func newInjectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inject PAYLOAD",
		Short: "Deliver a raw payload into the running daemon's mailbox",
		Example: `  blinkcode inject '{"error":5,"ignore":"bench"}'
  blinkcode inject '{"error":0}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := args[0]
			if strings.TrimSpace(payload) == "" {
				return errors.New("payload is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Inject(payload)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Stored %d bytes (sequence %d)\n", resp.Stored, resp.Seq)
				fmt.Fprintf(out, "Truncated: %s\n", yesNo(resp.Truncated))
				return nil
			})
		},
	}
}
