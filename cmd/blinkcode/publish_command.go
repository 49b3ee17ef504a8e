package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/transport"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var code int
	var ignore string
	var count int

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish one status payload to the configured broker topic",
		Example: `  blinkcode publish --code 5
  blinkcode publish --code 0 --ignore bench --count 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var countPtr *int
			if cmd.Flags().Changed("count") {
				countPtr = &count
			}
			data := transport.EncodePayload(code, ignore, countPtr)

			pub, err := transport.Dial(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pub.Close()
			if err := pub.Publish(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s to %s\n", data, pub.Topic())
			return nil
		},
	}
	cmd.Flags().IntVar(&code, "code", 0, "Status code to publish")
	cmd.Flags().StringVar(&ignore, "ignore", "", "Informational ignore field")
	cmd.Flags().IntVar(&count, "count", 0, "Informational count field")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var limit int
	var seed uint64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Publish random status payloads until interrupted",
		Long: `Publish one payload per interval. One time in four the payload carries a
random code between 0 and 15; otherwise it carries 0. Every payload sets
"ignore" to "randstring".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New("interval must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.cliLogger(cmd)

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pub, err := transport.Dial(runCtx, cfg)
			if err != nil {
				return err
			}
			defer pub.Close()

			sent, err := transport.Simulate(runCtx, pub, newRand(seed), interval, limit, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d payloads to %s\n", sent, pub.Topic())
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.ErrorWithContext(logger, "simulation stopped", "simulate_failed",
					logging.Error(err),
					logging.Int("sent", sent),
				)
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between payloads")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many payloads (0 runs until interrupted)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible runs (0 picks a random seed)")
	return cmd
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}
