package transport

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
)

// SimulatedIgnore is the filler value the bench publisher always sends.
const SimulatedIgnore = "randstring"

// PayloadPublisher is satisfied by Publisher.
type PayloadPublisher interface {
	Publish(ctx context.Context, data []byte) error
}

// NextCode draws the next simulated status: a uniform code in [0,15] one time
// in four, otherwise 0.
func NextCode(rng *rand.Rand) int {
	if rng.IntN(4) == 0 {
		return rng.IntN(16)
	}
	return 0
}

// Simulate publishes one simulated payload per interval until ctx ends or
// limit payloads have been sent (limit <= 0 means no limit). It returns the
// number of payloads published.
func Simulate(ctx context.Context, pub PayloadPublisher, rng *rand.Rand, interval time.Duration, limit int, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "simulate")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	for {
		code := NextCode(rng)
		data := EncodePayload(code, SimulatedIgnore, nil)
		if err := pub.Publish(ctx, data); err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			return sent, err
		}
		sent++
		logger.Info("payload published",
			logging.String(logging.FieldEventType, "payload_published"),
			logging.Int(logging.FieldStatusCode, code),
			logging.String("payload", string(data)),
		)
		if limit > 0 && sent >= limit {
			return sent, nil
		}
		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}
}
