package pulse

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Output is the light the player drives.
type Output interface {
	Set(on bool) error
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// BitError reports an output failure while playing one bit.
type BitError struct {
	// Bit is the bit position, BitCount-1 for the most significant bit.
	Bit int
	Err error
}

func (e *BitError) Error() string {
	return fmt.Sprintf("pulse: bit %d: %v", e.Bit, e.Err)
}

func (e *BitError) Unwrap() error { return e.Err }

// Player walks sequences against an output.
type Player struct {
	out   Output
	sleep SleepFunc
}

// NewPlayer returns a player. A nil sleep uses a real timer.
func NewPlayer(out Output, sleep SleepFunc) *Player {
	if sleep == nil {
		sleep = Sleep
	}
	return &Player{out: out, sleep: sleep}
}

// Play renders seq from start to finish. When ctx ends mid-sequence the light
// is switched off and ctx.Err() is returned.
func (p *Player) Play(ctx context.Context, seq Sequence) error {
	if p.out == nil {
		return errors.New("pulse: no output configured")
	}
	for idx, pulse := range seq.Pulses {
		for _, step := range pulse.Steps {
			if err := p.out.Set(step.On); err != nil {
				_ = p.out.Set(false)
				return &BitError{Bit: BitCount - 1 - idx, Err: err}
			}
			if step.Duration <= 0 {
				continue
			}
			if err := p.sleep(ctx, step.Duration); err != nil {
				_ = p.out.Set(false)
				return err
			}
		}
	}
	return nil
}

// Off forces the output low.
func (p *Player) Off() error {
	if p.out == nil {
		return nil
	}
	return p.out.Set(false)
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
