// Package status holds the validated 4-bit status code shared by the
// consumer and signal workers.
package status

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// MaxCode is the largest status code the indicator can render.
const MaxCode = 0xF

// ErrOutOfRange reports a candidate outside [0, MaxCode].
var ErrOutOfRange = errors.New("status code out of range")

// RangeError carries the rejected candidate.
type RangeError struct {
	Candidate int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %d (codes must fit in 4 bits)", ErrOutOfRange, e.Candidate)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// Register is a single-writer, single-reader cell. The value lives in an
// atomic so the reader only ever observes the old or the new code.
type Register struct {
	value    atomic.Uint32
	accepted atomic.Uint64
	rejected atomic.Uint64
}

// NewRegister returns a register holding 0.
func NewRegister() *Register {
	return &Register{}
}

// Write stores candidate when it is at most MaxCode. Out-of-range writes
// leave the stored value unchanged.
func (r *Register) Write(candidate uint8) error {
	if candidate > MaxCode {
		r.rejected.Add(1)
		return &RangeError{Candidate: int(candidate)}
	}
	r.value.Store(uint32(candidate & MaxCode))
	r.accepted.Add(1)
	return nil
}

// WriteInt validates a parsed integer before narrowing it, so values such
// as 256 or -1 are rejected instead of wrapping into range.
func (r *Register) WriteInt(candidate int) error {
	if candidate < 0 || candidate > math.MaxUint8 {
		r.rejected.Add(1)
		return &RangeError{Candidate: candidate}
	}
	return r.Write(uint8(candidate))
}

// Read returns the current code without blocking.
func (r *Register) Read() uint8 {
	return uint8(r.value.Load())
}

// Counters reports how many writes were accepted and rejected.
func (r *Register) Counters() (accepted, rejected uint64) {
	return r.accepted.Load(), r.rejected.Load()
}

// Bits returns the code as four characters, most significant bit first.
func Bits(code uint8) string {
	buf := [4]byte{}
	for i := 0; i < 4; i++ {
		if code&(1<<(3-i)) != 0 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf[:])
}
