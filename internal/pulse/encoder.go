package pulse

import "time"

const (
	// BitCount is the number of pulses in one rendering.
	BitCount = 4
	// SustainedOn is how long a 1 bit keeps the light on.
	SustainedOn = 1000 * time.Millisecond
	// FlutterStep is the duration of each toggle in a 0 bit (4 Hz).
	FlutterStep = 250 * time.Millisecond
	// FlutterToggles is the number of steps in a 0 bit.
	FlutterToggles = 4
	// SequenceDuration is the wall-clock length of any rendering.
	SequenceDuration = BitCount * SustainedOn
)

// Kind distinguishes the two pulse shapes.
type Kind uint8

const (
	// Flutter encodes a 0 bit.
	Flutter Kind = iota
	// Sustained encodes a 1 bit.
	Sustained
)

func (k Kind) String() string {
	if k == Sustained {
		return "sustained"
	}
	return "flutter"
}

// Step holds the light at a level for a duration. A zero duration marks the
// final level a pulse leaves behind.
type Step struct {
	On       bool
	Duration time.Duration
}

// Pulse is the rendering of one bit.
type Pulse struct {
	Bit   uint8
	Kind  Kind
	Steps []Step
}

// Duration sums the pulse's steps.
func (p Pulse) Duration() time.Duration {
	var total time.Duration
	for _, s := range p.Steps {
		total += s.Duration
	}
	return total
}

// Sequence is the full rendering of one code.
type Sequence struct {
	Code   uint8
	Pulses [BitCount]Pulse
}

// Duration sums every pulse.
func (s Sequence) Duration() time.Duration {
	var total time.Duration
	for _, p := range s.Pulses {
		total += p.Duration()
	}
	return total
}

// Decode reads the pulse kinds back into a code, most significant first.
func (s Sequence) Decode() uint8 {
	var code uint8
	for _, p := range s.Pulses {
		code <<= 1
		if p.Kind == Sustained {
			code |= 1
		}
	}
	return code
}

// Render builds the sequence for the low four bits of code.
func Render(code uint8) Sequence {
	code &= 0xF
	seq := Sequence{Code: code}
	for i := 0; i < BitCount; i++ {
		bit := (code >> (BitCount - 1 - i)) & 1
		if bit == 1 {
			seq.Pulses[i] = sustained()
		} else {
			seq.Pulses[i] = flutter()
		}
	}
	return seq
}

// Idle reports whether code produces no output at all.
func Idle(code uint8) bool {
	return code&0xF == 0
}

func sustained() Pulse {
	return Pulse{
		Bit:  1,
		Kind: Sustained,
		Steps: []Step{
			{On: true, Duration: SustainedOn},
			{On: false},
		},
	}
}

func flutter() Pulse {
	steps := make([]Step, 0, FlutterToggles+1)
	on := false
	for i := 0; i < FlutterToggles; i++ {
		steps = append(steps, Step{On: on, Duration: FlutterStep})
		on = !on
	}
	steps = append(steps, Step{On: false})
	return Pulse{Bit: 0, Kind: Flutter, Steps: steps}
}
