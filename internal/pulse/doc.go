// Package pulse renders a 4-bit status code as a timed light sequence.
//
// Each bit, most significant first, becomes one pulse lasting one second. A
// 1 is a sustained pulse: the light stays on for the whole second. A 0 is a
// fast pulse group: four 250 ms steps alternating off and on, which reads as
// a flutter. Every code therefore takes exactly four seconds to show and
// codes differ only in pattern.
//
// Render is pure and deterministic. Player walks a rendered sequence against
// an indicator and is the only part that sleeps.
package pulse
