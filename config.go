package l9733

import "golang.org/x/exp/constraints"

// The three configuration types below are deliberately distinct: the chip
// keeps three independent registers and a value for one must not be passed
// where another is expected. Index 0 always addresses channel 1.

// OutputState selects which output channels are switched on.
type OutputState [8]bool

// DiagnosisMode selects latching fault diagnosis per channel. A latched
// fault flag is held until the channel is rewritten; an unlatched flag
// clears itself when the fault condition ends.
type DiagnosisMode [8]bool

// CurrentLimit enables overcurrent protection per channel.
type CurrentLimit [8]bool

// Set switches one channel's output on or off. Index 0 is channel 1.
func (s *OutputState) Set(ch int, on bool) { s[ch] = on }

// On reports whether the channel's output is switched on.
func (s *OutputState) On(ch int) bool { return s[ch] }

// SetAll sets every channel to on.
func (s *OutputState) SetAll(on bool) { fill((*[8]bool)(s), on) }

// ClearAll switches every channel off.
func (s *OutputState) ClearAll() { fill((*[8]bool)(s), false) }

// Set selects latched (true) or auto-clearing (false) diagnosis for one
// channel. Index 0 is channel 1.
func (s *DiagnosisMode) Set(ch int, latched bool) { s[ch] = latched }

// On reports whether the channel's diagnosis is latched.
func (s *DiagnosisMode) On(ch int) bool { return s[ch] }

// SetAll sets every channel to latched (true) or auto-clearing (false).
func (s *DiagnosisMode) SetAll(latched bool) { fill((*[8]bool)(s), latched) }

// ClearAll sets every channel to auto-clearing diagnosis.
func (s *DiagnosisMode) ClearAll() { fill((*[8]bool)(s), false) }

// Set enables or disables protection on one channel. Index 0 is channel 1.
func (s *CurrentLimit) Set(ch int, active bool) { s[ch] = active }

// On reports whether the channel's protection is active.
func (s *CurrentLimit) On(ch int) bool { return s[ch] }

// SetAll enables or disables protection on every channel.
func (s *CurrentLimit) SetAll(active bool) { fill((*[8]bool)(s), active) }

// ClearAll disables protection on every channel.
func (s *CurrentLimit) ClearAll() { fill((*[8]bool)(s), false) }

func fill(s *[8]bool, v bool) {
	for i := range s {
		s[i] = v
	}
}

// packChannels packs 8 channel flags into the input word data byte,
// channel 1 in bit 0. This bit order is fixed by the chip's shift
// register and shared by all three configuration registers.
func packChannels(c [8]bool) (b uint8) {
	for ch, on := range c {
		b |= b2u[uint8](on) << ch
	}
	return b
}

// unpackChannels is the inverse of packChannels.
func unpackChannels(b uint8) (c [8]bool) {
	for ch := range c {
		c[ch] = b&(1<<ch) != 0
	}
	return c
}

func b2u[T constraints.Unsigned](b bool) T {
	if b {
		return 1
	}
	return 0
}
