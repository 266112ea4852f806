// Package frame implements the L9733 serial interface word formats.
//
// The chip shifts a 16-bit input word in on SDI while shifting the 16-bit
// diagnostic word out on SDO in the same transaction. Words travel MSB
// first. The constant tables below are the single source of truth for the
// channel-to-bit mapping used by the rest of the module.
package frame

import "errors"

const (
	// WordLen is the length in bytes of both the input word and the
	// diagnostic word.
	WordLen = 2

	// Keyword occupies the top nibble of every input word. The chip
	// ignores words that do not carry it.
	Keyword = 0b1010

	keywordShift  = 4
	registerShift = 0
	registerMask  = 0b11
	reservedMask  = 0b1100 // command byte bits 3..2, always zero on the wire
)

// Register selects which of the three configuration registers an input
// word targets. The zero value is not a valid register.
type Register uint8

const (
	regInvalid     Register = iota
	RegOutput               // output on/off latch
	RegDiagnosis            // diagnostic latch mode
	RegOvercurrent          // overcurrent protection enable
	numRegisters
)

// IsValid reports whether r selects one of the chip's three registers.
func (r Register) IsValid() bool { return r > regInvalid && r < numRegisters }

func (r Register) String() (s string) {
	switch r {
	case RegOutput:
		s = "output"
	case RegDiagnosis:
		s = "diagnosis"
	case RegOvercurrent:
		s = "overcurrent"
	default:
		s = "invalid"
	}
	return s
}

var (
	ErrShortWord       = errors.New("word shorter than 2 bytes")
	ErrBadKeyword      = errors.New("input word keyword mismatch")
	ErrReservedBits    = errors.New("reserved command bits set")
	ErrInvalidRegister = errors.New("invalid register select")
)

// InputWord is the 16-bit command the host shifts into the chip: command
// byte followed by the 8 channel configuration bits, channel 1 in bit 0.
type InputWord struct {
	Reg  Register
	Data uint8
}

// Put stores the input word in dst in wire order (command byte first).
// Panics if dst is shorter than 2 bytes.
func (w InputWord) Put(dst []byte) {
	_ = dst[WordLen-1]
	dst[0] = Keyword<<keywordShift | uint8(w.Reg&registerMask)<<registerShift
	dst[1] = w.Data
}

// ParseInputWord decodes a captured input word. It is the inverse of Put
// and is used by capture analysis tooling.
func ParseInputWord(b []byte) (w InputWord, err error) {
	if len(b) < WordLen {
		return InputWord{}, ErrShortWord
	}
	if b[0]>>keywordShift != Keyword {
		return InputWord{}, ErrBadKeyword
	}
	if b[0]&reservedMask != 0 {
		return InputWord{}, ErrReservedBits
	}
	w.Reg = Register(b[0] >> registerShift & registerMask)
	if !w.Reg.IsValid() {
		return InputWord{}, ErrInvalidRegister
	}
	w.Data = b[1]
	return w, nil
}

// FaultStatus is the diagnostic state of a single output channel at the
// instant a word was shifted out.
type FaultStatus uint8

const (
	NoFault FaultStatus = iota
	OpenLoad
	ShortCircuitOvercurrent
)

func (f FaultStatus) String() (s string) {
	switch f {
	case NoFault:
		s = "no fault"
	case OpenLoad:
		s = "open load"
	case ShortCircuitOvercurrent:
		s = "short circuit/overcurrent"
	default:
		s = "unknown"
	}
	return s
}

// FaultReport holds one FaultStatus per output channel. Index 0 is
// channel 1. A report is produced whole from one diagnostic word; there is
// no partially valid report.
type FaultReport [8]FaultStatus

// ErrMalformedDiagnostic is returned when a channel's diagnostic bit pair
// asserts open load and short circuit simultaneously, which the chip never
// generates. It indicates a wiring or protocol fault, never a healthy bus.
var ErrMalformedDiagnostic = errors.New("malformed diagnostic word")

// ParseDiagnostic decodes a diagnostic word as shifted out by the chip:
// short-circuit flags in the first byte, open-load flags in the second,
// channel 1 in bit 0 of each. Returns ErrMalformedDiagnostic if any
// channel asserts both flags.
func ParseDiagnostic(b []byte) (rep FaultReport, err error) {
	if len(b) < WordLen {
		return FaultReport{}, ErrShortWord
	}
	sc, ol := b[0], b[1]
	if sc&ol != 0 {
		return FaultReport{}, ErrMalformedDiagnostic
	}
	for ch := 0; ch < 8; ch++ {
		mask := uint8(1) << ch
		switch {
		case sc&mask != 0:
			rep[ch] = ShortCircuitOvercurrent
		case ol&mask != 0:
			rep[ch] = OpenLoad
		default:
			rep[ch] = NoFault
		}
	}
	return rep, nil
}
