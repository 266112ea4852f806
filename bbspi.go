//go:build tinygo

package l9733

import "machine"

// SPIbb is a dumb bit-bang implementation of SPI protocol that is
// hardcoded to mode 1, which is what the chip speaks: data lines change
// on the rising clock edge and are sampled on the falling edge.
type SPIbb struct {
	SCK   machine.Pin
	SDI   machine.Pin
	SDO   machine.Pin
	Delay uint32
}

// Configure sets up the SCK and SDO pins as outputs and sets them low.
func (s *SPIbb) Configure() {
	s.SCK.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.SDO.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.SDI.Configure(machine.PinConfig{Mode: machine.PinInput})
	s.SCK.Low()
	s.SDO.Low()
	if s.Delay == 0 {
		s.Delay = 1
	}
}

// Tx matches the signature of machine.SPI.Tx and is used to send and
// receive multiple bytes in the same transaction. r may be shorter than
// w, in which case trailing received bytes are dropped; when r is longer
// than w the remaining bytes are clocked in by shifting out zeros.
func (s *SPIbb) Tx(w []byte, r []byte) error {
	for i, b := range w {
		got := s.transfer(b)
		if i < len(r) {
			r[i] = got
		}
	}
	for i := len(w); i < len(r); i++ {
		r[i] = s.transfer(0)
	}
	return nil
}

// Transfer matches the signature of machine.SPI.Transfer and sends a
// single byte. No error is ever returned.
func (s *SPIbb) Transfer(b byte) (out byte, _ error) {
	return s.transfer(b), nil
}

//go:inline
func (s *SPIbb) transfer(b byte) (out byte) {
	out |= b2u[byte](s.bitTransfer(b&(1<<7) != 0)) << 7
	out |= b2u[byte](s.bitTransfer(b&(1<<6) != 0)) << 6
	out |= b2u[byte](s.bitTransfer(b&(1<<5) != 0)) << 5
	out |= b2u[byte](s.bitTransfer(b&(1<<4) != 0)) << 4
	out |= b2u[byte](s.bitTransfer(b&(1<<3) != 0)) << 3
	out |= b2u[byte](s.bitTransfer(b&(1<<2) != 0)) << 2
	out |= b2u[byte](s.bitTransfer(b&(1<<1) != 0)) << 1
	out |= b2u[byte](s.bitTransfer(b&1 != 0))
	return out
}

//go:inline
func (s *SPIbb) bitTransfer(b bool) bool {
	s.SCK.High()
	s.SDO.Set(b)
	s.delay()
	s.SCK.Low()
	s.delay()
	inputBit := s.SDI.Get()
	s.delay()
	return inputBit
}

//go:inline
func (s *SPIbb) delay() {
	for i := uint32(0); i < s.Delay; i++ {
	}
}
