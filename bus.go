package l9733

// Transferer is the full-duplex SPI transfer primitive the driver runs
// on: w is shifted out while r is filled with the bytes shifted in during
// the same transaction. The signature matches machine.SPI.Tx so hardware
// SPI peripherals satisfy it directly. Implementations need not be safe
// for concurrent use; Device serializes access.
//
// Bus clock configuration, mode selection (the chip runs SPI mode 1) and
// peripheral bring-up belong to the board support layer, not here.
type Transferer interface {
	Tx(w, r []byte) error
}

// OutputPin drives a single digital output, typically a chip select line.
// machine.Pin.Set satisfies it.
type OutputPin func(bool)
