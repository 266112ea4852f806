//go:build tinygo

package l9733

import "machine"

// NewPicoDevice returns a Device wired to the default SPI0 pins of a
// Raspberry Pi Pico. The chip select pin is driven by the Device around
// each transaction.
func NewPicoDevice(cfg Config) *Device {
	const (
		SDI = machine.GPIO16 // chip SDO -> host
		CS  = machine.GPIO17
		SCK = machine.GPIO18
		SDO = machine.GPIO19 // host -> chip SDI
	)
	CS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	CS.High()
	spi := machine.SPI0
	err := spi.Configure(machine.SPIConfig{
		Frequency: 1_000_000,
		Mode:      1, // Chip samples on the falling clock edge.
		SCK:       SCK,
		SDO:       SDO,
		SDI:       SDI,
	})
	if err != nil {
		panic(err.Error())
	}
	return New(spi, CS.Set, cfg)
}
