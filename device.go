// Package l9733 implements a driver for the ST L9733 octal configurable
// output driver IC, programmed over SPI. Each configuration write shifts a
// 16-bit input word into the chip and decodes the diagnostic word shifted
// out during the same transaction into a per-channel fault report.
package l9733

import (
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/soypat/l9733/frame"
)

var (
	// ErrBusTransfer wraps any failure reported by the underlying SPI
	// transfer primitive. The chip may or may not have latched the new
	// configuration; retrying is the caller's decision since a blind
	// retry re-asserts physical output state.
	ErrBusTransfer = errors.New("spi bus transfer failed")
	// ErrBusTimeout is returned when a transfer did not complete within
	// Config.Timeout. Treated the same as a bus failure.
	ErrBusTimeout = errors.New("spi bus transfer timeout")
	// ErrNoPriorWrite is returned by Faults before any output write has
	// succeeded.
	ErrNoPriorWrite = errors.New("no prior output write to re-assert")
)

// Device is a driver for the L9733 octal output driver IC. All methods
// are synchronous: the SPI transaction completes or fails before return.
// Device holds no chip state between calls other than the last output
// word successfully written, used by Faults.
type Device struct {
	mu  sync.Mutex
	cs  OutputPin
	spi Transferer
	// timeout bounds a single transfer. Zero means no bound.
	timeout    time.Duration
	lastOutput frame.InputWord
	hasOutput  bool
	txBuf      [frame.WordLen]byte
	rxBuf      [frame.WordLen]byte
	logger     *slog.Logger
}

type Config struct {
	Logger *slog.Logger
	// Timeout bounds each SPI transaction. A transfer exceeding it is
	// reported as ErrBusTimeout. Zero disables the bound. The bound is
	// checked after the Transferer returns: a Transferer that hangs
	// forever still blocks the caller, so transports that can hang must
	// enforce their own deadline internally.
	Timeout time.Duration
}

// New returns a Device driving the chip over spi. cs asserts the chip
// select line, active low; pass nil when the board support layer drives
// chip select around each call.
func New(spi Transferer, cs OutputPin, cfg Config) *Device {
	return &Device{
		cs:      cs,
		spi:     spi,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// WriteOutputs programs the output on/off register and returns the fault
// report sampled in the same transaction. Index 0 of cfg is channel 1.
// This physically switches loads; the state persists until overwritten.
func (d *Device) WriteOutputs(cfg OutputState) (frame.FaultReport, error) {
	d.acquire()
	defer d.release()
	w := frame.InputWord{Reg: frame.RegOutput, Data: packChannels(cfg)}
	rep, err := d.writeRegister(w)
	if err == nil {
		// Cache for Faults. Only output writes are cached: re-sending
		// the last output word leaves the output latch unchanged.
		d.lastOutput = w
		d.hasOutput = true
	}
	return rep, err
}

// WriteDiagnosisMode programs the diagnostic latch register. A latched
// channel (true) holds a detected fault flag until cleared; an unlatched
// channel auto-clears when the fault condition ends.
func (d *Device) WriteDiagnosisMode(cfg DiagnosisMode) (frame.FaultReport, error) {
	d.acquire()
	defer d.release()
	return d.writeRegister(frame.InputWord{Reg: frame.RegDiagnosis, Data: packChannels(cfg)})
}

// WriteCurrentLimit programs the overcurrent protection register.
func (d *Device) WriteCurrentLimit(cfg CurrentLimit) (frame.FaultReport, error) {
	d.acquire()
	defer d.release()
	return d.writeRegister(frame.InputWord{Reg: frame.RegOvercurrent, Data: packChannels(cfg)})
}

// Faults samples the per-channel diagnostics by re-transmitting the last
// successfully written output word. The output latch is rewritten with
// the value it already holds, so channel state is unchanged. Errors with
// ErrNoPriorWrite until a WriteOutputs call has succeeded.
func (d *Device) Faults() (frame.FaultReport, error) {
	d.acquire()
	defer d.release()
	if !d.hasOutput {
		return frame.FaultReport{}, ErrNoPriorWrite
	}
	return d.writeRegister(d.lastOutput)
}

// writeRegister shifts w into the chip and decodes the diagnostic word
// shifted out in the same transaction. Caller must hold d.mu. The report
// is valid only when err is nil.
func (d *Device) writeRegister(w frame.InputWord) (frame.FaultReport, error) {
	if !w.Reg.IsValid() {
		return frame.FaultReport{}, frame.ErrInvalidRegister
	}
	w.Put(d.txBuf[:])
	d.csEnable(true)
	start := time.Now()
	err := d.spi.Tx(d.txBuf[:], d.rxBuf[:])
	elapsed := time.Since(start)
	d.csEnable(false)
	d.trace("writeRegister:tx",
		slog.String("reg", w.Reg.String()),
		slog.Uint64("data", uint64(w.Data)),
		slog.Duration("elapsed", elapsed),
	)
	if err != nil {
		d.logerr("writeRegister:bus", slog.String("err", err.Error()))
		return frame.FaultReport{}, errors.Join(ErrBusTransfer, err)
	}
	if d.timeout != 0 && elapsed > d.timeout {
		d.logerr("writeRegister:timeout", slog.Duration("elapsed", elapsed))
		return frame.FaultReport{}, ErrBusTimeout
	}
	rep, err := frame.ParseDiagnostic(d.rxBuf[:])
	if err != nil {
		d.logerr("writeRegister:diag",
			slog.String("err", err.Error()),
			slog.Uint64("sc", uint64(d.rxBuf[0])),
			slog.Uint64("ol", uint64(d.rxBuf[1])),
		)
		return frame.FaultReport{}, err
	}
	for ch, f := range rep {
		if f != frame.NoFault {
			d.warn("channel fault",
				slog.Int("channel", ch+1),
				slog.String("status", f.String()),
			)
		}
	}
	return rep, nil
}

func (d *Device) csEnable(b bool) {
	if d.cs != nil {
		d.cs(!b) // Chip select is active low.
	}
}

func (d *Device) acquire() { d.mu.Lock() }
func (d *Device) release() { d.mu.Unlock() }
