package l9733

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/soypat/l9733/frame"
)

// testBus is a scripted SPI peripheral: it records transmitted frames and
// shifts back a fixed diagnostic word.
type testBus struct {
	diag  [frame.WordLen]byte
	err   error
	delay time.Duration
	sent  [][]byte
}

func (b *testBus) Tx(w, r []byte) error {
	b.sent = append(b.sent, append([]byte{}, w...))
	if b.delay != 0 {
		time.Sleep(b.delay)
	}
	if b.err != nil {
		return b.err
	}
	copy(r, b.diag[:])
	return nil
}

func TestWriteOutputsFrame(t *testing.T) {
	bus := &testBus{}
	d := New(bus, nil, Config{})
	var cfg OutputState
	cfg[0] = true // channel 1
	cfg[4] = true // channel 5
	rep, err := d.WriteOutputs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rep != (frame.FaultReport{}) {
		t.Error("healthy bus must report all channels NoFault")
	}
	if len(bus.sent) != 1 {
		t.Fatal("expected exactly one transfer, got", len(bus.sent))
	}
	w, err := frame.ParseInputWord(bus.sent[0])
	if err != nil {
		t.Fatal(err)
	}
	if w.Reg != frame.RegOutput {
		t.Error("wrong register select:", w.Reg)
	}
	if w.Data != 0b0001_0001 {
		t.Errorf("wrong channel bits: %#08b", w.Data)
	}
}

func TestRegisterSelectPerOperation(t *testing.T) {
	bus := &testBus{}
	d := New(bus, nil, Config{})
	d.WriteOutputs(OutputState{})
	d.WriteDiagnosisMode(DiagnosisMode{})
	d.WriteCurrentLimit(CurrentLimit{})
	want := []frame.Register{frame.RegOutput, frame.RegDiagnosis, frame.RegOvercurrent}
	if len(bus.sent) != len(want) {
		t.Fatal("transfer count mismatch")
	}
	for i, reg := range want {
		w, err := frame.ParseInputWord(bus.sent[i])
		if err != nil {
			t.Fatal(err)
		}
		if w.Reg != reg {
			t.Errorf("transfer %d targeted %v, want %v", i, w.Reg, reg)
		}
	}
}

func TestIdenticalConfigIdenticalFrames(t *testing.T) {
	bus := &testBus{}
	d := New(bus, nil, Config{})
	cfg := OutputState{true, false, true, false, false, true, false, true}
	d.WriteOutputs(cfg)
	// Fault state changes between calls must not affect the frame.
	bus.diag = [2]byte{1 << 3, 0}
	d.WriteOutputs(cfg)
	if !bytes.Equal(bus.sent[0], bus.sent[1]) {
		t.Errorf("frames differ: %x vs %x", bus.sent[0], bus.sent[1])
	}
}

func TestFaultDecodeThroughDevice(t *testing.T) {
	bus := &testBus{diag: [2]byte{1 << 2, 1 << 6}}
	d := New(bus, nil, Config{})
	rep, err := d.WriteCurrentLimit(CurrentLimit{})
	if err != nil {
		t.Fatal(err)
	}
	for ch, f := range rep {
		want := frame.NoFault
		switch ch {
		case 2:
			want = frame.ShortCircuitOvercurrent
		case 6:
			want = frame.OpenLoad
		}
		if f != want {
			t.Errorf("channel %d: got %v, want %v", ch+1, f, want)
		}
	}
}

func TestBusTransferFailure(t *testing.T) {
	busErr := errors.New("device not present")
	bus := &testBus{err: busErr}
	d := New(bus, nil, Config{})
	_, err := d.WriteOutputs(OutputState{})
	if !errors.Is(err, ErrBusTransfer) {
		t.Error("bus failure not surfaced as ErrBusTransfer:", err)
	}
	if !errors.Is(err, busErr) {
		t.Error("underlying bus error not wrapped:", err)
	}
}

func TestBusTimeout(t *testing.T) {
	bus := &testBus{delay: 5 * time.Millisecond}
	d := New(bus, nil, Config{Timeout: time.Millisecond})
	_, err := d.WriteOutputs(OutputState{})
	if !errors.Is(err, ErrBusTimeout) {
		t.Error("slow transfer not reported as timeout:", err)
	}
	// A timed-out write must not arm Faults.
	_, err = d.Faults()
	if !errors.Is(err, ErrNoPriorWrite) {
		t.Error("Faults armed by failed write:", err)
	}
}

func TestMalformedDiagnostic(t *testing.T) {
	// Channel 2 asserts short circuit and open load simultaneously.
	bus := &testBus{diag: [2]byte{1 << 1, 1 << 1}}
	d := New(bus, nil, Config{})
	_, err := d.WriteDiagnosisMode(DiagnosisMode{})
	if !errors.Is(err, frame.ErrMalformedDiagnostic) {
		t.Error("conflicting diagnostic silently accepted:", err)
	}
}

func TestFaults(t *testing.T) {
	bus := &testBus{}
	d := New(bus, nil, Config{})
	if _, err := d.Faults(); !errors.Is(err, ErrNoPriorWrite) {
		t.Error("Faults before any write must fail closed:", err)
	}
	cfg := OutputState{true}
	if _, err := d.WriteOutputs(cfg); err != nil {
		t.Fatal(err)
	}
	bus.diag = [2]byte{0, 1 << 0} // channel 1 open load appears later.
	rep, err := d.Faults()
	if err != nil {
		t.Fatal(err)
	}
	if rep[0] != frame.OpenLoad {
		t.Error("fault not sampled:", rep)
	}
	// Faults must re-send the exact output word, not a new frame.
	if !bytes.Equal(bus.sent[0], bus.sent[1]) {
		t.Errorf("Faults sent different frame: %x vs %x", bus.sent[0], bus.sent[1])
	}
}

func TestChipSelectScoped(t *testing.T) {
	var transitions []bool
	bus := &testBus{err: errors.New("boom")}
	d := New(bus, func(high bool) { transitions = append(transitions, high) }, Config{})
	d.WriteOutputs(OutputState{})
	// CS must be released after the transfer even on the failure path.
	if len(transitions) != 2 || transitions[0] != false || transitions[1] != true {
		t.Error("chip select not scoped to transfer:", transitions)
	}
}

func TestInvalidRegisterFailsBeforeTransfer(t *testing.T) {
	bus := &testBus{}
	d := New(bus, nil, Config{})
	_, err := d.writeRegister(frame.InputWord{Reg: 0})
	if !errors.Is(err, frame.ErrInvalidRegister) {
		t.Error("invalid register accepted:", err)
	}
	if len(bus.sent) != 0 {
		t.Error("frame transmitted for invalid register")
	}
}
