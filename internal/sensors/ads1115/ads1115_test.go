package ads1115

import (
	"errors"
	"testing"
	"time"
)

type fakeADC struct {
	conversion uint16
	lastConfig uint16
	writes     int

	// busyPolls is how many config reads report a conversion in flight
	// before the done bit appears.
	busyPolls int
	polls     int

	readErr  error
	writeErr error
}

func (f *fakeADC) ReadRegU16(reg byte) (uint16, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	switch reg {
	case regConfig:
		f.polls++
		if f.polls <= f.busyPolls {
			return f.lastConfig &^ bitOS, nil
		}
		return f.lastConfig | bitOS, nil
	case regConversion:
		return f.conversion, nil
	}
	return 0, errors.New("unknown reg")
}

func (f *fakeADC) WriteRegU16(reg byte, value uint16) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if reg == regConfig {
		f.lastConfig = value
		f.writes++
		f.polls = 0
	}
	return nil
}

func silenceSleep(t *testing.T) {
	t.Helper()
	old := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = old })
}

func TestNewWithIO_ProbeFails(t *testing.T) {
	f := &fakeADC{readErr: errors.New("nack")}
	if _, err := newWithIO(f, 1); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewWithIO_GainRange(t *testing.T) {
	if _, err := newWithIO(&fakeADC{}, len(FullScaleV)); err == nil {
		t.Fatalf("expected error for gain out of range")
	}
}

func TestReadChannel_RawValue(t *testing.T) {
	silenceSleep(t)
	f := &fakeADC{conversion: 0x1234, busyPolls: 2}
	d, err := newWithIO(f, 1)
	if err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	got, err := d.ReadChannel(2)
	if err != nil {
		t.Fatalf("ReadChannel: %v", err)
	}
	if got != 0x1234 {
		t.Fatalf("raw=%d want %d", got, 0x1234)
	}
	if f.writes != 1 {
		t.Fatalf("config writes=%d want 1", f.writes)
	}

	// Config word must select single-ended AIN2, single-shot, start bit.
	wantMux := uint16(muxSingle|2) << muxShift
	if f.lastConfig&(0x7<<muxShift) != wantMux {
		t.Fatalf("config=0x%04X wrong mux", f.lastConfig)
	}
	if f.lastConfig&bitMode == 0 || f.lastConfig&bitOS == 0 {
		t.Fatalf("config=0x%04X missing mode/start bits", f.lastConfig)
	}
}

func TestReadChannel_NegativeClampsToZero(t *testing.T) {
	silenceSleep(t)
	f := &fakeADC{conversion: 0xFFF0} // -16 as int16
	d, _ := newWithIO(f, 1)
	got, err := d.ReadChannel(0)
	if err != nil {
		t.Fatalf("ReadChannel: %v", err)
	}
	if got != 0 {
		t.Fatalf("raw=%d want 0 for negative count", got)
	}
}

func TestReadChannel_BadChannel(t *testing.T) {
	d, _ := newWithIO(&fakeADC{}, 1)
	if _, err := d.ReadChannel(Channels); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReadChannel_Timeout(t *testing.T) {
	silenceSleep(t)
	f := &fakeADC{busyPolls: convPollLimit + 10}
	d, _ := newWithIO(f, 1)
	if _, err := d.ReadChannel(0); err == nil {
		t.Fatalf("expected timeout error")
	}
}
