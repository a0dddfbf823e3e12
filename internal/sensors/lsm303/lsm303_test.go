package lsm303

import (
	"errors"
	"testing"
)

type fakeDev struct {
	regs   map[byte][]byte
	writes map[byte]byte

	readErr error
}

func newFakeDev() *fakeDev {
	return &fakeDev{regs: map[byte][]byte{}, writes: map[byte]byte{}}
}

func (f *fakeDev) ReadReg(reg byte, dst []byte) error {
	if f.readErr != nil {
		return f.readErr
	}
	b, ok := f.regs[reg]
	if !ok || len(b) < len(dst) {
		return errors.New("short reg")
	}
	copy(dst, b[:len(dst)])
	return nil
}

func (f *fakeDev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := f.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (f *fakeDev) WriteReg(reg, value byte) error {
	f.writes[reg] = value
	return nil
}

func fakePair() (*fakeDev, *fakeDev) {
	accel := newFakeDev()
	mag := newFakeDev()
	mag.regs[regIRAM] = []byte{iraMagID}
	return accel, mag
}

func TestNewWithIO_BadMagID(t *testing.T) {
	accel, mag := fakePair()
	mag.regs[regIRAM] = []byte{0x00}
	if _, err := newWithIO(accel, mag); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewWithIO_ConfiguresBothTargets(t *testing.T) {
	accel, mag := fakePair()
	if _, err := newWithIO(accel, mag); err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	if accel.writes[regCtrl1A] != ctrl1Normal50Hz {
		t.Fatalf("ctrl1=0x%02X want 0x%02X", accel.writes[regCtrl1A], ctrl1Normal50Hz)
	}
	if mag.writes[regMRM] != mrContinuous {
		t.Fatalf("mag mode=0x%02X want continuous", mag.writes[regMRM])
	}
}

func TestRead_AxisDecoding(t *testing.T) {
	accel, mag := fakePair()

	// Accel: little-endian, 12-bit left-justified. 0x0100 -> 16 after >>4.
	accel.regs[regOutXLA|autoInc] = []byte{0x00, 0x01, 0x00, 0xFF, 0x40, 0x00}
	// Mag: big-endian, order X, Z, Y.
	mag.regs[regOutXHM] = []byte{0x01, 0x00, 0x00, 0x10, 0xFF, 0xF0}

	d, err := newWithIO(accel, mag)
	if err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	s, err := d.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if s.Ax != 16 {
		t.Fatalf("ax=%d want 16", s.Ax)
	}
	if s.Ay != -16 { // 0xFF00 as int16 is -256, >>4 = -16
		t.Fatalf("ay=%d want -16", s.Ay)
	}
	if s.Az != 4 { // 0x0040 -> 64>>4
		t.Fatalf("az=%d want 4", s.Az)
	}

	if s.Mx != 256 {
		t.Fatalf("mx=%d want 256", s.Mx)
	}
	if s.Mz != 16 {
		t.Fatalf("mz=%d want 16", s.Mz)
	}
	if s.My != -16 {
		t.Fatalf("my=%d want -16", s.My)
	}
}

func TestRead_AccelReadError(t *testing.T) {
	accel, mag := fakePair()
	d, err := newWithIO(accel, mag)
	if err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	accel.readErr = errors.New("bus stuck")
	if _, err := d.Read(); err == nil {
		t.Fatalf("expected error")
	}
}
