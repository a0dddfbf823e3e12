package lsm303

import (
	"fmt"

	"spectrolog/internal/i2c"
)

// Minimal LSM303DLHC driver: raw accelerometer + magnetometer axes.
//
// The part is two I2C targets behind one lens: accelerometer at 0x19,
// magnetometer at 0x1E. Calibration and attitude math live elsewhere; this
// driver only moves registers.

const (
	AddrAccel uint16 = 0x19
	AddrMag   uint16 = 0x1E

	// Accelerometer registers.
	regCtrl1A = 0x20
	regCtrl4A = 0x23
	regOutXLA = 0x28
	// Setting the subaddress MSB enables register auto-increment on reads.
	autoInc = 0x80

	// 50 Hz, normal power, X/Y/Z enabled.
	ctrl1Normal50Hz = 0x47
	// High-resolution mode, +/-2g.
	ctrl4HiRes = 0x08

	// Magnetometer registers.
	regCRAM   = 0x00
	regCRBM   = 0x01
	regMRM    = 0x02
	regOutXHM = 0x03
	regIRAM   = 0x0A

	// 30 Hz output rate.
	craRate30Hz = 0x14
	// +/-1.3 gauss range.
	crbGain13 = 0x20
	// Continuous conversion.
	mrContinuous = 0x00

	// IRA_REG_M identification value ('H').
	iraMagID = 0x48
)

type regIO interface {
	ReadReg(reg byte, dst []byte) error
	ReadRegU8(reg byte) (byte, error)
	WriteReg(reg, value byte) error
}

// Sample carries raw axis counts straight off the registers.
type Sample struct {
	Ax, Ay, Az int
	Mx, My, Mz int
}

type Device struct {
	accel regIO
	mag   regIO
}

func New(accel, mag *i2c.Device) (*Device, error) {
	if accel == nil || mag == nil {
		return nil, fmt.Errorf("lsm303: dev is nil")
	}
	return newWithIO(accel, mag)
}

func newWithIO(accel, mag regIO) (*Device, error) {
	if accel == nil || mag == nil {
		return nil, fmt.Errorf("lsm303: dev is nil")
	}
	d := &Device{accel: accel, mag: mag}

	id, err := d.mag.ReadRegU8(regIRAM)
	if err != nil {
		return nil, fmt.Errorf("lsm303: mag id read failed: %w", err)
	}
	if id != iraMagID {
		return nil, fmt.Errorf("lsm303: mag id=0x%02X want 0x%02X", id, iraMagID)
	}

	if err := d.accel.WriteReg(regCtrl1A, ctrl1Normal50Hz); err != nil {
		return nil, fmt.Errorf("lsm303: accel enable failed: %w", err)
	}
	if err := d.accel.WriteReg(regCtrl4A, ctrl4HiRes); err != nil {
		return nil, fmt.Errorf("lsm303: accel config failed: %w", err)
	}

	if err := d.mag.WriteReg(regCRAM, craRate30Hz); err != nil {
		return nil, fmt.Errorf("lsm303: mag rate failed: %w", err)
	}
	if err := d.mag.WriteReg(regCRBM, crbGain13); err != nil {
		return nil, fmt.Errorf("lsm303: mag gain failed: %w", err)
	}
	if err := d.mag.WriteReg(regMRM, mrContinuous); err != nil {
		return nil, fmt.Errorf("lsm303: mag mode failed: %w", err)
	}

	return d, nil
}

func (d *Device) Read() (Sample, error) {
	if d == nil {
		return Sample{}, fmt.Errorf("lsm303: device is nil")
	}

	// Accelerometer: little-endian pairs, 12 bits left-justified.
	var ab [6]byte
	if err := d.accel.ReadReg(regOutXLA|autoInc, ab[:]); err != nil {
		return Sample{}, fmt.Errorf("lsm303: accel read failed: %w", err)
	}
	ax := int(int16(uint16(ab[1])<<8|uint16(ab[0]))) >> 4
	ay := int(int16(uint16(ab[3])<<8|uint16(ab[2]))) >> 4
	az := int(int16(uint16(ab[5])<<8|uint16(ab[4]))) >> 4

	// Magnetometer: big-endian, register order X, Z, Y.
	var mb [6]byte
	if err := d.mag.ReadReg(regOutXHM, mb[:]); err != nil {
		return Sample{}, fmt.Errorf("lsm303: mag read failed: %w", err)
	}
	mx := int(int16(uint16(mb[0])<<8 | uint16(mb[1])))
	mz := int(int16(uint16(mb[2])<<8 | uint16(mb[3])))
	my := int(int16(uint16(mb[4])<<8 | uint16(mb[5])))

	return Sample{Ax: ax, Ay: ay, Az: az, Mx: mx, My: my, Mz: mz}, nil
}
