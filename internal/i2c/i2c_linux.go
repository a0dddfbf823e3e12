//go:build linux

package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux I2C backend over /dev/i2c-*.
//
// Register reads go through I2C_RDWR so the address write and the data read
// happen in one transaction with a repeated start; both sensor families used
// here (ADS1115, LSM303) require that.

const (
	flagRead  = 0x0001
	ioctlRdwr = 0x0707
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// Bus is an opened I2C adapter, e.g. /dev/i2c-1.
//
// Multiple Device handles may share one Bus, but transfers are not
// serialized here; callers coordinate if they run concurrently.
type Bus struct {
	f    *os.File
	path string
}

func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	return &Bus{f: f, path: path}, nil
}

func (b *Bus) Path() string { return b.path }

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// Device binds a 7-bit address on the bus.
func (b *Bus) Device(addr uint16) *Device {
	if b == nil {
		return nil
	}
	return &Device{bus: b, addr: addr}
}

type Device struct {
	bus  *Bus
	addr uint16
}

// Tx performs a write followed by a read with a repeated start.
// Either slice may be empty.
func (d *Device) Tx(w, r []byte) error {
	if d == nil || d.bus == nil || d.bus.f == nil {
		return errors.New("i2c: device not open")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("i2c: invalid address 0x%X", d.addr)
	}

	msgs := make([]i2cMsg, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, i2cMsg{addr: d.addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))})
	}
	if len(r) > 0 {
		msgs = append(msgs, i2cMsg{addr: d.addr, flags: flagRead, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	if len(msgs) == 0 {
		return nil
	}

	req := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.bus.f.Fd(), uintptr(ioctlRdwr), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return fmt.Errorf("i2c: transfer addr=0x%02X: %w", d.addr, errno)
	}
	return nil
}

func (d *Device) ReadReg(reg byte, dst []byte) error {
	return d.Tx([]byte{reg}, dst)
}

func (d *Device) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadRegU16 reads a big-endian 16-bit register.
func (d *Device) ReadRegU16(reg byte) (uint16, error) {
	var b [2]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (d *Device) WriteReg(reg, value byte) error {
	return d.Tx([]byte{reg, value}, nil)
}

// WriteRegU16 writes a big-endian 16-bit register.
func (d *Device) WriteRegU16(reg byte, value uint16) error {
	return d.Tx([]byte{reg, byte(value >> 8), byte(value)}, nil)
}
