//go:build !linux

package i2c

import "fmt"

var errUnsupported = fmt.Errorf("i2c: unsupported OS (need linux)")

type Bus struct{}

type Device struct{}

func Open(path string) (*Bus, error) { return nil, errUnsupported }

func (b *Bus) Path() string { return "" }

func (b *Bus) Close() error { return nil }

func (b *Bus) Device(addr uint16) *Device { return nil }

func (d *Device) Tx(w, r []byte) error                  { return errUnsupported }
func (d *Device) ReadReg(reg byte, dst []byte) error    { return errUnsupported }
func (d *Device) ReadRegU8(reg byte) (byte, error)      { return 0, errUnsupported }
func (d *Device) ReadRegU16(reg byte) (uint16, error)   { return 0, errUnsupported }
func (d *Device) WriteReg(reg, value byte) error        { return errUnsupported }
func (d *Device) WriteRegU16(reg byte, v uint16) error  { return errUnsupported }
