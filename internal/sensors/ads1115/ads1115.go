package ads1115

import (
	"fmt"
	"time"

	"spectrolog/internal/i2c"
)

var sleep = time.Sleep

// Minimal ADS1115 driver.
//
// Focus: single-shot, single-ended conversions for slow photodiode
// channels. The chip has no ID register; New probes it by reading back the
// config register.

const (
	regConversion = 0x00
	regConfig     = 0x01

	bitOS = 1 << 15 // write: start conversion; read: conversion done

	// MUX[14:12] single-ended AIN0..AIN3 is 0b100..0b111.
	muxSingle = 0x4
	muxShift  = 12

	pgaShift = 9

	bitMode = 1 << 8 // single-shot

	// DR[7:5] = 0b111: 860 SPS, ~1.2ms per conversion.
	dr860 = 0x7 << 5

	// COMP_QUE[1:0] = 0b11 disables the comparator.
	compDisable = 0x3

	Channels = 4
)

// FullScaleV maps PGA index to full-scale input range in volts.
var FullScaleV = [6]float64{6.144, 4.096, 2.048, 1.024, 0.512, 0.256}

const convPollLimit = 100

type regIO interface {
	ReadRegU16(reg byte) (uint16, error)
	WriteRegU16(reg byte, value uint16) error
}

type Device struct {
	dev  regIO
	gain int
}

func New(dev *i2c.Device, gain int) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("ads1115: dev is nil")
	}
	return newWithIO(dev, gain)
}

func newWithIO(dev regIO, gain int) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("ads1115: dev is nil")
	}
	if gain < 0 || gain >= len(FullScaleV) {
		return nil, fmt.Errorf("ads1115: gain index %d out of range", gain)
	}
	d := &Device{dev: dev, gain: gain}

	// Presence probe: the config register must be readable.
	if _, err := d.dev.ReadRegU16(regConfig); err != nil {
		return nil, fmt.Errorf("ads1115: probe failed: %w", err)
	}
	return d, nil
}

// ReadChannel runs one single-shot conversion on AIN<ch> and returns the
// raw count. Single-ended inputs cannot go below ground, so small negative
// counts from offset error are clamped to 0.
func (d *Device) ReadChannel(ch int) (int, error) {
	if d == nil {
		return 0, fmt.Errorf("ads1115: device is nil")
	}
	if ch < 0 || ch >= Channels {
		return 0, fmt.Errorf("ads1115: channel %d out of range", ch)
	}

	cfg := uint16(bitOS) |
		uint16(muxSingle|ch)<<muxShift |
		uint16(d.gain)<<pgaShift |
		uint16(bitMode) |
		uint16(dr860) |
		uint16(compDisable)

	if err := d.dev.WriteRegU16(regConfig, cfg); err != nil {
		return 0, fmt.Errorf("ads1115: start conversion failed: %w", err)
	}

	for i := 0; ; i++ {
		st, err := d.dev.ReadRegU16(regConfig)
		if err != nil {
			return 0, fmt.Errorf("ads1115: poll failed: %w", err)
		}
		if st&bitOS != 0 {
			break
		}
		if i >= convPollLimit {
			return 0, fmt.Errorf("ads1115: conversion timeout on channel %d", ch)
		}
		sleep(time.Millisecond)
	}

	raw, err := d.dev.ReadRegU16(regConversion)
	if err != nil {
		return 0, fmt.Errorf("ads1115: read conversion failed: %w", err)
	}
	v := int(int16(raw))
	if v < 0 {
		v = 0
	}
	return v, nil
}
