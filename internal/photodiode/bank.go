package photodiode

import (
	"fmt"

	"spectrolog/internal/sensors/ads1115"
)

// Package photodiode maps the eight spectral channels onto the two ADS1115
// converters: the low device carries IR940..YELLOW on AIN0..AIN3, the high
// device GREEN..UV351.

// ChannelNames is the fixed acquisition and CSV column order.
var ChannelNames = [8]string{
	"IR940", "IR830", "RED", "YELLOW",
	"GREEN", "BLUE", "VIOLET400", "UV351",
}

type channelReader interface {
	ReadChannel(ch int) (int, error)
}

type Bank struct {
	low  channelReader
	high channelReader
}

// NewBank accepts nil devices; their channels then read as 0 with an error,
// matching how a dead converter behaves in the field.
func NewBank(low, high *ads1115.Device) *Bank {
	b := &Bank{}
	if low != nil {
		b.low = low
	}
	if high != nil {
		b.high = high
	}
	return b
}

func newBankWithIO(low, high channelReader) *Bank {
	return &Bank{low: low, high: high}
}

// Read samples all eight channels in fixed order. It is best-effort: a
// failing channel reads as 0 and the first error is reported alongside the
// values, so one dead converter does not blank the other four columns.
func (b *Bank) Read() ([8]int, error) {
	var out [8]int
	var firstErr error

	for i := 0; i < 8; i++ {
		dev := b.low
		ch := i
		if i >= ads1115.Channels {
			dev = b.high
			ch = i - ads1115.Channels
		}
		if dev == nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("photodiode: no converter for %s", ChannelNames[i])
			}
			continue
		}
		v, err := dev.ReadChannel(ch)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("photodiode: %s: %w", ChannelNames[i], err)
			}
			continue
		}
		out[i] = v
	}
	return out, firstErr
}
