//go:build !linux || (!arm && !arm64)

package statusled

import "fmt"

type LED struct{}

func Open(pin int) (*LED, error) {
	return nil, fmt.Errorf("statusled: gpio unsupported on this platform")
}

func (l *LED) Set(on bool) error { return nil }

func (l *LED) Close() error { return nil }
