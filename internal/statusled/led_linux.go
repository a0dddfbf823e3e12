//go:build linux && (arm || arm64)

package statusled

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// Open claims BCM GPIO pin as a digital output through the Linux GPIO
// character device. The recorder drives it high for the duration of each
// acquisition-and-write cycle so a field operator can see rows happening.
func Open(pin int) (*LED, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("statusled: invalid gpio pin %d", pin)
	}

	lineName := fmt.Sprintf("GPIO%d", pin)

	candidates := []string{"/dev/gpiochip0"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			candidates = append(candidates, filepath.Join("/dev", e.Name()))
		}
	}

	for _, chipPath := range candidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("spectrolog-led"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &LED{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("statusled: gpio line %q not found (or busy)", lineName)
}

type LED struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (l *LED) Set(on bool) error {
	if l == nil || l.line == nil {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	return l.line.SetValue(v)
}

func (l *LED) Close() error {
	if l == nil || l.line == nil {
		return nil
	}
	_ = l.line.SetValue(0)
	err := l.line.Close()
	l.line = nil
	if l.chip != nil {
		_ = l.chip.Close()
		l.chip = nil
	}
	return err
}
