package serialport

import (
	"fmt"
	"os"
)

// AutoDetect returns the first present USB serial device, trying
// /dev/ttyACM* (u-blox style receivers) before /dev/ttyUSB* adapters.
func AutoDetect() string {
	for _, prefix := range []string{"/dev/ttyACM", "/dev/ttyUSB"} {
		for i := 0; i < 10; i++ {
			p := fmt.Sprintf("%s%d", prefix, i)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}
