package compass

import (
	"fmt"

	"spectrolog/internal/sensors/lsm303"
)

// Sensor couples the LSM303 driver with a unit's calibration bounds.
type Sensor struct {
	dev *lsm303.Device
	cal Calibration
}

func NewSensor(dev *lsm303.Device, cal Calibration) *Sensor {
	return &Sensor{dev: dev, cal: cal}
}

func (s *Sensor) Read() (Reading, error) {
	if s == nil || s.dev == nil {
		return Reading{}, fmt.Errorf("compass: sensor not present")
	}
	raw, err := s.dev.Read()
	if err != nil {
		return Reading{}, err
	}
	mag := Vector{X: float64(raw.Mx), Y: float64(raw.My), Z: float64(raw.Mz)}
	accel := Vector{X: float64(raw.Ax), Y: float64(raw.Ay), Z: float64(raw.Az)}
	return Compute(mag, accel, s.cal), nil
}
