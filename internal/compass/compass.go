package compass

import "math"

// Package compass turns raw magnetometer/accelerometer axes into pitch,
// roll, and tilt-compensated heading.
//
// Calibration bounds are the per-axis raw extremes observed while sweeping
// the mounted sensor through all orientations; they are measured once per
// unit and live in the config file.

type Vector struct {
	X, Y, Z float64
}

type Bounds struct {
	Min, Max float64
}

type Calibration struct {
	X, Y, Z Bounds
}

// Reading is one attitude solution, all in degrees. Heading is in [0, 360).
type Reading struct {
	PitchDeg   float64
	RollDeg    float64
	HeadingDeg float64
}

// normalize maps a raw axis value into [-1, 1] against its bounds.
func (b Bounds) normalize(v float64) float64 {
	span := b.Max - b.Min
	if span == 0 {
		return 0
	}
	return (v - (b.Max+b.Min)/2) / (span / 2)
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Compute derives pitch and roll from the accelerometer vector and a
// tilt-compensated heading from the calibrated magnetometer vector.
func Compute(mag, accel Vector, cal Calibration) Reading {
	xm := cal.X.normalize(mag.X)
	ym := cal.Y.normalize(mag.Y)
	zm := cal.Z.normalize(mag.Z)

	norm := math.Sqrt(accel.X*accel.X + accel.Y*accel.Y + accel.Z*accel.Z)
	var ax, ay float64
	if norm > 0 {
		ax = accel.X / norm
		ay = accel.Y / norm
	}

	pitch := math.Asin(clampUnit(-ax))
	var roll float64
	if c := math.Cos(pitch); math.Abs(c) > 1e-6 {
		roll = math.Asin(clampUnit(ay / c))
	}

	// Rotate the magnetic vector back into the horizontal plane.
	xh := xm*math.Cos(pitch) + zm*math.Sin(pitch)
	yh := xm*math.Sin(roll)*math.Sin(pitch) + ym*math.Cos(roll) - zm*math.Sin(roll)*math.Cos(pitch)

	heading := math.Atan2(yh, xh) * 180 / math.Pi
	if heading < 0 {
		heading += 360
	}

	return Reading{
		PitchDeg:   pitch * 180 / math.Pi,
		RollDeg:    roll * 180 / math.Pi,
		HeadingDeg: heading,
	}
}
