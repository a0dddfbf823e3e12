package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial    SerialConfig  `yaml:"serial"`
	I2C       I2CConfig     `yaml:"i2c"`
	ADC       ADCConfig     `yaml:"adc"`
	Compass   CompassConfig `yaml:"compass"`
	GPS       GPSConfig     `yaml:"gps"`
	Log       LogConfig     `yaml:"log"`
	StatusLED LEDConfig     `yaml:"status_led"`
}

type SerialConfig struct {
	// Device may be empty to auto-detect /dev/ttyACM* then /dev/ttyUSB*.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type I2CConfig struct {
	Bus string `yaml:"bus"`
}

type ADCConfig struct {
	// LowAddr carries channels IR940..YELLOW, HighAddr GREEN..UV351.
	LowAddr  uint16 `yaml:"low_addr"`
	HighAddr uint16 `yaml:"high_addr"`
	Gain     int    `yaml:"gain"`
}

type AxisBounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type CalibrationConfig struct {
	X AxisBounds `yaml:"x"`
	Y AxisBounds `yaml:"y"`
	Z AxisBounds `yaml:"z"`
}

type CompassConfig struct {
	Calibration CalibrationConfig `yaml:"calibration"`
}

type GPSConfig struct {
	// RequireFixLock restores stock NMEA gating: sentences carrying a
	// void/no-fix status are then not treated as complete. The field
	// deployment runs with this off so rows are logged from first power-on,
	// before the receiver acquires satellites.
	RequireFixLock bool `yaml:"require_fix_lock"`
}

type LogConfig struct {
	Path string `yaml:"path"`
}

type LEDConfig struct {
	Enable bool `yaml:"enable"`
	Pin    int  `yaml:"pin"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 9600
	}
	switch cfg.Serial.Baud {
	case 4800, 9600, 19200, 38400, 57600, 115200:
	default:
		return fmt.Errorf("serial.baud %d is not supported", cfg.Serial.Baud)
	}

	if cfg.I2C.Bus == "" {
		cfg.I2C.Bus = "/dev/i2c-1"
	}

	if cfg.ADC.LowAddr == 0 {
		cfg.ADC.LowAddr = 0x48
	}
	if cfg.ADC.HighAddr == 0 {
		cfg.ADC.HighAddr = 0x49
	}
	if cfg.ADC.LowAddr > 0x7F || cfg.ADC.HighAddr > 0x7F {
		return fmt.Errorf("adc addresses must be 7-bit (low=0x%X high=0x%X)", cfg.ADC.LowAddr, cfg.ADC.HighAddr)
	}
	if cfg.ADC.LowAddr == cfg.ADC.HighAddr {
		return fmt.Errorf("adc.low_addr and adc.high_addr must differ")
	}
	if cfg.ADC.Gain < 0 || cfg.ADC.Gain > 5 {
		return fmt.Errorf("adc.gain must be 0..5, got %d", cfg.ADC.Gain)
	}

	// Zero-valued bounds mean the axis was omitted; fall back to a
	// symmetric default rather than dividing by a zero span later.
	defaultAxis := AxisBounds{Min: -600, Max: 600}
	for _, ax := range []*AxisBounds{
		&cfg.Compass.Calibration.X,
		&cfg.Compass.Calibration.Y,
		&cfg.Compass.Calibration.Z,
	} {
		if ax.Min == 0 && ax.Max == 0 {
			*ax = defaultAxis
		}
	}
	if cfg.Compass.Calibration.X.Max <= cfg.Compass.Calibration.X.Min {
		return fmt.Errorf("compass.calibration.x: max must exceed min")
	}
	if cfg.Compass.Calibration.Y.Max <= cfg.Compass.Calibration.Y.Min {
		return fmt.Errorf("compass.calibration.y: max must exceed min")
	}
	if cfg.Compass.Calibration.Z.Max <= cfg.Compass.Calibration.Z.Min {
		return fmt.Errorf("compass.calibration.z: max must exceed min")
	}

	if cfg.Log.Path == "" {
		cfg.Log.Path = "data.csv"
	}

	if cfg.StatusLED.Enable && cfg.StatusLED.Pin <= 0 {
		return fmt.Errorf("status_led.pin is required when status_led.enable is true")
	}

	return nil
}
