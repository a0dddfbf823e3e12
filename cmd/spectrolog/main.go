package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"spectrolog/internal/compass"
	"spectrolog/internal/config"
	"spectrolog/internal/i2c"
	"spectrolog/internal/logbook"
	"spectrolog/internal/photodiode"
	"spectrolog/internal/recorder"
	"spectrolog/internal/sensors/ads1115"
	"spectrolog/internal/sensors/lsm303"
	"spectrolog/internal/serialport"
	"spectrolog/internal/statusled"
)

func main() {
	var configPath string
	var replayPath string
	flag.StringVar(&configPath, "config", "./spectrolog.yaml", "Path to YAML config")
	flag.StringVar(&replayPath, "replay", "", "Read raw NMEA bytes from a capture file instead of the serial port")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Storage preflight: an absent or read-only card must stop us before
	// any acquisition starts. An empty file is fine; the header goes out
	// with the first row.
	writer := logbook.NewWriter(cfg.Log.Path)
	if f, err := os.OpenFile(cfg.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
		log.Fatalf("storage preflight failed: %v", err)
	} else {
		_ = f.Close()
	}

	bank, att := openSensors(cfg)

	in := openInput(cfg, replayPath)
	defer in.Close()

	var led recorder.Indicator
	if cfg.StatusLED.Enable {
		l, err := statusled.Open(cfg.StatusLED.Pin)
		if err != nil {
			log.Printf("status led unavailable: %v", err)
		} else {
			defer l.Close()
			led = l
		}
	}

	rec := recorder.New(bank, att, writer, led, cfg.GPS.RequireFixLock)

	log.Printf("spectrolog starting")
	log.Printf("log=%s require_fix_lock=%v", cfg.Log.Path, cfg.GPS.RequireFixLock)

	// Unblock the blocking serial read on shutdown.
	go func() {
		<-ctx.Done()
		_ = in.Close()
	}()

	err = rec.Run(ctx, in)
	if err != nil && err != context.Canceled {
		printSummary(rec.Summary())
		log.Fatalf("recorder stopped: %v", err)
	}

	log.Printf("spectrolog stopping")
	printSummary(rec.Summary())
}

// openSensors brings up the I2C side. Sensor faults are not fatal: the
// recorder logs zeros for anything missing, so a dead sensor degrades the
// data without stopping the unit.
func openSensors(cfg config.Config) (recorder.AnalogBank, recorder.AttitudeReader) {
	bus, err := i2c.Open(cfg.I2C.Bus)
	if err != nil {
		log.Printf("i2c bus unavailable, logging zero sensor values: %v", err)
		return photodiode.NewBank(nil, nil), nil
	}

	low, err := ads1115.New(bus.Device(cfg.ADC.LowAddr), cfg.ADC.Gain)
	if err != nil {
		log.Printf("adc 0x%02X unavailable: %v", cfg.ADC.LowAddr, err)
		low = nil
	}
	high, err := ads1115.New(bus.Device(cfg.ADC.HighAddr), cfg.ADC.Gain)
	if err != nil {
		log.Printf("adc 0x%02X unavailable: %v", cfg.ADC.HighAddr, err)
		high = nil
	}

	var att recorder.AttitudeReader
	dev, err := lsm303.New(bus.Device(lsm303.AddrAccel), bus.Device(lsm303.AddrMag))
	if err != nil {
		log.Printf("compass unavailable: %v", err)
	} else {
		att = compass.NewSensor(dev, compassCalibration(cfg))
	}

	return photodiode.NewBank(low, high), att
}

func compassCalibration(cfg config.Config) compass.Calibration {
	return compass.Calibration{
		X: compass.Bounds{Min: cfg.Compass.Calibration.X.Min, Max: cfg.Compass.Calibration.X.Max},
		Y: compass.Bounds{Min: cfg.Compass.Calibration.Y.Min, Max: cfg.Compass.Calibration.Y.Max},
		Z: compass.Bounds{Min: cfg.Compass.Calibration.Z.Min, Max: cfg.Compass.Calibration.Z.Max},
	}
}

// openInput returns the NMEA byte source: a capture file in replay mode,
// otherwise the configured (or auto-detected) serial port. No usable input
// means nothing will ever be logged, so that is fatal.
func openInput(cfg config.Config, replayPath string) io.ReadCloser {
	if replayPath != "" {
		f, err := os.Open(replayPath)
		if err != nil {
			log.Fatalf("replay open failed: %v", err)
		}
		log.Printf("replaying %s", replayPath)
		return f
	}

	device := cfg.Serial.Device
	if device == "" {
		device = serialport.AutoDetect()
		if device == "" {
			log.Fatalf("gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
		}
	}
	f, err := serialport.Open(device, cfg.Serial.Baud)
	if err != nil {
		log.Fatalf("gps open failed device=%s baud=%d: %v", device, cfg.Serial.Baud, err)
	}
	log.Printf("gps device=%s baud=%d", device, cfg.Serial.Baud)
	return f
}
