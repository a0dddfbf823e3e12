package recorder

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"spectrolog/internal/compass"
	"spectrolog/internal/logbook"
	"spectrolog/internal/nmea"
)

// Package recorder runs the acquisition loop: consume serial bytes, feed
// the NMEA decoder, and on every completed sentence take one synchronized
// snapshot (photodiodes + compass + fix) and append it as a CSV row.
//
// The loop never sleeps; row writes happen inline, which stalls byte
// consumption for their duration. The decoder's discard counters make any
// resulting loss visible instead of silent.

const statsEvery = 60

// AnalogBank is what the recorder needs from the photodiode side.
type AnalogBank interface {
	Read() ([8]int, error)
}

// AttitudeReader is what it needs from the compass side.
type AttitudeReader interface {
	Read() (compass.Reading, error)
}

// RowWriter is what it needs from storage. Append errors are fatal.
type RowWriter interface {
	Append(logbook.Row) error
}

// Indicator is an optional activity LED; nil is fine.
type Indicator interface {
	Set(on bool) error
}

type Recorder struct {
	dec    *nmea.Decoder
	bank   AnalogBank
	att    AttitudeReader
	writer RowWriter
	led    Indicator

	start time.Time
	now   func() time.Time

	rows uint64

	lastBankErr string
	lastAttErr  string
}

// Summary is the end-of-run accounting printed by the main binary.
type Summary struct {
	Rows        uint64
	Sentences   uint64
	BadChecksum uint64
	Discarded   uint64
}

func New(bank AnalogBank, att AttitudeReader, writer RowWriter, led Indicator, requireFixLock bool) *Recorder {
	r := &Recorder{
		dec:    &nmea.Decoder{RequireFixLock: requireFixLock},
		bank:   bank,
		att:    att,
		writer: writer,
		led:    led,
		now:    time.Now,
	}
	r.start = r.now()
	return r
}

func (r *Recorder) Summary() Summary {
	st := r.dec.Stats()
	return Summary{
		Rows:        r.rows,
		Sentences:   st.Sentences,
		BadChecksum: st.BadChecksum,
		Discarded:   st.Discarded,
	}
}

// Run consumes in until EOF, read error, or context cancellation. A row
// write failure aborts with that error; everything else is non-fatal.
func (r *Recorder) Run(ctx context.Context, in io.Reader) error {
	if r == nil || r.writer == nil {
		return fmt.Errorf("recorder: not wired")
	}

	buf := make([]byte, 512)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := in.Read(buf)
		for i := 0; i < n; i++ {
			if !r.dec.Feed(buf[i]) {
				continue
			}
			if werr := r.logRow(); werr != nil {
				return werr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("recorder: read: %w", err)
		}
	}
}

// logRow performs one full acquisition-and-write cycle.
func (r *Recorder) logRow() error {
	if r.led != nil {
		_ = r.led.Set(true)
		defer func() { _ = r.led.Set(false) }()
	}

	var channels [8]int
	if r.bank != nil {
		v, err := r.bank.Read()
		channels = v
		r.noteErr(&r.lastBankErr, "analog", err)
	}

	var att compass.Reading
	if r.att != nil {
		v, err := r.att.Read()
		if err == nil {
			att = v
		}
		r.noteErr(&r.lastAttErr, "compass", err)
	}

	fix := r.dec.Fix()
	row := logbook.Row{
		UptimeMs:   r.now().Sub(r.start).Milliseconds(),
		Channels:   channels,
		PitchDeg:   att.PitchDeg,
		RollDeg:    att.RollDeg,
		HeadingDeg: att.HeadingDeg,
		Month:      fix.Month,
		Day:        fix.Day,
		Hour:       fix.Hour,
		Minute:     fix.Minute,
		Second:     fix.Second,
		Hundredths: fix.Hundredths,
		LatDeg:     fix.LatDeg,
		LonDeg:     fix.LonDeg,
		AltM:       fix.AltM,
		CourseDeg:  fix.CourseDeg,
		SpeedKmh:   fix.SpeedKmh,
	}

	if err := r.writer.Append(row); err != nil {
		return err
	}
	r.rows++

	if r.rows%statsEvery == 0 {
		st := r.dec.Stats()
		log.Printf("rows=%d sentences=%d discarded=%d bad_checksum=%d",
			r.rows, st.Sentences, st.Discarded, st.BadChecksum)
	}
	return nil
}

// noteErr logs a sensor failure once per distinct message; at 1 Hz row rate
// a flapping sensor would otherwise flood the journal.
func (r *Recorder) noteErr(last *string, what string, err error) {
	if err == nil {
		if *last != "" {
			log.Printf("%s recovered", what)
			*last = ""
		}
		return
	}
	if err.Error() == *last {
		return
	}
	*last = err.Error()
	log.Printf("%s read failed (logging zeros): %v", what, err)
}
