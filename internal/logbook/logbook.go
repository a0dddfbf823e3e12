package logbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"spectrolog/internal/photodiode"
)

// Package logbook serializes acquisition rows to the CSV file on removable
// storage. Every row is an independent open-append-close cycle, so a power
// cut between rows costs at most the row in flight.

// FieldCount is the number of columns in every row, header included.
const FieldCount = 18

// Header returns the fixed header line (no trailing newline).
func Header() string {
	cols := make([]string, 0, FieldCount)
	cols = append(cols, "Time")
	cols = append(cols, photodiode.ChannelNames[:]...)
	cols = append(cols, "Pitch", "Roll", "Heading",
		"GPSTime", "Latitude", "Longitude", "Altitude", "Course(degree)", "Speed(kmph)")
	return strings.Join(cols, ",")
}

// Row is one synchronized snapshot of everything the logger measures.
type Row struct {
	UptimeMs int64

	Channels [8]int

	PitchDeg   float64
	RollDeg    float64
	HeadingDeg float64

	Month      int
	Day        int
	Hour       int
	Minute     int
	Second     int
	Hundredths int

	LatDeg    float64
	LonDeg    float64
	AltM      float64
	CourseDeg float64
	SpeedKmh  float64
}

// GPSTime renders month/day unpadded and time-of-day zero-padded, e.g.
// "4-15_12:30:45.67".
func (r Row) GPSTime() string {
	return fmt.Sprintf("%d-%d_%02d:%02d:%02d.%02d",
		r.Month, r.Day, r.Hour, r.Minute, r.Second, r.Hundredths)
}

func (r Row) record() []string {
	rec := make([]string, 0, FieldCount)
	rec = append(rec, strconv.FormatInt(r.UptimeMs, 10))
	for _, v := range r.Channels {
		rec = append(rec, strconv.Itoa(v))
	}
	rec = append(rec,
		strconv.FormatFloat(r.PitchDeg, 'f', 2, 64),
		strconv.FormatFloat(r.RollDeg, 'f', 2, 64),
		strconv.FormatFloat(r.HeadingDeg, 'f', 2, 64),
		r.GPSTime(),
		strconv.FormatFloat(r.LatDeg, 'f', 5, 64),
		strconv.FormatFloat(r.LonDeg, 'f', 5, 64),
		strconv.FormatFloat(r.AltM, 'f', 2, 64),
		strconv.FormatFloat(r.CourseDeg, 'f', 2, 64),
		strconv.FormatFloat(r.SpeedKmh, 'f', 2, 64),
	)
	return rec
}

type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string { return w.path }

// Append opens the file, writes the header if the file is new or empty,
// writes one row, and closes. Any failure is returned to the caller; the
// caller halts on it (a stopped log beats a corrupt one in the field).
//
// The header goes out in a single write so a concurrent power cut leaves it
// either absent or whole.
func (w *Writer) Append(r Row) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logbook: open %s: %w", w.path, err)
	}

	err = w.write(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (w *Writer) write(f *os.File, r Row) error {
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("logbook: stat %s: %w", w.path, err)
	}
	if st.Size() == 0 {
		if _, err := f.WriteString(Header() + "\n"); err != nil {
			return fmt.Errorf("logbook: write header: %w", err)
		}
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(r.record()); err != nil {
		return fmt.Errorf("logbook: write row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("logbook: write row: %w", err)
	}
	return nil
}
