package recorder

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spectrolog/internal/compass"
	"spectrolog/internal/logbook"
)

type fakeBank struct {
	values [8]int
	err    error
}

func (f *fakeBank) Read() ([8]int, error) { return f.values, f.err }

type fakeAttitude struct {
	reading compass.Reading
	err     error
}

func (f *fakeAttitude) Read() (compass.Reading, error) { return f.reading, f.err }

type captureWriter struct {
	rows []logbook.Row
	err  error
}

func (c *captureWriter) Append(r logbook.Row) error {
	if c.err != nil {
		return c.err
	}
	c.rows = append(c.rows, r)
	return nil
}

func sentence(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", payload, ck)
}

var rmcFixture = sentence("GPRMC,123045.67,A,3946.0962,N,08608.3166,W,2.8,180.0,150425,,")

func runStream(t *testing.T, r *Recorder, stream string) {
	t.Helper()
	if err := r.Run(context.Background(), strings.NewReader(stream)); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_OneSentenceOneRow(t *testing.T) {
	w := &captureWriter{}
	r := New(&fakeBank{values: [8]int{10, 20, 30, 40, 50, 60, 70, 80}}, &fakeAttitude{}, w, nil, false)

	runStream(t, r, rmcFixture)

	if len(w.rows) != 1 {
		t.Fatalf("rows=%d want 1", len(w.rows))
	}
	if w.rows[0].Channels != [8]int{10, 20, 30, 40, 50, 60, 70, 80} {
		t.Fatalf("channels=%v want raw values in channel order", w.rows[0].Channels)
	}
	if got := r.Summary(); got.Rows != 1 || got.Sentences != 1 {
		t.Fatalf("summary=%+v want 1 row / 1 sentence", got)
	}
}

func TestRun_NoTerminatorNoRows(t *testing.T) {
	w := &captureWriter{}
	r := New(&fakeBank{}, &fakeAttitude{}, w, nil, false)

	runStream(t, r, strings.TrimRight(rmcFixture, "\r\n"))

	if len(w.rows) != 0 {
		t.Fatalf("rows=%d want 0 without terminator", len(w.rows))
	}
}

func TestRun_NoFixSentenceStillLogs(t *testing.T) {
	void := sentence("GPRMC,123045.00,V,3946.0962,N,08608.3166,W,0.0,0.0,150425,,")

	w := &captureWriter{}
	runStream(t, New(&fakeBank{}, &fakeAttitude{}, w, nil, false), void)
	if len(w.rows) != 1 {
		t.Fatalf("rows=%d want 1 with fix-lock gate disabled", len(w.rows))
	}

	gated := &captureWriter{}
	runStream(t, New(&fakeBank{}, &fakeAttitude{}, gated, nil, true), void)
	if len(gated.rows) != 0 {
		t.Fatalf("rows=%d want 0 with fix-lock gate enabled", len(gated.rows))
	}
}

func TestRun_SensorFaultLogsZeros(t *testing.T) {
	w := &captureWriter{}
	bank := &fakeBank{err: errors.New("nack")}
	att := &fakeAttitude{err: errors.New("bus stuck")}

	runStream(t, New(bank, att, w, nil, false), rmcFixture)

	if len(w.rows) != 1 {
		t.Fatalf("rows=%d want 1 despite sensor faults", len(w.rows))
	}
	row := w.rows[0]
	if row.Channels != [8]int{} || row.HeadingDeg != 0 {
		t.Fatalf("row=%+v want zero sensor fields", row)
	}
	// GPS fields still come from the sentence.
	if row.Month != 4 || row.Day != 15 {
		t.Fatalf("date=%d-%d want 4-15", row.Month, row.Day)
	}
}

func TestRun_WriteErrorAborts(t *testing.T) {
	w := &captureWriter{err: errors.New("no storage")}
	r := New(&fakeBank{}, &fakeAttitude{}, w, nil, false)

	err := r.Run(context.Background(), strings.NewReader(rmcFixture+rmcFixture))
	if err == nil {
		t.Fatalf("expected write error to abort the run")
	}
}

func TestRun_RoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	r := New(
		&fakeBank{values: [8]int{1, 2, 3, 4, 5, 6, 7, 8}},
		&fakeAttitude{reading: compass.Reading{PitchDeg: 1.5, RollDeg: -2.25, HeadingDeg: 271.3}},
		logbook.NewWriter(path),
		nil,
		false,
	)

	const n = 3
	runStream(t, r, strings.Repeat(rmcFixture, n))

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(recs) != n+1 {
		t.Fatalf("lines=%d want header + %d rows", len(recs), n)
	}
	for i, rec := range recs {
		if len(rec) != logbook.FieldCount {
			t.Fatalf("line %d fields=%d want %d", i, len(rec), logbook.FieldCount)
		}
	}

	row := recs[1]
	if row[12] != "4-15_12:30:45.67" {
		t.Fatalf("GPSTime=%q want 4-15_12:30:45.67", row[12])
	}
	if row[13] != "39.76827" || row[14] != "-86.13861" {
		t.Fatalf("lat/lon=%q/%q", row[13], row[14])
	}
	if row[11] != "271.30" {
		t.Fatalf("heading=%q want 271.30", row[11])
	}
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(&fakeBank{}, &fakeAttitude{}, &captureWriter{}, nil, false)
	if err := r.Run(ctx, strings.NewReader(rmcFixture)); err != context.Canceled {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
