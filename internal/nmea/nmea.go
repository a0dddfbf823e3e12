package nmea

import (
	"math"
	"strconv"
	"strings"
)

// Sentences longer than this are malformed (NMEA 0183 caps at 82 chars
// including framing); the accumulator drops them and counts the bytes.
const maxSentenceLen = 120

// knots to km/h.
const kmhPerKnot = 1.852

// Fix is the decoder's view of the most recent position solution.
//
// Fields keep their zero values until a sentence sets them, so a receiver
// that never acquires satellites yields all-zero rows rather than an error.
type Fix struct {
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

// Stats counts decoder input that did not become a completed sentence.
//
// Discarded covers bytes outside $...* framing and sentences dropped for
// overflowing the accumulator; a rising count means input is being lost.
type Stats struct {
	Sentences   uint64
	BadChecksum uint64
	Discarded   uint64
}

// Decoder is a byte-at-a-time NMEA sentence accumulator.
//
// Feed each received byte in order; Feed reports true when the byte
// completed a checksum-valid RMC or GGA sentence and the fix was updated.
//
// RequireFixLock restores stock gating: when set, RMC sentences with a void
// status and GGA sentences with fix quality 0 do not complete. The field
// units run with it unset so logging starts before satellite acquisition.
type Decoder struct {
	RequireFixLock bool

	buf        []byte
	inSentence bool

	fix   Fix
	stats Stats
}

func (d *Decoder) Fix() Fix     { return d.fix }
func (d *Decoder) Stats() Stats { return d.stats }

func (d *Decoder) Feed(b byte) bool {
	switch b {
	case '$':
		// Start of sentence; anything half-accumulated is lost.
		d.stats.Discarded += uint64(len(d.buf))
		d.buf = d.buf[:0]
		d.inSentence = true
		return false
	case '\r', '\n':
		if !d.inSentence {
			return false
		}
		d.inSentence = false
		return d.complete(string(d.buf))
	}

	if !d.inSentence {
		d.stats.Discarded++
		return false
	}
	if len(d.buf) >= maxSentenceLen {
		d.stats.Discarded += uint64(len(d.buf)) + 1
		d.buf = d.buf[:0]
		d.inSentence = false
		return false
	}
	d.buf = append(d.buf, b)
	return false
}

// complete validates framing and checksum for one accumulated sentence
// (payload between '$' and the terminator) and applies it.
func (d *Decoder) complete(payload string) bool {
	d.buf = d.buf[:0]

	star := strings.LastIndexByte(payload, '*')
	if star == -1 || len(payload)-star-1 < 2 {
		d.stats.BadChecksum++
		return false
	}
	body := payload[:star]
	want, err := strconv.ParseUint(payload[star+1:star+3], 16, 8)
	if err != nil {
		d.stats.BadChecksum++
		return false
	}
	got := byte(0)
	for i := 0; i < len(body); i++ {
		got ^= body[i]
	}
	if got != byte(want) {
		d.stats.BadChecksum++
		return false
	}

	fields := strings.Split(body, ",")
	if len(fields) == 0 || len(fields[0]) < 3 {
		return false
	}
	// Normalize GPxxx/GNxxx talkers to the 3-char sentence type.
	typ := fields[0]
	if len(typ) > 3 {
		typ = typ[len(typ)-3:]
	}

	applied := false
	switch strings.ToUpper(typ) {
	case "RMC":
		applied = d.applyRMC(fields)
	case "GGA":
		applied = d.applyGGA(fields)
	}
	if applied {
		d.stats.Sentences++
	}
	return applied
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	1: time (hhmmss.ss)
//	2: status (A=active, V=void)
//	3,4: latitude + N/S
//	5,6: longitude + E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
func (d *Decoder) applyRMC(f []string) bool {
	if len(f) < 10 {
		return false
	}
	if d.RequireFixLock && strings.TrimSpace(f[2]) != "A" {
		return false
	}

	d.applyTime(f[1])
	if date := strings.TrimSpace(f[9]); len(date) >= 4 {
		if day, err := strconv.Atoi(date[0:2]); err == nil {
			d.fix.Day = day
		}
		if mon, err := strconv.Atoi(date[2:4]); err == nil {
			d.fix.Month = mon
		}
	}

	if lat, ok := parseLatLon(f[3], f[4]); ok {
		d.fix.LatDeg = lat
	}
	if lon, ok := parseLatLon(f[5], f[6]); ok {
		d.fix.LonDeg = lon
	}
	if kt, ok := parseFloat(f[7]); ok {
		d.fix.SpeedKmh = kt * kmhPerKnot
	}
	if crs, ok := parseFloat(f[8]); ok {
		d.fix.CourseDeg = math.Mod(crs+360.0, 360.0)
	}
	return true
}

// GGA: Global Positioning System Fix Data
//
//	1: time
//	2,3: latitude + N/S
//	4,5: longitude + E/W
//	6: fix quality (0=invalid)
//	9: altitude (meters)
func (d *Decoder) applyGGA(f []string) bool {
	if len(f) < 10 {
		return false
	}
	if d.RequireFixLock {
		q := strings.TrimSpace(f[6])
		if q == "" || q == "0" {
			return false
		}
	}

	d.applyTime(f[1])
	if lat, ok := parseLatLon(f[2], f[3]); ok {
		d.fix.LatDeg = lat
	}
	if lon, ok := parseLatLon(f[4], f[5]); ok {
		d.fix.LonDeg = lon
	}
	if alt, ok := parseFloat(f[9]); ok {
		d.fix.AltM = alt
	}
	return true
}

func (d *Decoder) applyTime(v string) {
	v = strings.TrimSpace(v)
	if len(v) < 6 {
		return
	}
	h, err1 := strconv.Atoi(v[0:2])
	m, err2 := strconv.Atoi(v[2:4])
	s, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return
	}
	d.fix.Hour, d.fix.Minute, d.fix.Second = h, m, s
	d.fix.Hundredths = 0
	if len(v) >= 9 && v[6] == '.' {
		if hs, err := strconv.Atoi(v[7:9]); err == nil {
			d.fix.Hundredths = hs
		}
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseLatLon converts NMEA ddmm.mmmm / dddmm.mmmm plus hemisphere into
// signed decimal degrees.
func parseLatLon(v, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return 0, false
	}

	dec := float64(deg) + mins/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
