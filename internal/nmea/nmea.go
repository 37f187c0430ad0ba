// Package nmea translates NMEA 0183 sentences into partial gps.Data updates.
//
// A Translator is stateful: RMC supplies the date that GGA and GLL times are
// anchored to, GSA supplies the satellites used in the solution, and GSV
// skyviews are assembled across the sentences of one group.
package nmea

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/adrianmo/go-nmea"

	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/timeutil"
)

const (
	knotsToMPS = 1852.0 / 3600.0
	kphToMPS   = 1000.0 / 3600.0
)

// ErrUnsupported is returned for sentences that parse but carry nothing the
// record can hold.
var ErrUnsupported = errors.New("nmea: unsupported sentence")

type civilDate struct {
	year, month, day int
}

// Translator turns sentences from one receiver into partial updates.
type Translator struct {
	parser *nmea.SentenceParser

	date civilDate
	// time of day of the last fix sentence, seconds since midnight
	lastTOD float64

	sky     gps.Skyview
	pending gps.Skyview
	haveSky bool
	used    map[int]bool
}

func NewTranslator() *Translator {
	t := &Translator{parser: newSentenceParser(), used: make(map[int]bool)}
	t.sky.Clear()
	t.pending.Clear()
	return t
}

// Translate parses one sentence and returns the update it carries.
func (t *Translator) Translate(line string) (*gps.Data, gps.Mask, error) {
	s, err := t.parser.Parse(strings.TrimSpace(line))
	if err != nil {
		return nil, 0, fmt.Errorf("nmea: %w", err)
	}
	in := gps.NewData()
	in.Tag = gps.Truncate(s.DataType(), gps.TagMax)
	mask := gps.MaskOf(gps.Packet)

	var m gps.Mask
	switch v := s.(type) {
	case nmea.RMC:
		m = t.rmc(v, in)
	case nmea.GGA:
		m = t.gga(v, in)
	case nmea.GLL:
		m = t.gll(v, in)
	case nmea.GSA:
		m = t.gsa(v, in)
	case nmea.GSV:
		m = t.gsv(v, in)
	case GST:
		m = t.gst(v, in)
	case nmea.VTG:
		m = t.vtg(v, in)
	case nmea.ZDA:
		m = t.zda(v, in)
	default:
		return in, mask, fmt.Errorf("%w: %s", ErrUnsupported, s.DataType())
	}
	return in, mask.Union(m), nil
}

// present reports whether payload field i was non-empty. go-nmea reads
// empty numeric fields as zero.
func present(fields []string, i int) bool {
	return i < len(fields) && strings.TrimSpace(fields[i]) != ""
}

func (t *Translator) stamp(tm nmea.Time, in *gps.Data) gps.Mask {
	if !tm.Valid {
		return 0
	}
	tod := float64(tm.Hour*3600+tm.Minute*60+tm.Second) + float64(tm.Millisecond)/1000
	t.lastTOD = tod
	if t.date.year == 0 {
		return 0
	}
	in.Fix.Time = timeutil.FromCivil(t.date.year, t.date.month, t.date.day, 0, 0, tod)
	return gps.MaskOf(gps.Time)
}

func (t *Translator) rmc(v nmea.RMC, in *gps.Data) gps.Mask {
	if v.Date.Valid {
		t.date = civilDate{year: fullYear(v.Date.YY), month: v.Date.MM, day: v.Date.DD}
	}
	mask := gps.MaskOf(gps.Status)
	if v.Validity != nmea.ValidRMC {
		in.Status = gps.StatusNoFix
		in.Fix.Mode = gps.ModeNoFix
		return mask.With(gps.Mode).Union(t.stamp(v.Time, in))
	}
	in.Status = gps.StatusFix
	mask = mask.Union(t.stamp(v.Time, in))
	if present(v.Fields, 2) && present(v.Fields, 4) {
		in.Fix.Latitude = v.Latitude
		in.Fix.Longitude = v.Longitude
		mask = mask.With(gps.LatLon)
	}
	if present(v.Fields, 6) {
		in.Fix.Speed = v.Speed * knotsToMPS
		mask = mask.With(gps.Speed)
	}
	if present(v.Fields, 7) {
		in.Fix.Track = normTrack(v.Course)
		mask = mask.With(gps.Track)
	}
	return mask
}

// fullYear expands a two-digit RMC year; 80-99 are taken as 19xx.
func fullYear(yy int) int {
	if yy >= 80 {
		return 1900 + yy
	}
	return 2000 + yy
}

// zda carries a four-digit year and overrides the RMC date.
func (t *Translator) zda(v nmea.ZDA, in *gps.Data) gps.Mask {
	if v.Year > 0 && v.Month > 0 && v.Day > 0 {
		t.date = civilDate{year: int(v.Year), month: int(v.Month), day: int(v.Day)}
	}
	return t.stamp(v.Time, in)
}

func (t *Translator) gga(v nmea.GGA, in *gps.Data) gps.Mask {
	mask := gps.MaskOf(gps.Status).Union(t.stamp(v.Time, in))
	switch v.FixQuality {
	case nmea.Invalid, "":
		in.Status = gps.StatusNoFix
		return mask
	case nmea.DGPS:
		in.Status = gps.StatusDGPSFix
	default:
		in.Status = gps.StatusFix
	}
	if present(v.Fields, 1) && present(v.Fields, 3) {
		in.Fix.Latitude = v.Latitude
		in.Fix.Longitude = v.Longitude
		mask = mask.With(gps.LatLon)
	}
	if present(v.Fields, 8) {
		in.Fix.Altitude = v.Altitude
		if present(v.Fields, 10) {
			in.Separation = v.Separation
		}
		mask = mask.With(gps.Altitude)
	}
	return mask
}

func (t *Translator) gll(v nmea.GLL, in *gps.Data) gps.Mask {
	mask := t.stamp(v.Time, in)
	if v.Validity != nmea.ValidGLL {
		return mask
	}
	if present(v.Fields, 0) && present(v.Fields, 2) {
		in.Fix.Latitude = v.Latitude
		in.Fix.Longitude = v.Longitude
		mask = mask.With(gps.LatLon)
	}
	return mask
}

func (t *Translator) vtg(v nmea.VTG, in *gps.Data) gps.Mask {
	var mask gps.Mask
	if present(v.Fields, 0) {
		in.Fix.Track = normTrack(v.TrueTrack)
		mask = mask.With(gps.Track)
	}
	switch {
	case present(v.Fields, 4):
		in.Fix.Speed = v.GroundSpeedKnots * knotsToMPS
		mask = mask.With(gps.Speed)
	case present(v.Fields, 6):
		in.Fix.Speed = v.GroundSpeedKPH * kphToMPS
		mask = mask.With(gps.Speed)
	}
	return mask
}

func (t *Translator) gsa(v nmea.GSA, in *gps.Data) gps.Mask {
	mask := gps.MaskOf(gps.Mode)
	switch v.FixType {
	case nmea.Fix3D:
		in.Fix.Mode = gps.Mode3D
	case nmea.Fix2D:
		in.Fix.Mode = gps.Mode2D
	default:
		in.Fix.Mode = gps.ModeNoFix
	}

	in.DOP.P = dop(v.Fields, 14, v.PDOP)
	in.DOP.H = dop(v.Fields, 15, v.HDOP)
	in.DOP.V = dop(v.Fields, 16, v.VDOP)
	if !math.IsNaN(in.DOP.P) || !math.IsNaN(in.DOP.H) || !math.IsNaN(in.DOP.V) {
		mask = mask.With(gps.DOP)
	}

	t.used = make(map[int]bool, len(v.SV))
	for _, sv := range v.SV {
		if prn, err := strconv.Atoi(strings.TrimSpace(sv)); err == nil && prn > 0 {
			t.used[prn] = true
		}
	}
	if t.haveSky {
		in.Sky = t.markUsed(t.sky)
		mask = mask.With(gps.SatelliteSet)
	}
	return mask
}

func normTrack(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func dop(fields []string, i int, v float64) float64 {
	if !present(fields, i) {
		return math.NaN()
	}
	return v
}

func (t *Translator) markUsed(s gps.Skyview) gps.Skyview {
	for i := range s.Channels() {
		s.Satellites[i].Used = t.used[s.Satellites[i].PRN]
	}
	return s
}

func (t *Translator) gsv(v nmea.GSV, in *gps.Data) gps.Mask {
	if v.MessageNumber == 1 {
		t.pending.Clear()
	}
	for i, info := range v.Info {
		sat := gps.Satellite{
			PRN:       int(info.SVPRNNumber),
			Elevation: int(info.Elevation),
			Azimuth:   int(info.Azimuth),
			SS:        math.NaN(),
		}
		if present(v.Fields, 3+4*i+3) {
			sat.SS = float64(info.SNR)
		}
		if sat.PRN == 0 {
			continue
		}
		t.pending.Add(sat)
	}
	if v.MessageNumber != v.TotalMessages {
		return 0
	}
	t.sky = t.pending
	t.sky.Time = in.Fix.Time
	if t.date.year != 0 {
		t.sky.Time = timeutil.FromCivil(t.date.year, t.date.month, t.date.day, 0, 0, t.lastTOD)
	}
	t.haveSky = true
	t.pending.Clear()
	in.Sky = t.markUsed(t.sky)
	return gps.MaskOf(gps.SatelliteSet)
}

func (t *Translator) gst(v GST, in *gps.Data) gps.Mask {
	t.stamp(v.Time, in)
	r := gps.GSTReport{
		Time:        in.Fix.Time,
		RMS:         dop(v.Fields, 1, v.RMS),
		Major:       dop(v.Fields, 2, v.EllipseMajor),
		Minor:       dop(v.Fields, 3, v.EllipseMinor),
		Orientation: dop(v.Fields, 4, v.EllipseOrientation),
		Lat:         dop(v.Fields, 5, v.LatitudeError),
		Lon:         dop(v.Fields, 6, v.LongitudeError),
		Alt:         dop(v.Fields, 7, v.AltitudeError),
	}
	in.Fix.Time = math.NaN()
	in.Report = r
	return gps.MaskOf(gps.GST)
}
