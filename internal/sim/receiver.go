// Package sim stands in for a GPS receiver: it flies a deterministic
// figure-eight and reports it as NMEA sentences.
package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"gpsd-ng/internal/geodesy"
	"gpsd-ng/internal/ingest"
)

const knotsPerMPS = 1 / 0.514444

type Receiver struct {
	CenterLatDeg float64
	CenterLonDeg float64
	AltMeters    float64
	RadiusMeters float64
	Period       time.Duration
	// Talker is the sentence prefix, "GP" when empty.
	Talker string
}

func (s Receiver) withDefaults() Receiver {
	if s.Period <= 0 {
		s.Period = 120 * time.Second
	}
	if s.RadiusMeters <= 0 {
		s.RadiusMeters = 1000
	}
	if s.Talker == "" {
		s.Talker = "GP"
	}
	return s
}

// Position returns the point on the track at now with its course over
// ground and speed in knots.
func (s Receiver) Position(now time.Time) (latDeg, lonDeg, trackDeg, speedKt float64) {
	s = s.withDefaults()

	// Meters per degree of latitude at the center.
	mPerDeg := geodesy.RadiusAt(s.CenterLatDeg) * math.Pi / 180
	radiusDeg := s.RadiusMeters / mPerDeg
	cosLat := math.Cos(s.CenterLatDeg * math.Pi / 180)

	phase := float64(now.UnixNano()%s.Period.Nanoseconds()) / float64(s.Period.Nanoseconds())

	// A figure-eight (Lissajous) path that stays within the radius:
	//	  x = cos(2πt)
	//	  y = 0.5*sin(4πt)
	w := 2 * math.Pi * phase
	x := math.Cos(w)
	y := 0.5 * math.Sin(2*w)

	latDeg = s.CenterLatDeg + radiusDeg*y
	lonDeg = s.CenterLonDeg + radiusDeg*x/cosLat

	// Velocity in radius units per unit phase.
	vx := -2 * math.Pi * math.Sin(w)
	vy := 2 * math.Pi * math.Cos(2*w)
	trackDeg = math.Mod(math.Atan2(vx, vy)*180/math.Pi+360, 360)
	mps := math.Hypot(vx, vy) * s.RadiusMeters / s.Period.Seconds()
	return latDeg, lonDeg, trackDeg, mps * knotsPerMPS
}

// Frames returns the RMC, GGA and GSA sentences a receiver would send at now.
func (s Receiver) Frames(now time.Time) []ingest.Frame {
	s = s.withDefaults()
	now = now.UTC()
	lat, lon, track, speed := s.Position(now)

	hms := fmt.Sprintf("%02d%02d%02d.%02d", now.Hour(), now.Minute(), now.Second(), now.Nanosecond()/1e7)
	latS, ns := coord(lat, 2, "N", "S")
	lonS, ew := coord(lon, 3, "E", "W")

	rmc := fmt.Sprintf("%sRMC,%s,A,%s,%s,%s,%s,%.1f,%.1f,%02d%02d%02d,,,A",
		s.Talker, hms, latS, ns, lonS, ew, speed, track, now.Day(), int(now.Month()), now.Year()%100)
	gga := fmt.Sprintf("%sGGA,%s,%s,%s,%s,%s,1,08,0.9,%.1f,M,0.0,M,,",
		s.Talker, hms, latS, ns, lonS, ew, s.AltMeters)
	gsa := s.Talker + "GSA,A,3,04,05,09,12,17,25,,,,,,,1.8,0.9,1.5"
	return []ingest.Frame{sentence(rmc), sentence(gga), sentence(gsa)}
}

// Run emits Frames every interval until ctx is done or cb fails.
func (s Receiver) Run(ctx context.Context, interval time.Duration, cb func(ingest.Frame) error) error {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			for _, f := range s.Frames(now) {
				if err := cb(f); err != nil {
					return err
				}
			}
		}
	}
}

// coord formats degrees as NMEA d..dmm.mmmm with its hemisphere.
func coord(deg float64, width int, pos, neg string) (string, string) {
	hemi := pos
	if deg < 0 {
		hemi = neg
		deg = -deg
	}
	d := math.Floor(deg)
	m := (deg - d) * 60
	if math.Round(m*1e4) >= 60e4 {
		d++
		m = 0
	}
	return fmt.Sprintf("%0*d%07.4f", width, int(d), m), hemi
}

func sentence(payload string) ingest.Frame {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return ingest.Frame{Protocol: ingest.NMEA, Data: []byte(fmt.Sprintf("$%s*%02X", payload, ck))}
}
