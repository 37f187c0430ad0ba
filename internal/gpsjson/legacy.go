package gpsjson

import (
	"fmt"
	"math"
	"strings"

	"gpsd-ng/internal/gps"
)

// legacyNum formats v, or "?" when it is unavailable or its group is not set.
func legacyNum(mask gps.Mask, f gps.Field, format string, v float64) string {
	if !mask.Has(f) {
		return "?"
	}
	return legacyFloat(format, v)
}

func legacyFloat(format string, v float64) string {
	if math.IsNaN(v) {
		return "?"
	}
	return fmt.Sprintf(format, v)
}

func legacyTag(d *gps.Data) string {
	if d.Tag == "" {
		return "?"
	}
	return d.Tag
}

// legacyO renders the pre-JSON "O" report. Without a 2D fix it is "GPSD,O=?".
func legacyO(d *gps.Data, mask gps.Mask) []byte {
	f := &d.Fix
	if f.Mode < gps.Mode2D {
		return []byte("GPSD,O=?")
	}
	fields := []string{
		legacyTag(d),
		legacyNum(mask, gps.Time, "%.3f", f.Time),
		legacyNum(mask, gps.TimeErr, "%.3f", f.Ept),
		legacyNum(mask, gps.LatLon, "%.9f", f.Latitude),
		legacyNum(mask, gps.LatLon, "%.9f", f.Longitude),
		legacyNum(mask, gps.Altitude, "%.2f", f.Altitude),
		legacyNum(mask, gps.HErr, "%.2f", f.Eph()),
		legacyNum(mask, gps.VErr, "%.2f", f.Epv),
		legacyNum(mask, gps.Track, "%.4f", f.Track),
		legacyNum(mask, gps.Speed, "%.3f", f.Speed),
		legacyNum(mask, gps.Climb, "%.3f", f.Climb),
		legacyNum(mask, gps.TrackErr, "%.4f", f.Epd),
		legacyNum(mask, gps.SpeedErr, "%.2f", f.Eps),
		legacyNum(mask, gps.ClimbErr, "%.2f", f.Epc),
		fmt.Sprintf("%d", f.Mode),
	}
	return []byte("GPSD,O=" + strings.Join(fields, " "))
}

// legacyY renders the pre-JSON "Y" skyview report.
func legacyY(d *gps.Data) []byte {
	var sb strings.Builder
	sb.WriteString("GPSD,Y=")
	sb.WriteString(legacyTag(d))
	sb.WriteByte(' ')
	sb.WriteString(legacyFloat("%.3f", d.Sky.Time))
	fmt.Fprintf(&sb, " %d:", d.Sky.Visible)
	for _, s := range d.Sky.Channels() {
		used := 0
		if s.Used {
			used = 1
		}
		ss := 0.0
		if !math.IsNaN(s.SS) {
			ss = s.SS
		}
		fmt.Fprintf(&sb, "%d %d %d %.0f %d:", s.PRN, s.Elevation, s.Azimuth, ss, used)
	}
	return []byte(sb.String())
}
