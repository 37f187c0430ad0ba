// Package timeutil converts between civil UTC time, Unix seconds and ISO-8601.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Tm is a broken-down UTC time in C struct tm convention: Year counts from
// 1900 and Mon from 0. Out-of-range values normalise, so Mon 12 is January
// of the following year.
type Tm struct {
	Sec, Min, Hour int
	Mday           int
	Mon            int
	Year           int
}

// MkGmtime returns the Unix time of tm, read as UTC.
func MkGmtime(tm Tm) int64 {
	return time.Date(tm.Year+1900, time.Month(tm.Mon+1), tm.Mday, tm.Hour, tm.Min, tm.Sec, 0, time.UTC).Unix()
}

// FromCivil builds Unix seconds from a calendar date with 1-based month and a
// fractional second.
func FromCivil(year, month, day, hour, min int, sec float64) float64 {
	whole := math.Floor(sec)
	t := MkGmtime(Tm{Sec: int(whole), Min: min, Hour: hour, Mday: day, Mon: month - 1, Year: year - 1900})
	return float64(t) + (sec - whole)
}

// ISO8601ToUnix parses "2010-05-30T17:50:41.123Z". A missing zone means UTC.
func ISO8601ToUnix(s string) (float64, error) {
	s = strings.TrimSpace(s)
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixNano()) / 1e9, nil
		}
	}
	return math.NaN(), fmt.Errorf("timeutil: bad ISO-8601 time %q", s)
}

// UnixToISO8601 renders t with millisecond precision and a Z suffix.
func UnixToISO8601(t float64) string {
	if math.IsNaN(t) {
		return ""
	}
	whole := math.Floor(t)
	ms := math.Round((t - whole) * 1000)
	return time.Unix(int64(whole), int64(ms)*int64(time.Millisecond)).UTC().Format("2006-01-02T15:04:05.000Z")
}
