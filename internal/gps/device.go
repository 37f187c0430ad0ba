package gps

import (
	"math"
	"unicode/utf8"
)

// String capacities, in bytes.
const (
	PathMax     = 64
	DriverMax   = 64
	TagMax      = 8
	ErrorMax    = 256
	VersionMax  = 64
	MaxUserDevs = 4
)

// DeviceConfig.Flags bits: which kinds of data a device has produced.
const (
	SeenGPS   = 0x01
	SeenRTCM2 = 0x02
	SeenRTCM3 = 0x04
	SeenAIS   = 0x08
)

// Driver modes.
const (
	DriverModeText   = 0
	DriverModeNative = 1
)

// DeviceConfig describes the receiver that shipped the last update.
type DeviceConfig struct {
	Path       string
	Flags      int
	Driver     string
	Subtype    string
	Activated  float64
	Baudrate   int
	Stopbits   int
	Parity     byte // 'N', 'O' or 'E'
	Cycle      float64
	Mincycle   float64
	DriverMode int
}

func (c *DeviceConfig) Clear() {
	*c = DeviceConfig{Activated: math.NaN(), Cycle: math.NaN(), Mincycle: math.NaN()}
}

// Bound truncates the string fields to their capacities.
func (c *DeviceConfig) Bound() {
	c.Path = Truncate(c.Path, PathMax)
	c.Driver = Truncate(c.Driver, DriverMax)
	c.Subtype = Truncate(c.Subtype, DriverMax)
}

// Policy is a client's streaming request. It shapes encoding only.
type Policy struct {
	Watcher bool
	JSON    bool
	NMEA    bool
	Raw     int
	Scaled  bool
	Timing  bool
	Devpath string
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	i := max
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}
