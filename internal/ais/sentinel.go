package ais

import "math"

// Reserved "not available" codes, as broadcast.
const (
	TurnNotAvailable    = -128 // 0x80 on the wire
	TurnHardLeft        = -127
	TurnHardRight       = 127
	SpeedNotAvailable   = 1023
	SpeedFastMover      = 1022
	CourseNotAvailable  = 3600
	HeadingNotAvailable = 511
	SecNotAvailable     = 60
	SecManual           = 61
	SecEstimated        = 62
	SecInoperative      = 63

	YearNotAvailable   = 0
	MonthNotAvailable  = 0
	DayNotAvailable    = 0
	HourNotAvailable   = 24
	MinuteNotAvailable = 60
	SecondNotAvailable = 60

	AltNotAvailable = 4095
	AltHigh         = 4094

	LatLonScale           = 600000
	LonNotAvailable       = 0x6791AC0 // 181 degrees
	LatNotAvailable       = 0x3412140 // 91 degrees
	CoarseLatLonScale     = 600
	CoarseLonNotAvailable = 0x1a838 // 181 degrees
	CoarseLatNotAvailable = 0xd548  // 91 degrees

	Type27SpeedNotAvailable  = 63
	Type27CourseNotAvailable = 511

	ShipNameMaxLen = 20
)

// Lon is a longitude in 1/10000 minute.
type Lon int32

// Available reports whether the longitude was broadcast.
func (v Lon) Available() bool { return v != LonNotAvailable }

// Physical returns degrees.
func (v Lon) Physical() (float64, bool) { return float64(v) / LatLonScale, v.Available() }

// Lat is a latitude in 1/10000 minute.
type Lat int32

func (v Lat) Available() bool           { return v != LatNotAvailable }
func (v Lat) Physical() (float64, bool) { return float64(v) / LatLonScale, v.Available() }

// CoarseLon is a longitude in 1/10 minute (types 17, 22, 23, 27).
type CoarseLon int32

func (v CoarseLon) Available() bool           { return v != CoarseLonNotAvailable }
func (v CoarseLon) Physical() (float64, bool) { return float64(v) / CoarseLatLonScale, v.Available() }

// CoarseLat is a latitude in 1/10 minute.
type CoarseLat int32

func (v CoarseLat) Available() bool           { return v != CoarseLatNotAvailable }
func (v CoarseLat) Physical() (float64, bool) { return float64(v) / CoarseLatLonScale, v.Available() }

// Speed is speed over ground in 1/10 knot.
type Speed uint16

func (v Speed) Available() bool { return v != SpeedNotAvailable }

// Physical returns knots.
func (v Speed) Physical() (float64, bool) { return float64(v) / 10, v.Available() }

// Course is course over ground in 1/10 degree.
type Course uint16

func (v Course) Available() bool           { return v != CourseNotAvailable }
func (v Course) Physical() (float64, bool) { return float64(v) / 10, v.Available() }

// Heading is true heading in degrees.
type Heading uint16

func (v Heading) Available() bool           { return v != HeadingNotAvailable }
func (v Heading) Physical() (float64, bool) { return float64(v), v.Available() }

// Turn is the encoded rate of turn, 4.733*sqrt(deg/min).
type Turn int8

// Available reports whether a turn rate is known. Hard left and hard right
// are available but carry no magnitude.
func (v Turn) Available() bool { return v != TurnNotAvailable }

// Physical returns degrees per minute. Hard turns report NaN.
func (v Turn) Physical() (float64, bool) {
	if !v.Available() || v == TurnHardLeft || v == TurnHardRight {
		return math.NaN(), false
	}
	r := float64(v) / 4.733
	return math.Copysign(r*r, r), true
}

// Second is the UTC second of the report; 60-63 are reserved codes.
type Second uint8

func (v Second) Available() bool           { return v < SecNotAvailable }
func (v Second) Physical() (float64, bool) { return float64(v), v.Available() }

// Altitude is a SAR aircraft altitude in meters.
type Altitude uint16

func (v Altitude) Available() bool           { return v != AltNotAvailable }
func (v Altitude) Physical() (float64, bool) { return float64(v), v.Available() }

// IsAuxiliaryMMSI reports whether mmsi belongs to an auxiliary craft
// associated with a parent ship.
func IsAuxiliaryMMSI(mmsi uint32) bool { return mmsi/10000000 == 98 }
