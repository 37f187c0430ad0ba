package gps

import (
	"math/bits"
	"strings"
)

// Field names one field group of Data. Values are bit positions in Mask.
type Field uint

const (
	Online       Field = 1
	Time         Field = 2
	TimeErr      Field = 3
	LatLon       Field = 4
	Altitude     Field = 5
	Speed        Field = 6
	Track        Field = 7
	Climb        Field = 8
	Status       Field = 9
	Mode         Field = 10
	DOP          Field = 11
	HErr         Field = 12
	VErr         Field = 13
	Attitude     Field = 14
	SatelliteSet Field = 15
	SpeedErr     Field = 16
	TrackErr     Field = 17
	ClimbErr     Field = 18
	Device       Field = 19
	DeviceList   Field = 20
	DeviceID     Field = 21
	RTCM2        Field = 22
	RTCM3        Field = 23
	AIS          Field = 24
	Packet       Field = 25
	Subframe     Field = 26
	GST          Field = 27
	Version      Field = 28
	PolicySet    Field = 29
	Error        Field = 30

	maxField = Error
)

var fieldNames = [...]string{
	Online:       "ONLINE",
	Time:         "TIME",
	TimeErr:      "TIMERR",
	LatLon:       "LATLON",
	Altitude:     "ALTITUDE",
	Speed:        "SPEED",
	Track:        "TRACK",
	Climb:        "CLIMB",
	Status:       "STATUS",
	Mode:         "MODE",
	DOP:          "DOP",
	HErr:         "HERR",
	VErr:         "VERR",
	Attitude:     "ATTITUDE",
	SatelliteSet: "SATELLITE",
	SpeedErr:     "SPEEDERR",
	TrackErr:     "TRACKERR",
	ClimbErr:     "CLIMBERR",
	Device:       "DEVICE",
	DeviceList:   "DEVICELIST",
	DeviceID:     "DEVICEID",
	RTCM2:        "RTCM2",
	RTCM3:        "RTCM3",
	AIS:          "AIS",
	Packet:       "PACKET",
	Subframe:     "SUBFRAME",
	GST:          "GST",
	Version:      "VERSION",
	PolicySet:    "POLICY",
	Error:        "ERROR",
}

func (f Field) String() string {
	if f >= 1 && f <= maxField {
		return fieldNames[f]
	}
	return "UNKNOWN"
}

// Mask returns the single-bit mask for f.
func (f Field) Mask() Mask { return Mask(1) << f }

// Mask is a set of field groups.
type Mask uint64

// AuxMask covers the groups that share the single auxiliary report slot.
const AuxMask = Mask(1)<<RTCM2 | Mask(1)<<RTCM3 | Mask(1)<<Subframe | Mask(1)<<AIS |
	Mask(1)<<Version | Mask(1)<<DeviceList | Mask(1)<<Error | Mask(1)<<GST

// MaskOf builds a mask from the given fields.
func MaskOf(fs ...Field) Mask {
	var m Mask
	for _, f := range fs {
		m |= f.Mask()
	}
	return m
}

func (m Mask) Has(f Field) bool         { return m&f.Mask() != 0 }
func (m Mask) With(fs ...Field) Mask    { return m | MaskOf(fs...) }
func (m Mask) Without(fs ...Field) Mask { return m &^ MaskOf(fs...) }
func (m Mask) Union(o Mask) Mask        { return m | o }
func (m Mask) Intersects(o Mask) bool   { return m&o != 0 }
func (m Mask) Aux() Mask                { return m & AuxMask }
func (m Mask) IsEmpty() bool            { return m == 0 }

// Fields lists the set groups in bit order.
func (m Mask) Fields() []Field {
	out := make([]Field, 0, bits.OnesCount64(uint64(m)))
	for f := Field(0); f < 64; f++ {
		if m&(Mask(1)<<f) != 0 {
			out = append(out, f)
		}
	}
	return out
}

// String renders the mask as "{TIME|LATLON}".
func (m Mask) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range m.Fields() {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(f.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
