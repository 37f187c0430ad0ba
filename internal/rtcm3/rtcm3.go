// Package rtcm3 decodes RTCM 10403 version 3 messages.
//
// Decode takes a complete frame: 0xD3 preamble, 6 reserved bits, a 10-bit
// payload length, the payload and (optionally) the CRC-24Q, which the framer
// has already checked.
package rtcm3

import (
	"math"

	"gpsd-ng/internal/bits"
)

const protocol = "rtcm3"

const (
	Preamble      = 0xD3
	MaxSatellites = 64
	MaxDescriptor = 31
	MaxAnnounce   = 32
	MaxText       = 128

	headerBytes = 3
)

// Scale factors.
const (
	PseudorangeRes   = 0.02
	PhaseRangeRes    = 0.0005
	CNRRes           = 0.25
	LightMs          = 299792.458
	GLONASSRangeUnit = 599584.916
	AntennaRes       = 0.0001
	AuxLatLonRes     = 25e-6
	AuxAltRes        = 0.001
	NetworkDiffRes   = 0.0005
	AnnounceRes      = 0.1
	NetworkTOWRes    = 0.1
)

// Sentinels.
const (
	PhaseDiffInvalid bits.Sentinel = -0x80000
	L2RangeInvalid   bits.Sentinel = -0x2000
	CNRNotComputed   bits.Sentinel = 0
)

// NavSystem is the constellation an antenna reference applies to.
type NavSystem int

const (
	NavSystemGPS NavSystem = iota
	NavSystemGLONASS
	NavSystemGalileo
	NavSystemUnknown
)

// Ambiguity is the network RTK ambiguity status.
type Ambiguity int

const (
	AmbiguityReserved Ambiguity = iota
	AmbiguityCorrect
	AmbiguityWidelane
	AmbiguityUncertain
)

// Message is one decoded RTCM3 message. One payload field is set, chosen
// by Type; types without a decoder keep their payload bytes in Data.
type Message struct {
	Type   int `json:"type"`
	Length int `json:"length"`

	Observations     *Observations       `json:"observations,omitempty"`
	Reference        *AntennaReference   `json:"reference,omitempty"`
	Descriptor       *AntennaDescriptor  `json:"descriptor,omitempty"`
	Params           *SystemParams       `json:"params,omitempty"`
	Auxiliary        *NetworkAux         `json:"auxiliary,omitempty"`
	Corrections      *NetworkCorrections `json:"corrections,omitempty"`
	GPSEphemeris     *GPSEphemeris       `json:"gps_ephemeris,omitempty"`
	GLONASSEphemeris *GLONASSEphemeris   `json:"glonass_ephemeris,omitempty"`
	Text             *Text               `json:"text,omitempty"`
	Data             []byte              `json:"data,omitempty"`
}

// RTKHeader is the common observation header.
type RTKHeader struct {
	StationID int     `json:"station_id"`
	TOW       float64 `json:"tow"`
	Sync      bool    `json:"sync"`
	Satcount  int     `json:"satcount"`
	Smoothing bool    `json:"smoothing"`
	Interval  int     `json:"interval"`
}

// Observations holds messages 1001-1004 and 1009-1012.
type Observations struct {
	Header   RTKHeader `json:"header"`
	GLONASS  bool      `json:"glonass"`
	Extended bool      `json:"extended"`
	Sats     []ObsSat  `json:"satellites"`
}

// ObsSat is one satellite's observation entry. L2 is nil for L1-only types.
type ObsSat struct {
	Ident   int  `json:"ident"`
	Channel int  `json:"channel,omitempty"`
	L1      Obs  `json:"L1"`
	L2      *Obs `json:"L2,omitempty"`
}

// Obs is one frequency's observables. Ambiguity and CNR are only carried by
// the extended types; in basic types CNR is NaN. For L2 the pseudorange is
// the L2-L1 difference.
type Obs struct {
	Indicator   int     `json:"indicator"`
	Pseudorange float64 `json:"pseudorange"`
	RangeDiff   float64 `json:"rangediff"`
	Locktime    int     `json:"locktime"`
	Ambiguity   int     `json:"ambiguity,omitempty"`
	CNR         float64 `json:"CNR"`
}

// AntennaReference holds messages 1005 and 1006. Height is NaN for 1005.
type AntennaReference struct {
	StationID      int       `json:"station_id"`
	System         NavSystem `json:"system"`
	RefStation     bool      `json:"refstation"`
	SingleReceiver bool      `json:"sro"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	Z              float64   `json:"z"`
	Height         float64   `json:"h"`
}

// AntennaDescriptor holds messages 1007 and 1008.
type AntennaDescriptor struct {
	StationID  int    `json:"station_id"`
	Descriptor string `json:"desc"`
	SetupID    int    `json:"setup_id"`
	Serial     string `json:"serial,omitempty"`
}

// SystemParams holds message 1013.
type SystemParams struct {
	StationID     int            `json:"station_id"`
	MJD           int            `json:"mjd"`
	SOD           int            `json:"sod"`
	LeapSecs      int            `json:"leapsecs"`
	Announcements []Announcement `json:"announcements"`
}

// Announcement is one scheduled message entry of 1013.
type Announcement struct {
	ID       int     `json:"id"`
	Sync     bool    `json:"sync"`
	Interval float64 `json:"interval"`
}

// NetworkAux holds message 1014.
type NetworkAux struct {
	NetworkID    int     `json:"network_id"`
	SubnetworkID int     `json:"subnetwork_id"`
	StationCount int     `json:"stationcount"`
	MasterID     int     `json:"master_id"`
	AuxID        int     `json:"aux_id"`
	DLat         float64 `json:"d_lat"`
	DLon         float64 `json:"d_lon"`
	DAlt         float64 `json:"d_alt"`
}

// NetworkCorrections holds messages 1015-1017. IonosphericDiff is NaN in
// 1016; GeometricDiff and IODE are unset in 1015.
type NetworkCorrections struct {
	NetworkID    int            `json:"network_id"`
	SubnetworkID int            `json:"subnetwork_id"`
	TOW          float64        `json:"tow"`
	MultiMessage bool           `json:"multimesg"`
	MasterID     int            `json:"master_id"`
	AuxID        int            `json:"aux_id"`
	Sats         []NetworkDelta `json:"satellites"`
}

// NetworkDelta is one satellite's correction difference.
type NetworkDelta struct {
	Ident           int       `json:"ident"`
	Ambiguity       Ambiguity `json:"ambiguity"`
	NonSync         int       `json:"nonsync"`
	GeometricDiff   float64   `json:"geometric_diff"`
	IODE            int       `json:"iode"`
	IonosphericDiff float64   `json:"ionospheric_diff"`
}

// Text holds message 1029.
type Text struct {
	StationID    int    `json:"station_id"`
	MJD          int    `json:"mjd"`
	SOD          int    `json:"sod"`
	UnicodeUnits int    `json:"unicode_units"`
	Text         string `json:"text"`
}

// Decode unpacks one RTCM3 frame.
func Decode(frame []byte) (*Message, error) {
	if len(frame) < headerBytes {
		return nil, bits.Errorf(protocol, len(frame)*8, bits.ErrTruncated, "frame header needs %d bytes", headerBytes)
	}
	if frame[0] != Preamble {
		return nil, bits.Errorf(protocol, 0, bits.ErrBadPreamble, "got 0x%02x", frame[0])
	}
	length := int(bits.UBits(frame, 14, 10))
	if length < 2 {
		return nil, bits.Errorf(protocol, 14, bits.ErrBadLength, "payload length %d", length)
	}
	if headerBytes+length > len(frame) {
		return nil, bits.Errorf(protocol, len(frame)*8, bits.ErrTruncated, "payload length %d, have %d bytes", length, len(frame)-headerBytes)
	}
	payload := frame[headerBytes : headerBytes+length]
	c := newCursor(payload, 0)
	m := &Message{Type: c.i(12), Length: length}

	switch m.Type {
	case 1001, 1002, 1003, 1004, 1009, 1010, 1011, 1012:
		m.Observations = decodeObservations(c, m.Type)
	case 1005, 1006:
		m.Reference = decodeReference(c, m.Type == 1006)
	case 1007, 1008:
		m.Descriptor = decodeDescriptor(c, m.Type == 1008)
	case 1013:
		m.Params = decodeParams(c)
	case 1014:
		m.Auxiliary = &NetworkAux{
			NetworkID:    c.i(8),
			SubnetworkID: c.i(4),
			StationCount: c.i(5),
			MasterID:     c.i(12),
			AuxID:        c.i(12),
			DLat:         float64(c.s(20)) * AuxLatLonRes,
			DLon:         float64(c.s(21)) * AuxLatLonRes,
			DAlt:         float64(c.s(23)) * AuxAltRes,
		}
	case 1015, 1016, 1017:
		m.Corrections = decodeCorrections(c, m.Type)
	case 1019:
		m.GPSEphemeris = decodeGPSEphemeris(c)
	case 1020:
		m.GLONASSEphemeris = decodeGLONASSEphemeris(c)
	case 1029:
		m.Text = decodeText(c)
	default:
		m.Data = append([]byte(nil), payload...)
	}
	if c.err != nil {
		return nil, c.err
	}
	return m, nil
}

type obsShape struct {
	glonass  bool
	extended bool
	dual     bool
}

var obsShapes = map[int]obsShape{
	1001: {},
	1002: {extended: true},
	1003: {dual: true},
	1004: {extended: true, dual: true},
	1009: {glonass: true},
	1010: {glonass: true, extended: true},
	1011: {glonass: true, dual: true},
	1012: {glonass: true, extended: true, dual: true},
}

func decodeObservations(c *cursor, msgType int) *Observations {
	shape := obsShapes[msgType]
	o := &Observations{GLONASS: shape.glonass, Extended: shape.extended}
	o.Header.StationID = c.i(12)
	if shape.glonass {
		o.Header.TOW = float64(c.u(27)) * 0.001
	} else {
		o.Header.TOW = float64(c.u(30)) * 0.001
	}
	o.Header.Sync = c.b()
	o.Header.Satcount = c.i(5)
	o.Header.Smoothing = c.b()
	o.Header.Interval = c.i(3)

	n := o.Header.Satcount
	if n > MaxSatellites {
		n = MaxSatellites
	}
	o.Sats = make([]ObsSat, 0, n)
	for k := 0; k < n && c.err == nil; k++ {
		var s ObsSat
		s.Ident = c.i(6)
		s.L1.Indicator = c.i(1)
		if shape.glonass {
			s.Channel = c.i(5)
			s.L1.Pseudorange = float64(c.u(25)) * PseudorangeRes
		} else {
			s.L1.Pseudorange = float64(c.u(24)) * PseudorangeRes
		}
		s.L1.RangeDiff = PhaseDiffInvalid.Float(c.s(20), PhaseRangeRes)
		s.L1.Locktime = c.i(7)
		s.L1.CNR = math.NaN()
		if shape.extended {
			if shape.glonass {
				s.L1.Ambiguity = c.i(7)
			} else {
				s.L1.Ambiguity = c.i(8)
			}
			s.L1.CNR = CNRNotComputed.Float(c.u(8), CNRRes)
		}
		if shape.dual {
			l2 := &Obs{CNR: math.NaN()}
			l2.Indicator = c.i(2)
			l2.Pseudorange = L2RangeInvalid.Float(c.s(14), PseudorangeRes)
			l2.RangeDiff = PhaseDiffInvalid.Float(c.s(20), PhaseRangeRes)
			l2.Locktime = c.i(7)
			if shape.extended {
				l2.CNR = CNRNotComputed.Float(c.u(8), CNRRes)
			}
			s.L2 = l2
		}
		o.Sats = append(o.Sats, s)
	}
	return o
}

func decodeReference(c *cursor, withHeight bool) *AntennaReference {
	r := &AntennaReference{StationID: c.i(12), Height: math.NaN()}
	c.skip(6) // ITRF realization year
	gps, glonass, galileo := c.b(), c.b(), c.b()
	switch {
	case gps:
		r.System = NavSystemGPS
	case glonass:
		r.System = NavSystemGLONASS
	case galileo:
		r.System = NavSystemGalileo
	default:
		r.System = NavSystemUnknown
	}
	r.RefStation = c.b()
	r.X = float64(c.s(38)) * AntennaRes
	r.SingleReceiver = c.b()
	c.skip(1)
	r.Y = float64(c.s(38)) * AntennaRes
	c.skip(2)
	r.Z = float64(c.s(38)) * AntennaRes
	if withHeight {
		r.Height = float64(c.u(16)) * AntennaRes
	}
	return r
}

func decodeDescriptor(c *cursor, withSerial bool) *AntennaDescriptor {
	d := &AntennaDescriptor{StationID: c.i(12)}
	d.Descriptor = c.str(c.i(8), MaxDescriptor)
	d.SetupID = c.i(8)
	if withSerial {
		d.Serial = c.str(c.i(8), MaxDescriptor)
	}
	return d
}

func decodeParams(c *cursor) *SystemParams {
	p := &SystemParams{StationID: c.i(12), MJD: c.i(16), SOD: c.i(17)}
	n := c.i(5)
	p.LeapSecs = c.i(8)
	if n > MaxAnnounce {
		n = MaxAnnounce
	}
	for k := 0; k < n && c.err == nil; k++ {
		p.Announcements = append(p.Announcements, Announcement{
			ID:       c.i(12),
			Sync:     c.b(),
			Interval: float64(c.u(16)) * AnnounceRes,
		})
	}
	return p
}

func decodeCorrections(c *cursor, msgType int) *NetworkCorrections {
	nc := &NetworkCorrections{
		NetworkID:    c.i(8),
		SubnetworkID: c.i(4),
		TOW:          float64(c.u(23)) * NetworkTOWRes,
		MultiMessage: c.b(),
		MasterID:     c.i(12),
		AuxID:        c.i(12),
	}
	n := c.i(4)
	for k := 0; k < n && c.err == nil; k++ {
		d := NetworkDelta{
			Ident:           c.i(6),
			Ambiguity:       Ambiguity(c.i(2)),
			NonSync:         c.i(3),
			GeometricDiff:   math.NaN(),
			IonosphericDiff: math.NaN(),
		}
		if msgType == 1015 {
			d.IonosphericDiff = float64(c.s(17)) * NetworkDiffRes
		} else {
			d.GeometricDiff = float64(c.s(17)) * NetworkDiffRes
			d.IODE = c.i(8)
			if msgType == 1017 {
				d.IonosphericDiff = float64(c.s(17)) * NetworkDiffRes
			}
		}
		nc.Sats = append(nc.Sats, d)
	}
	return nc
}

func decodeText(c *cursor) *Text {
	t := &Text{StationID: c.i(12), MJD: c.i(16), SOD: c.i(17)}
	c.skip(7) // characters
	t.UnicodeUnits = c.i(8)
	t.Text = c.str(t.UnicodeUnits, MaxText)
	return t
}
