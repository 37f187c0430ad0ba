// Package rtcm2 decodes RTCM-104 version 2 differential correction messages.
//
// A message arrives as a sequence of 30-bit words (24 data bits followed by 6
// parity bits), each stored right-aligned in a big-endian 32-bit slot. Parity
// is checked by the framer; this package only looks at the data bits.
package rtcm2

import (
	"encoding/binary"
	"math"
	"strings"

	"gpsd-ng/internal/bits"
)

const protocol = "rtcm2"

const (
	Preamble       = 0x66
	WordsMax       = 33
	MaxCorrections = 18
	MaxHealth      = 31
	MaxStations    = 10

	// Data bits per 30-bit word.
	wordBits = 24
	bodyBit  = 2 * wordBits
)

// Scale factors from RTCM 10402.3.
const (
	ZCountScale   = 0.6
	PCSmall       = 0.02
	PCLarge       = 0.32
	RRSmall       = 0.002
	RRLarge       = 0.032
	XYZScale      = 0.01
	DXYZScale     = 0.1
	LatScale      = 90.0 / 32767.0
	LonScale      = 180.0 / 32767.0
	FreqScale     = 0.1
	FreqOffset    = 190.0
	CNROffset     = 24
	TimeUnhealthy = 600
)

// Sentinels.
const (
	PRCNotAvailable bits.Sentinel = -32768
	RRCNotAvailable bits.Sentinel = -128
	SNRBad                        = -1
)

// NavSystem identifies the reference datum's navigation system.
type NavSystem int

const (
	NavSystemGPS NavSystem = iota
	NavSystemGLONASS
	NavSystemGalileo
	NavSystemUnknown
)

// Sense is the datum sense of a type 4 message.
type Sense int

const (
	SenseInvalid Sense = iota
	SenseGlobal
	SenseLocal
)

// Health is a 2-bit radiobeacon health code.
type Health int

const (
	HealthNormal Health = iota
	HealthUnmonitored
	HealthNoInfo
	HealthDoNotUse
)

var beaconBitrates = [8]int{25, 50, 100, 110, 150, 200, 250, 300}

// Message is one decoded RTCM2 message. Exactly one payload field is set,
// chosen by Type; unknown types keep their raw words.
type Message struct {
	Type          int     `json:"type"`
	Length        int     `json:"length"`
	StationID     int     `json:"station_id"`
	ZCount        float64 `json:"zcount"`
	SeqNum        int     `json:"seqnum"`
	StationHealth int     `json:"station_health"`

	Ranges    []RangeSat  `json:"ranges,omitempty"`
	ECEF      *ECEF       `json:"ecef,omitempty"`
	Reference *Reference  `json:"reference,omitempty"`
	Health    []ConHealth `json:"health,omitempty"`
	Almanac   []Station   `json:"almanac,omitempty"`
	Xmitter   *Xmitter    `json:"xmitter,omitempty"`
	GPSTime   *GPSTime    `json:"gpstime,omitempty"`
	Text      *string     `json:"message,omitempty"`
	Words     []uint32    `json:"words,omitempty"`
}

// RangeSat is one pseudorange correction (types 1 and 9). RangeErr and
// RangeRate are NaN when the satellite is flagged as having a problem.
type RangeSat struct {
	Ident     int     `json:"ident"`
	UDRE      int     `json:"udre"`
	IssueData int     `json:"iod"`
	RangeErr  float64 `json:"prc"`
	RangeRate float64 `json:"rrc"`
}

// ECEF is the reference station position (type 3), meters.
type ECEF struct {
	Valid bool    `json:"valid"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// Reference is the reference datum (type 4). DX, DY and DZ are NaN when the
// message carries only the datum name.
type Reference struct {
	Valid  bool      `json:"valid"`
	System NavSystem `json:"system"`
	Sense  Sense     `json:"sense"`
	Datum  string    `json:"datum"`
	DX     float64   `json:"dx"`
	DY     float64   `json:"dy"`
	DZ     float64   `json:"dz"`
}

// ConHealth is one constellation health entry (type 5).
type ConHealth struct {
	Ident      int  `json:"ident"`
	IODL       bool `json:"iodl"`
	Health     int  `json:"health"`
	SNR        int  `json:"snr"`
	HealthEn   bool `json:"health_en"`
	NewData    bool `json:"new_data"`
	LOSWarning bool `json:"los_warning"`
	TOU        int  `json:"tou"`
}

// Station is one radiobeacon almanac entry (type 7).
type Station struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Range     int     `json:"range"`
	Frequency float64 `json:"frequency"`
	Health    Health  `json:"health"`
	StationID int     `json:"station_id"`
	Bitrate   int     `json:"bitrate"`
}

// Xmitter is the GPS transmitter parameter block (type 13).
type Xmitter struct {
	Status    bool    `json:"status"`
	RangeFlag bool    `json:"rangeflag"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Range     int     `json:"range"`
}

// GPSTime is the GPS time of week block (type 14).
type GPSTime struct {
	Week     int `json:"week"`
	Hour     int `json:"hour"`
	LeapSecs int `json:"leapsecs"`
}

var (
	hdrPreamble = bits.U(0, 8)
	hdrType     = bits.U(8, 6)
	hdrStation  = bits.U(14, 10)
	hdrZCount   = bits.U(24, 13).Scaled(ZCountScale)
	hdrSeq      = bits.U(37, 3)
	hdrLength   = bits.U(40, 5)
	hdrHealth   = bits.U(45, 3)
)

// Per-satellite correction layout, 40 bits per entry.
const rangeStride = 40

var (
	rngScale = bits.U(0, 1)
	rngUDRE  = bits.U(1, 2)
	rngIdent = bits.U(3, 5)
	rngPRC   = bits.S(8, 16)
	rngRRC   = bits.S(24, 8)
	rngIOD   = bits.U(32, 8)
)

var (
	ecefX = bits.S(bodyBit, 32).Scaled(XYZScale)
	ecefY = bits.S(bodyBit+32, 32).Scaled(XYZScale)
	ecefZ = bits.S(bodyBit+64, 32).Scaled(XYZScale)
)

var (
	refSystem = bits.U(bodyBit, 3)
	refSense  = bits.U(bodyBit+3, 1)
	refDatum  = [5]bits.Field{bits.U(bodyBit+8, 8), bits.U(bodyBit+16, 8), bits.U(bodyBit+24, 8), bits.U(bodyBit+32, 8), bits.U(bodyBit+40, 8)}
	refDX     = bits.S(bodyBit+48, 16).Scaled(DXYZScale)
	refDY     = bits.S(bodyBit+64, 16).Scaled(DXYZScale)
	refDZ     = bits.S(bodyBit+80, 16).Scaled(DXYZScale)
)

// Constellation health: one word per satellite.
var (
	chIdent    = bits.U(1, 5)
	chIODL     = bits.U(6, 1)
	chHealth   = bits.U(7, 3)
	chCN0      = bits.U(10, 5)
	chHealthEn = bits.U(15, 1)
	chNewData  = bits.U(16, 1)
	chLOS      = bits.U(17, 1)
	chTOU      = bits.U(18, 4)
)

// Beacon almanac: three words per station.
const stationStride = 3 * wordBits

var (
	stLat     = bits.S(0, 16).Scaled(LatScale)
	stLon     = bits.S(16, 16).Scaled(LonScale)
	stRange   = bits.U(32, 10)
	stFreq    = bits.U(42, 12).Scaled(FreqScale)
	stHealth  = bits.U(54, 2)
	stID      = bits.U(56, 10)
	stBitrate = bits.U(66, 3)
)

var (
	xmStatus    = bits.U(bodyBit, 1)
	xmRangeFlag = bits.U(bodyBit+1, 1)
	xmLat       = bits.S(bodyBit+2, 16).Scaled(LatScale)
	xmLon       = bits.S(bodyBit+24, 16).Scaled(LonScale)
	xmRange     = bits.U(bodyBit+40, 8)
)

var (
	gtWeek  = bits.U(bodyBit, 10)
	gtHour  = bits.U(bodyBit+10, 8)
	gtLeaps = bits.U(bodyBit+18, 6)
)

// Decode unpacks one framed RTCM2 message.
func Decode(words []byte) (*Message, error) {
	if len(words)%4 != 0 {
		return nil, bits.Errorf(protocol, 0, bits.ErrBadLength, "%d bytes is not a whole number of words", len(words))
	}
	nwords := len(words) / 4
	if nwords < 2 {
		return nil, bits.Errorf(protocol, nwords*wordBits, bits.ErrTruncated, "header needs 2 words")
	}
	if nwords > WordsMax {
		return nil, bits.Errorf(protocol, WordsMax*wordBits, bits.ErrBadLength, "%d words exceeds %d", nwords, WordsMax)
	}

	raw := make([]uint32, nwords)
	data := make([]byte, 0, nwords*3)
	for i := range raw {
		w := binary.BigEndian.Uint32(words[i*4:])
		raw[i] = w & 0x3fffffff
		d := w >> 6
		data = append(data, byte(d>>16), byte(d>>8), byte(d))
	}

	if p := hdrPreamble.Uint(data); p != Preamble {
		return nil, bits.Errorf(protocol, hdrPreamble.Offset, bits.ErrBadPreamble, "got 0x%02x", p)
	}
	m := &Message{
		Type:          hdrType.Int(data),
		StationID:     hdrStation.Int(data),
		ZCount:        hdrZCount.Value(data),
		SeqNum:        hdrSeq.Int(data),
		Length:        hdrLength.Int(data),
		StationHealth: hdrHealth.Int(data),
	}
	if 2+m.Length > nwords {
		return nil, bits.Errorf(protocol, nwords*wordBits, bits.ErrTruncated, "header claims %d body words, have %d", m.Length, nwords-2)
	}
	bodyEnd := bodyBit + m.Length*wordBits

	switch m.Type {
	case 1, 9:
		n := m.Length * wordBits / rangeStride
		if n > MaxCorrections {
			n = MaxCorrections
		}
		m.Ranges = make([]RangeSat, 0, n)
		for i := 0; i < n; i++ {
			m.Ranges = append(m.Ranges, decodeRange(data, bodyBit+i*rangeStride))
		}
	case 3:
		m.ECEF = &ECEF{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
		if bodyEnd >= ecefZ.End() {
			m.ECEF.Valid = true
			m.ECEF.X = ecefX.Value(data)
			m.ECEF.Y = ecefY.Value(data)
			m.ECEF.Z = ecefZ.Value(data)
		}
	case 4:
		m.Reference = decodeReference(data, bodyEnd)
	case 5:
		n := m.Length
		if n > MaxHealth {
			n = MaxHealth
		}
		m.Health = make([]ConHealth, 0, n)
		for i := 0; i < n; i++ {
			m.Health = append(m.Health, decodeHealth(data, bodyBit+i*wordBits))
		}
	case 7:
		n := m.Length / 3
		if n > MaxStations {
			n = MaxStations
		}
		m.Almanac = make([]Station, 0, n)
		for i := 0; i < n; i++ {
			m.Almanac = append(m.Almanac, decodeStation(data, bodyBit+i*stationStride))
		}
	case 13:
		if bodyEnd < xmRange.End() {
			return nil, bits.Errorf(protocol, bodyEnd, bits.ErrTruncated, "type 13 needs 2 body words")
		}
		m.Xmitter = &Xmitter{
			Status:    xmStatus.Bool(data),
			RangeFlag: xmRangeFlag.Bool(data),
			Latitude:  xmLat.Value(data),
			Longitude: xmLon.Value(data),
			Range:     xmRange.Int(data),
		}
	case 14:
		if bodyEnd < gtLeaps.End() {
			return nil, bits.Errorf(protocol, bodyEnd, bits.ErrTruncated, "type 14 needs 1 body word")
		}
		m.GPSTime = &GPSTime{Week: gtWeek.Int(data), Hour: gtHour.Int(data), LeapSecs: gtLeaps.Int(data)}
	case 16:
		var sb strings.Builder
		for off := bodyBit; off+8 <= bodyEnd; off += 8 {
			c := bits.UBits(data, off, 8)
			if c == 0 {
				break
			}
			sb.WriteByte(byte(c))
		}
		text := sb.String()
		m.Text = &text
	default:
		m.Words = raw[2 : 2+m.Length]
	}
	return m, nil
}

func decodeRange(data []byte, base int) RangeSat {
	large := rngScale.At(base).Bool(data)
	pcScale, rrScale := PCSmall, RRSmall
	if large {
		pcScale, rrScale = PCLarge, RRLarge
	}
	s := RangeSat{
		Ident:     rngIdent.At(base).Int(data),
		UDRE:      rngUDRE.At(base).Int(data),
		IssueData: rngIOD.At(base).Int(data),
		RangeErr:  PRCNotAvailable.Float(rngPRC.At(base).Raw(data), pcScale),
		RangeRate: RRCNotAvailable.Float(rngRRC.At(base).Raw(data), rrScale),
	}
	if s.Ident == 0 {
		s.Ident = 32
	}
	return s
}

func decodeReference(data []byte, bodyEnd int) *Reference {
	r := &Reference{DX: math.NaN(), DY: math.NaN(), DZ: math.NaN()}
	if bodyEnd < refDatum[4].End() {
		return r
	}
	r.Valid = true
	switch refSystem.Uint(data) {
	case 0:
		r.System = NavSystemGPS
	case 1:
		r.System = NavSystemGLONASS
	default:
		r.System = NavSystemUnknown
	}
	if refSense.Bool(data) {
		r.Sense = SenseGlobal
	} else {
		r.Sense = SenseLocal
	}
	var sb strings.Builder
	for _, f := range refDatum {
		if c := f.Uint(data); c != 0 {
			sb.WriteByte(byte(c))
		}
	}
	r.Datum = strings.TrimRight(sb.String(), " ")
	if bodyEnd >= refDZ.End() {
		r.DX = refDX.Value(data)
		r.DY = refDY.Value(data)
		r.DZ = refDZ.Value(data)
	}
	return r
}

func decodeHealth(data []byte, base int) ConHealth {
	h := ConHealth{
		Ident:      chIdent.At(base).Int(data),
		IODL:       chIODL.At(base).Bool(data),
		Health:     chHealth.At(base).Int(data),
		SNR:        SNRBad,
		HealthEn:   chHealthEn.At(base).Bool(data),
		NewData:    chNewData.At(base).Bool(data),
		LOSWarning: chLOS.At(base).Bool(data),
		TOU:        chTOU.At(base).Int(data) * TimeUnhealthy,
	}
	if h.Ident == 0 {
		h.Ident = 32
	}
	if cn0 := chCN0.At(base).Int(data); cn0 != 0 {
		h.SNR = cn0 + CNROffset
	}
	return h
}

func decodeStation(data []byte, base int) Station {
	return Station{
		Latitude:  stLat.At(base).Value(data),
		Longitude: stLon.At(base).Value(data),
		Range:     stRange.At(base).Int(data),
		Frequency: stFreq.At(base).Value(data) + FreqOffset,
		Health:    Health(stHealth.At(base).Int(data)),
		StationID: stID.At(base).Int(data),
		Bitrate:   beaconBitrates[stBitrate.At(base).Uint(data)],
	}
}
