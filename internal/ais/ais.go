// Package ais decodes AIVDM/AIVDO message payloads (ITU-R M.1371).
package ais

import (
	"strings"

	"gpsd-ng/internal/bits"
)

const protocol = "ais"

// Capacities of variable-length fields, in bits or characters.
const (
	Type6BitsMax   = 920
	Type8BitsMax   = 952
	Type12TextMax  = 157
	Type14TextMax  = 161
	Type17BitsMax  = 736
	Type21NameMax  = 34
	Type25BitsMax  = 128
	Type26BitsMax  = 1004
	MaxPayloadBits = 1192
)

// minBits is the shortest valid payload per message type.
var minBits = [28]int{
	0, 168, 168, 168, 168, 424, 88, 72, 56, 168, 72, 168, 72, 72, 40,
	88, 96, 80, 168, 312, 72, 272, 168, 160, 160, 40, 60, 96,
}

// Message is one decoded AIS message: the common header plus exactly one
// payload shape selected by Type.
type Message struct {
	Type   int    `json:"type"`
	Repeat int    `json:"repeat"`
	MMSI   uint32 `json:"mmsi"`

	Position        *PositionReport     `json:"position,omitempty"`
	BaseStation     *BaseStationReport  `json:"base_station,omitempty"`
	Voyage          *StaticVoyage       `json:"voyage,omitempty"`
	AddressedBinary *AddressedBinary    `json:"addressed_binary,omitempty"`
	Ack             *Acknowledge        `json:"ack,omitempty"`
	BroadcastBinary *BroadcastBinary    `json:"broadcast_binary,omitempty"`
	SAR             *SARAircraft        `json:"sar,omitempty"`
	UTCInquiry      *UTCInquiry         `json:"utc_inquiry,omitempty"`
	AddressedSafety *AddressedSafety    `json:"addressed_safety,omitempty"`
	Safety          *BroadcastSafety    `json:"safety,omitempty"`
	Interrogation   *Interrogation      `json:"interrogation,omitempty"`
	AssignedMode    *AssignedMode       `json:"assigned_mode,omitempty"`
	DGNSS           *DGNSSBroadcast     `json:"dgnss,omitempty"`
	ClassB          *ClassBPosition     `json:"class_b,omitempty"`
	ClassBExtended  *ClassBExtended     `json:"class_b_extended,omitempty"`
	DataLink        *DataLinkManagement `json:"datalink,omitempty"`
	AidToNavigation *AidToNavigation    `json:"aid_to_navigation,omitempty"`
	Channel         *ChannelManagement  `json:"channel,omitempty"`
	Group           *GroupAssignment    `json:"group,omitempty"`
	StaticData      *StaticData         `json:"static_data,omitempty"`
	SingleSlot      *SingleSlotBinary   `json:"single_slot,omitempty"`
	MultiSlot       *MultiSlotBinary    `json:"multi_slot,omitempty"`
	LongRange       *LongRangePosition  `json:"long_range,omitempty"`
}

// Binary is a variable-length bit field; only the first Bitcount bits of
// Data are significant.
type Binary struct {
	Bitcount int    `json:"bitcount"`
	Data     []byte `json:"data"`
}

// reader reads fields from a payload of bitlen significant bits.
type reader struct {
	buf    []byte
	bitlen int
}

func (r reader) u(off, width int) int        { return bits.U(off, width).Int(r.buf) }
func (r reader) s(off, width int) int        { return bits.S(off, width).Int(r.buf) }
func (r reader) flag(off int) bool           { return bits.U(off, 1).Bool(r.buf) }
func (r reader) has(off, width int) bool     { return bits.Fits(r.bitlen, off, width) }
func (r reader) mmsi(off int) uint32         { return uint32(bits.U(off, 30).Uint(r.buf)) }
func (r reader) lon(off int) Lon             { return Lon(r.s(off, 28)) }
func (r reader) lat(off int) Lat             { return Lat(r.s(off, 27)) }
func (r reader) coarseLon(off int) CoarseLon { return CoarseLon(r.s(off, 18)) }
func (r reader) coarseLat(off int) CoarseLat { return CoarseLat(r.s(off, 17)) }

const sixbitAlphabet = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// text reads up to n six-bit characters and strips trailing '@' padding
// and spaces.
func (r reader) text(off, n int) string {
	var sb strings.Builder
	for i := 0; i < n && r.has(off+6*i, 6); i++ {
		sb.WriteByte(sixbitAlphabet[r.u(off+6*i, 6)])
	}
	return strings.TrimRight(sb.String(), "@ ")
}

// binary copies the bits from off to the end of the payload, capped at max.
func (r reader) binary(off, max int) Binary {
	n := r.bitlen - off
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	out := Binary{Bitcount: n, Data: make([]byte, (n+7)/8)}
	for i := 0; i < n; i += 8 {
		w := 8
		if n-i < 8 {
			w = n - i
		}
		out.Data[i/8] = byte(bits.UBits(r.buf, off+i, w) << (8 - w))
	}
	return out
}

// Decode unpacks a de-armored payload of bitlen significant bits.
func Decode(buf []byte, bitlen int) (*Message, error) {
	if bitlen < 0 || bitlen > len(buf)*8 {
		return nil, bits.Errorf(protocol, len(buf)*8, bits.ErrBadLength, "bit length %d exceeds %d-byte buffer", bitlen, len(buf))
	}
	if bitlen < 38 {
		return nil, bits.Errorf(protocol, bitlen, bits.ErrTruncated, "header needs 38 bits")
	}
	r := reader{buf: buf, bitlen: bitlen}
	m := &Message{Type: r.u(0, 6), Repeat: r.u(6, 2), MMSI: r.mmsi(8)}
	if m.Type < 1 || m.Type >= len(minBits) {
		return nil, bits.Errorf(protocol, 0, bits.ErrBadType, "type %d", m.Type)
	}
	if bitlen < minBits[m.Type] {
		return nil, bits.Errorf(protocol, bitlen, bits.ErrTruncated, "type %d needs %d bits, have %d", m.Type, minBits[m.Type], bitlen)
	}

	switch m.Type {
	case 1, 2, 3:
		m.Position = decodePosition(r)
	case 4, 11:
		m.BaseStation = decodeBaseStation(r)
	case 5:
		m.Voyage = decodeVoyage(r)
	case 6:
		m.AddressedBinary = &AddressedBinary{
			Seqno:      r.u(38, 2),
			DestMMSI:   r.mmsi(40),
			Retransmit: r.flag(70),
			DAC:        r.u(72, 10),
			FID:        r.u(82, 6),
			Binary:     r.binary(88, Type6BitsMax),
		}
	case 7, 13:
		a := &Acknowledge{}
		for i, off := 0, 40; i < len(a.MMSI) && r.has(off, 30); i, off = i+1, off+32 {
			a.MMSI[i] = r.mmsi(off)
		}
		m.Ack = a
	case 8:
		m.BroadcastBinary = &BroadcastBinary{
			DAC:    r.u(40, 10),
			FID:    r.u(50, 6),
			Binary: r.binary(56, Type8BitsMax),
		}
	case 9:
		m.SAR = decodeSAR(r)
	case 10:
		m.UTCInquiry = &UTCInquiry{DestMMSI: r.mmsi(40)}
	case 12:
		m.AddressedSafety = &AddressedSafety{
			Seqno:      r.u(38, 2),
			DestMMSI:   r.mmsi(40),
			Retransmit: r.flag(70),
			Text:       r.text(72, Type12TextMax),
		}
	case 14:
		m.Safety = &BroadcastSafety{Text: r.text(40, Type14TextMax)}
	case 15:
		m.Interrogation = decodeInterrogation(r)
	case 16:
		am := &AssignedMode{MMSI1: r.mmsi(40), Offset1: r.u(70, 12), Increment1: r.u(82, 10)}
		if r.has(92, 52) {
			am.MMSI2, am.Offset2, am.Increment2 = r.mmsi(92), r.u(122, 12), r.u(134, 10)
		}
		m.AssignedMode = am
	case 17:
		m.DGNSS = &DGNSSBroadcast{
			Lon:    r.coarseLon(40),
			Lat:    r.coarseLat(58),
			Binary: r.binary(80, Type17BitsMax),
		}
	case 18:
		m.ClassB = decodeClassB(r)
	case 19:
		m.ClassBExtended = decodeClassBExtended(r)
	case 20:
		m.DataLink = decodeDataLink(r)
	case 21:
		m.AidToNavigation = decodeAidToNavigation(r)
	case 22:
		m.Channel = decodeChannel(r)
	case 23:
		m.Group = &GroupAssignment{
			NELon:       r.coarseLon(40),
			NELat:       r.coarseLat(58),
			SWLon:       r.coarseLon(75),
			SWLat:       r.coarseLat(93),
			StationType: r.u(110, 4),
			ShipType:    r.u(114, 8),
			TxRx:        r.u(144, 2),
			Interval:    r.u(146, 4),
			Quiet:       r.u(150, 4),
		}
	case 24:
		m.StaticData = decodeStaticData(r, m.MMSI)
	case 25:
		m.SingleSlot = decodeSingleSlot(r)
	case 26:
		m.MultiSlot = decodeMultiSlot(r)
	case 27:
		m.LongRange = &LongRangePosition{
			Accuracy: r.flag(38),
			RAIM:     r.flag(39),
			Status:   r.u(40, 4),
			Lon:      r.coarseLon(44),
			Lat:      r.coarseLat(62),
			Speed:    r.u(79, 6),
			Course:   r.u(85, 9),
			GNSS:     !r.flag(94),
		}
	}
	return m, nil
}
