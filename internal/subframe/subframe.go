// Package subframe decodes GPS LNAV navigation subframes (IS-GPS-200).
//
// Input is ten 24-bit data words, parity already stripped, concatenated into
// 30 bytes. Offsets below are bit positions in that 240-bit stream: word n
// starts at 24*(n-1).
package subframe

import (
	"gpsd-ng/internal/bits"
)

const protocol = "subframe"

const (
	Preamble  = 0x8B
	DataBytes = 30

	TOWScale = 6
)

// Page/SV ids of the special subframe 4 and 5 pages.
const (
	PageNMCT    = 52 // subframe 4 page 13
	PageText    = 55 // subframe 4 page 17
	PageIonoUTC = 56 // subframe 4 page 18
	PageHealth4 = 63 // subframe 4 page 25
	PageHealth5 = 51 // subframe 5 page 25
)

// ERDNotAvailable marks an estimated range deviation with no data.
const ERDNotAvailable bits.Sentinel = -32

var (
	p2 = bits.Pow2

	tlmPreamble  = bits.U(0, 8)
	tlmIntegrity = bits.U(22, 1)
	howTOW       = bits.U(24, 17)
	howAlert     = bits.U(41, 1)
	howAntispoof = bits.U(42, 1)
	howID        = bits.U(43, 3)
	pgDataID     = bits.U(48, 2)
	pgID         = bits.U(50, 6)
)

// Message is one decoded subframe. Exactly one body field is set; subframe
// 4 and 5 pages that carry no decoded content leave them all nil.
type Message struct {
	TSVID     int  `json:"tSV"`
	Subframe  int  `json:"frame"`
	TOW17     int  `json:"TOW17"`
	TOW       int  `json:"l_TOW17"`
	Integrity bool `json:"integrity"`
	Alert     bool `json:"alert"`
	Antispoof bool `json:"antispoof"`
	DataID    int  `json:"dataid,omitempty"`
	PageID    int  `json:"pageid,omitempty"`

	Clock   *Clock         `json:"EPHEM1,omitempty"`
	Orbit2  *Orbit2        `json:"EPHEM2,omitempty"`
	Orbit3  *Orbit3        `json:"EPHEM3,omitempty"`
	Almanac *Almanac       `json:"ALMANAC,omitempty"`
	NMCT    *NMCT          `json:"ERD,omitempty"`
	Text    *string        `json:"system_message,omitempty"`
	IonoUTC *IonoUTC       `json:"IONO,omitempty"`
	Health4 *HealthFlags   `json:"HEALTH,omitempty"`
	Health5 *HealthSummary `json:"HEALTH2,omitempty"`
}

// Decode unpacks one subframe.
func Decode(words []byte) (*Message, error) {
	if len(words) < DataBytes {
		return nil, bits.Errorf(protocol, len(words)*8, bits.ErrTruncated, "need %d bytes", DataBytes)
	}
	if len(words) > DataBytes {
		return nil, bits.Errorf(protocol, DataBytes*8, bits.ErrBadLength, "%d bytes", len(words))
	}
	if p := tlmPreamble.Uint(words); p != Preamble {
		return nil, bits.Errorf(protocol, 0, bits.ErrBadPreamble, "got 0x%02x", p)
	}
	m := &Message{
		Subframe:  howID.Int(words),
		TOW17:     howTOW.Int(words),
		Integrity: tlmIntegrity.Bool(words),
		Alert:     howAlert.Bool(words),
		Antispoof: howAntispoof.Bool(words),
	}
	m.TOW = m.TOW17 * TOWScale

	switch m.Subframe {
	case 1:
		m.Clock = decodeClock(words)
	case 2:
		m.Orbit2 = decodeOrbit2(words)
	case 3:
		m.Orbit3 = decodeOrbit3(words)
	case 4, 5:
		// The page id picks the body layout.
		m.DataID = pgDataID.Int(words)
		m.PageID = pgID.Int(words)
		decodePage(m, words)
	default:
		return nil, bits.Errorf(protocol, howID.Offset, bits.ErrBadType, "subframe id %d", m.Subframe)
	}
	return m, nil
}

func decodePage(m *Message, words []byte) {
	switch {
	case m.PageID >= 1 && m.PageID <= 32:
		m.Almanac = decodeAlmanac(words, m.PageID)
	case m.Subframe == 4 && m.PageID == PageNMCT:
		m.NMCT = decodeNMCT(words)
	case m.Subframe == 4 && m.PageID == PageText:
		text := decodeText(words)
		m.Text = &text
	case m.Subframe == 4 && m.PageID == PageIonoUTC:
		m.IonoUTC = decodeIonoUTC(words)
	case m.Subframe == 4 && m.PageID == PageHealth4:
		m.Health4 = decodeHealthFlags(words)
	case m.Subframe == 5 && m.PageID == PageHealth5:
		m.Health5 = decodeHealthSummary(words)
	}
}
