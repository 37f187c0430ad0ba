// Package zodiac decodes the Rockwell Zodiac binary protocol.
//
// A frame is a run of little-endian 16-bit words: a five word header (sync
// 0x81FF, message id, data word count, flags, header checksum) followed by the
// data words and a data checksum. Both checksums are the two's complement of
// the word sum. Data words are numbered from 6 in the receiver manual, so word
// n of a message lives at index n-6 of the data block.
package zodiac

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"gpsd-ng/internal/bits"
	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/timeutil"
)

const protocol = "zodiac"

const (
	Sync        = 0x81FF
	HeaderWords = 5

	MsgGeodetic     = 1000
	MsgChannels     = 1002
	MsgVisible      = 1003
	MsgDGPSStatus   = 1005
	MsgSerialConfig = 1330
	MsgRTCMInput    = 1351

	// Channels per 1002 and visible satellites per 1003.
	MaxChannels = 12

	firstWord = 6
)

// ErrChecksum is the kind of a DecodeError for a header or data checksum
// mismatch.
var ErrChecksum = errors.New("checksum mismatch")

// ErrUnsupported is returned for well-formed messages with nothing to record.
var ErrUnsupported = errors.New("zodiac: unsupported message")

// Frame is one checked message.
type Frame struct {
	ID    int
	Flags uint16
	// Data excludes the trailing checksum word.
	Data []uint16
}

// Checksum returns the word that makes the sum of w plus itself zero.
func Checksum(w []uint16) uint16 {
	var sum uint16
	for _, v := range w {
		sum += v
	}
	return -sum
}

// Build renders a message with both checksums.
func Build(id int, flags uint16, data []uint16) []byte {
	hdr := []uint16{Sync, uint16(id), uint16(len(data)), flags}
	hdr = append(hdr, Checksum(hdr))
	all := append(hdr, data...)
	all = append(all, Checksum(data))
	out := make([]byte, 2*len(all))
	for i, w := range all {
		binary.LittleEndian.PutUint16(out[2*i:], w)
	}
	return out
}

// ParseFrame checks the header and data checksums of one complete frame.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < 2*HeaderWords {
		return Frame{}, bits.Errorf(protocol, 8*len(b), bits.ErrTruncated, "%d bytes", len(b))
	}
	if len(b)%2 != 0 {
		return Frame{}, bits.Errorf(protocol, 8*len(b), bits.ErrBadLength, "odd byte count %d", len(b))
	}
	ws := make([]uint16, len(b)/2)
	for i := range ws {
		ws[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	if ws[0] != Sync {
		return Frame{}, bits.Errorf(protocol, 0, bits.ErrBadPreamble, "sync %#04x", ws[0])
	}
	if Checksum(ws[:4]) != ws[4] {
		return Frame{}, bits.Errorf(protocol, 64, ErrChecksum, "header")
	}
	n := int(ws[2])
	body := ws[HeaderWords:]
	if len(body) != n+1 {
		return Frame{}, bits.Errorf(protocol, 16*HeaderWords, bits.ErrBadLength,
			"%d data words, header says %d", len(body)-1, n)
	}
	if Checksum(body[:n]) != body[n] {
		return Frame{}, bits.Errorf(protocol, 16*(HeaderWords+n), ErrChecksum, "data")
	}
	return Frame{ID: int(ws[1]), Flags: ws[3], Data: body[:n]}, nil
}

// Decoder keeps the skyview between messages: 1003 supplies positions and
// 1002 the per-channel signal and used flags.
type Decoder struct {
	sky     gps.Skyview
	haveSky bool
	ss      map[int]float64
	used    map[int]bool
}

func NewDecoder() *Decoder {
	d := &Decoder{ss: make(map[int]float64), used: make(map[int]bool)}
	d.sky.Clear()
	return d
}

// Decode checks one frame and returns the update it carries.
func (d *Decoder) Decode(b []byte) (*gps.Data, gps.Mask, error) {
	f, err := ParseFrame(b)
	if err != nil {
		return nil, 0, err
	}
	in := gps.NewData()
	in.Tag = fmt.Sprint(f.ID)
	mask := gps.MaskOf(gps.Packet)

	w := words(f.Data)
	var m gps.Mask
	switch f.ID {
	case MsgGeodetic:
		m, err = d.geodetic(w, in)
	case MsgChannels:
		m, err = d.channels(w, in)
	case MsgVisible:
		m, err = d.visible(w, in)
	default:
		return in, mask, fmt.Errorf("%w: %d", ErrUnsupported, f.ID)
	}
	if err != nil {
		return nil, 0, err
	}
	return in, mask.Union(m), nil
}

// words indexes a data block by manual word number.
type words []uint16

func (w words) has(n int) bool { return n-firstWord < len(w) }

func (w words) u(n int) uint16 { return w[n-firstWord] }

func (w words) s(n int) int16 { return int16(w[n-firstWord]) }

// l reads a 32-bit value stored low word first.
func (w words) l(n int) int32 {
	return int32(uint32(w[n-firstWord]) | uint32(w[n-firstWord+1])<<16)
}

func need(w words, last int, id int) error {
	if w.has(last) {
		return nil
	}
	return bits.Errorf(protocol, 16*len(w), bits.ErrTruncated,
		"message %d needs word %d, have %d", id, last, len(w)+firstWord-1)
}

const rad2deg = 180 / math.Pi

// Solution validity bits of word 10.
const (
	invalidAltitude = 0x01
	invalidFix      = 0x1c
)

func (d *Decoder) geodetic(w words, in *gps.Data) (gps.Mask, error) {
	if err := need(w, 39, MsgGeodetic); err != nil {
		return 0, err
	}
	ns := float64(w.l(25)) / 1e9
	in.Fix.Time = timeutil.FromCivil(int(w.u(21)), int(w.u(20)), int(w.u(19)),
		int(w.u(22)), int(w.u(23)), float64(w.u(24))+ns)
	mask := gps.MaskOf(gps.Time).With(gps.Status).With(gps.Mode)

	if w.u(10)&invalidFix != 0 {
		in.Status = gps.StatusNoFix
		in.Fix.Mode = gps.ModeNoFix
		return mask, nil
	}
	in.Status = gps.StatusFix
	if w.u(11)&0x04 != 0 {
		in.Status = gps.StatusDGPSFix
	}
	in.Fix.Mode = gps.Mode3D
	if w.u(10)&invalidAltitude != 0 {
		in.Fix.Mode = gps.Mode2D
	}

	in.Fix.Latitude = float64(w.l(27)) * 1e-8 * rad2deg
	in.Fix.Longitude = float64(w.l(29)) * 1e-8 * rad2deg
	in.Fix.Speed = float64(uint32(w.l(34))) * 1e-2
	in.Fix.Track = float64(w.u(36)) * 1e-3 * rad2deg
	mask = mask.With(gps.LatLon).With(gps.Speed).With(gps.Track)
	if in.Fix.Mode == gps.Mode3D {
		in.Fix.Altitude = float64(w.l(31)) * 1e-2
		in.Separation = float64(w.s(33)) * 1e-2
		in.Fix.Climb = float64(w.s(38)) * 1e-2
		mask = mask.With(gps.Altitude).With(gps.Climb)
	}

	// Expected errors trail the datum word in full-length messages.
	if w.has(46) {
		in.Fix.SetEph(float64(uint32(w.l(40))) * 1e-2)
		in.Fix.Epv = float64(uint32(w.l(42))) * 1e-2
		in.Fix.Ept = float64(uint32(w.l(44))) * 1e-2
		in.Fix.Eps = float64(w.u(46)) * 1e-2
		mask = mask.With(gps.HErr).With(gps.VErr).With(gps.TimeErr).With(gps.SpeedErr)
	}
	return mask, nil
}

func (d *Decoder) channels(w words, in *gps.Data) (gps.Mask, error) {
	if err := need(w, 17+3*(MaxChannels-1), MsgChannels); err != nil {
		return 0, err
	}
	d.ss = make(map[int]float64, MaxChannels)
	d.used = make(map[int]bool, MaxChannels)
	for i := 0; i < MaxChannels; i++ {
		status := w.u(15 + 3*i)
		prn := int(w.u(16 + 3*i))
		if prn == 0 {
			continue
		}
		d.ss[prn] = float64(w.u(17 + 3*i))
		if status&0x01 != 0 {
			d.used[prn] = true
		}
	}
	if !d.haveSky {
		return 0, nil
	}
	in.Sky = d.skyview()
	return gps.MaskOf(gps.SatelliteSet), nil
}

func (d *Decoder) visible(w words, in *gps.Data) (gps.Mask, error) {
	if err := need(w, 14, MsgVisible); err != nil {
		return 0, err
	}
	n := int(w.u(14))
	if n > MaxChannels {
		return 0, bits.Errorf(protocol, 16*(14-firstWord), bits.ErrBadLength, "%d visible satellites", n)
	}
	if err := need(w, 17+3*(n-1), MsgVisible); n > 0 && err != nil {
		return 0, err
	}

	in.DOP.P = float64(w.u(10)) * 1e-2
	in.DOP.H = float64(w.u(11)) * 1e-2
	in.DOP.V = float64(w.u(12)) * 1e-2
	in.DOP.T = float64(w.u(13)) * 1e-2

	d.sky.Clear()
	for j := 0; j < n; j++ {
		az := int(math.Round(float64(w.s(16+3*j)) * 1e-4 * rad2deg))
		if az < 0 {
			az += 360
		}
		d.sky.Add(gps.Satellite{
			PRN:       int(w.u(15 + 3*j)),
			Azimuth:   az,
			Elevation: int(math.Round(float64(w.s(17+3*j)) * 1e-4 * rad2deg)),
		})
	}
	d.haveSky = true
	in.Sky = d.skyview()
	return gps.MaskOf(gps.DOP).With(gps.SatelliteSet), nil
}

// skyview overlays the latest channel report on the visible list.
func (d *Decoder) skyview() gps.Skyview {
	s := d.sky
	for i := range s.Channels() {
		sat := &s.Satellites[i]
		sat.SS = math.NaN()
		if ss, ok := d.ss[sat.PRN]; ok {
			sat.SS = ss
		}
		sat.Used = d.used[sat.PRN]
	}
	return s
}
