// Package bits extracts scaled integer sub-fields from bit-packed buffers.
//
// Bit numbering is MSB-first: offset 0 is the most significant bit of buf[0].
// Every protocol decoder in gpsd-ng describes its message shapes as static
// tables of Field values and reads them through this package.
package bits

import (
	"fmt"
	"math"
)

// Sign selects how the raw bits of a field are interpreted.
type Sign uint8

const (
	Unsigned Sign = iota
	TwosComplement
	// SignMagnitude uses the top bit as the sign of the remaining magnitude
	// (GLONASS ephemeris fields).
	SignMagnitude
)

// RangeError reports an extraction outside the buffer. Decoders validate
// lengths before reading, so a RangeError always indicates a bad field table.
type RangeError struct {
	Offset int
	Width  int
	Bits   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("bits: field offset=%d width=%d outside %d-bit buffer", e.Offset, e.Width, e.Bits)
}

func check(buf []byte, offset, width int) {
	if width < 1 || width > 64 || offset < 0 || offset+width > len(buf)*8 {
		panic(&RangeError{Offset: offset, Width: width, Bits: len(buf) * 8})
	}
}

// Fits reports whether a field of width bits at offset lies inside a buffer of
// bitlen significant bits.
func Fits(bitlen, offset, width int) bool {
	return offset >= 0 && width >= 0 && offset+width <= bitlen
}

// UBits returns width bits starting at offset as an unsigned integer.
func UBits(buf []byte, offset, width int) uint64 {
	check(buf, offset, width)
	var v uint64
	for i := offset; i < offset+width; i++ {
		v = v<<1 | uint64(buf[i/8]>>(7-uint(i%8))&1)
	}
	return v
}

// SBits returns width bits starting at offset, sign-extended from the field's
// most significant bit.
func SBits(buf []byte, offset, width int) int64 {
	u := UBits(buf, offset, width)
	if width == 64 || u&(1<<(width-1)) == 0 {
		return int64(u)
	}
	return int64(u | math.MaxUint64<<width)
}

// SMBits returns width bits starting at offset read as sign and magnitude.
func SMBits(buf []byte, offset, width int) int64 {
	u := UBits(buf, offset, width)
	mag := int64(u &^ (1 << (width - 1)))
	if u&(1<<(width-1)) != 0 {
		return -mag
	}
	return mag
}

// Field is one entry of a message-shape table.
type Field struct {
	Offset int
	Width  int
	Sign   Sign
	// Scale converts the raw integer to physical units. Zero means 1.
	Scale float64
}

// U describes an unsigned field with unit scale.
func U(offset, width int) Field { return Field{Offset: offset, Width: width} }

// S describes a two's-complement field with unit scale.
func S(offset, width int) Field { return Field{Offset: offset, Width: width, Sign: TwosComplement} }

// SM describes a sign-magnitude field with unit scale.
func SM(offset, width int) Field { return Field{Offset: offset, Width: width, Sign: SignMagnitude} }

// Scaled returns a copy of f with the given scale factor.
func (f Field) Scaled(scale float64) Field {
	f.Scale = scale
	return f
}

// At returns f relocated by delta bits, for repeated per-entry layouts.
func (f Field) At(delta int) Field {
	f.Offset += delta
	return f
}

// End is the first bit offset after the field.
func (f Field) End() int { return f.Offset + f.Width }

// Raw extracts the field's integer value.
func (f Field) Raw(buf []byte) int64 {
	switch f.Sign {
	case TwosComplement:
		return SBits(buf, f.Offset, f.Width)
	case SignMagnitude:
		return SMBits(buf, f.Offset, f.Width)
	default:
		return int64(UBits(buf, f.Offset, f.Width))
	}
}

// Uint extracts an unsigned field.
func (f Field) Uint(buf []byte) uint64 { return UBits(buf, f.Offset, f.Width) }

// Int extracts the field as an int.
func (f Field) Int(buf []byte) int { return int(f.Raw(buf)) }

// Bool extracts a one-bit flag.
func (f Field) Bool(buf []byte) bool { return f.Raw(buf) != 0 }

// Value extracts the field and applies its scale.
func (f Field) Value(buf []byte) float64 {
	return f.scale(f.Raw(buf))
}

// Pair extracts the raw and scaled forms together.
func (f Field) Pair(buf []byte) Scaled {
	raw := f.Raw(buf)
	return Scaled{Raw: raw, Value: f.scale(raw)}
}

func (f Field) scale(raw int64) float64 {
	if f.Scale == 0 {
		return float64(raw)
	}
	return float64(raw) * f.Scale
}

// Split is a field whose bits are stored in two separate places, most
// significant part first, such as the GPS almanac af0 term.
type Split struct {
	Hi, Lo Field
	Sign   Sign
	Scale  float64
}

// Raw joins both parts and interprets the result according to s.Sign.
func (s Split) Raw(buf []byte) int64 {
	width := s.Hi.Width + s.Lo.Width
	u := s.Hi.Uint(buf)<<s.Lo.Width | s.Lo.Uint(buf)
	switch s.Sign {
	case TwosComplement:
		if width < 64 && u&(1<<(width-1)) != 0 {
			u |= math.MaxUint64 << width
		}
		return int64(u)
	case SignMagnitude:
		mag := int64(u &^ (1 << (width - 1)))
		if u&(1<<(width-1)) != 0 {
			return -mag
		}
		return mag
	}
	return int64(u)
}

// Pair extracts the joined raw and scaled forms.
func (s Split) Pair(buf []byte) Scaled {
	raw := s.Raw(buf)
	v := float64(raw)
	if s.Scale != 0 {
		v *= s.Scale
	}
	return Scaled{Raw: raw, Value: v}
}

// Scaled carries a field's raw integer alongside its physical value.
type Scaled struct {
	Raw   int64   `json:"raw"`
	Value float64 `json:"value"`
}

// Physical reports the scaled value; NaN values are unavailable.
func (s Scaled) Physical() (float64, bool) { return s.Value, !math.IsNaN(s.Value) }

// Pow2 returns 2**n.
func Pow2(n int) float64 { return math.Ldexp(1, n) }
