package bits

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_SignedScaledMinusOne(t *testing.T) {
	buf := []byte{0x00, 0xFF, 0xFF, 0x00}
	f := S(8, 16).Scaled(Pow2(-11))
	assert.Equal(t, int64(-1), f.Raw(buf))
	assert.Equal(t, -1*math.Ldexp(1, -11), f.Value(buf))
}

func TestField_UnsignedUnitScale(t *testing.T) {
	buf := []byte{0xFF}
	assert.Equal(t, 255.0, U(0, 8).Value(buf))
}

func TestUBits_SpansByteBoundaries(t *testing.T) {
	// 0b1010_1100 0b0011_0101
	buf := []byte{0xAC, 0x35}
	assert.Equal(t, uint64(0x2), UBits(buf, 1, 3))
	assert.Equal(t, uint64(0xC3), UBits(buf, 4, 8))
	assert.Equal(t, uint64(0x35), UBits(buf, 8, 8))
	assert.Equal(t, uint64(1), UBits(buf, 0, 1))
}

func TestSBits_SignExtension(t *testing.T) {
	tests := []struct {
		name  string
		buf   []byte
		off   int
		width int
		want  int64
	}{
		{"positive", []byte{0x3F}, 0, 8, 63},
		{"negative byte", []byte{0x80}, 0, 8, -128},
		{"negative 5 bits", []byte{0xF8}, 0, 5, -1},
		{"22 bit negative", []byte{0xFF, 0xFF, 0xFC}, 0, 22, -1},
		{"32 bit", []byte{0x80, 0x00, 0x00, 0x00}, 0, 32, math.MinInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SBits(tt.buf, tt.off, tt.width))
		})
	}
}

func TestSBits_38Bit(t *testing.T) {
	// -2 in 38 bits starting at offset 2.
	buf := make([]byte, 5)
	v := uint64(1<<38 - 2)
	for i := 0; i < 38; i++ {
		if v&(1<<(37-i)) != 0 {
			pos := 2 + i
			buf[pos/8] |= 0x80 >> (pos % 8)
		}
	}
	assert.Equal(t, int64(-2), SBits(buf, 2, 38))
}

func TestSMBits(t *testing.T) {
	buf := []byte{0x85} // 1000 0101
	assert.Equal(t, int64(-5), SMBits(buf, 0, 8))
	assert.Equal(t, int64(5), SMBits([]byte{0x05}, 0, 8))
	assert.Equal(t, int64(-5), SM(0, 8).Raw(buf))
}

func TestSplit_JoinsParts(t *testing.T) {
	// hi = 0xFF (8 bits) at 0, lo = 0b111 (3 bits) at 13 -> 11-bit -1.
	buf := []byte{0xFF, 0x07, 0x00}
	s := Split{Hi: U(0, 8), Lo: U(13, 3), Sign: TwosComplement, Scale: Pow2(-20)}
	p := s.Pair(buf)
	assert.Equal(t, int64(-1), p.Raw)
	assert.Equal(t, -Pow2(-20), p.Value)

	s.Sign = Unsigned
	assert.Equal(t, int64(0x7FF), s.Raw(buf))
}

func TestField_OutOfRangePanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*RangeError)
		assert.True(t, ok, "panic value %T", r)
	}()
	U(4, 8).Raw([]byte{0x00})
}

func TestField_At(t *testing.T) {
	f := U(10, 6).At(40)
	assert.Equal(t, 50, f.Offset)
	assert.Equal(t, 56, f.End())
	assert.True(t, Fits(56, f.Offset, f.Width))
	assert.False(t, Fits(55, f.Offset, f.Width))
}

func TestSentinel(t *testing.T) {
	const speedNA Sentinel = 1023
	assert.False(t, speedNA.Available(1023))
	assert.True(t, speedNA.Available(0))
	assert.True(t, math.IsNaN(speedNA.Float(1023, 0.1)))
	assert.InDelta(t, 10.2, speedNA.Float(102, 0.1), 1e-9)
}
