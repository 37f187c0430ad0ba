package rtcm3

import "gpsd-ng/internal/bits"

// cursor reads consecutive fields from a payload. The first read past the end
// records a truncation error and every later read returns zero.
type cursor struct {
	buf []byte
	pos int
	end int
	err error
}

func newCursor(payload []byte, pos int) *cursor {
	return &cursor{buf: payload, pos: pos, end: len(payload) * 8}
}

func (c *cursor) take(n int, sign bits.Sign) int64 {
	if c.err != nil || n == 0 {
		return 0
	}
	if !bits.Fits(c.end, c.pos, n) {
		c.err = bits.Errorf(protocol, c.pos, bits.ErrTruncated, "need %d bits, %d left", n, c.end-c.pos)
		return 0
	}
	v := bits.Field{Offset: c.pos, Width: n, Sign: sign}.Raw(c.buf)
	c.pos += n
	return v
}

func (c *cursor) u(n int) int64  { return c.take(n, bits.Unsigned) }
func (c *cursor) s(n int) int64  { return c.take(n, bits.TwosComplement) }
func (c *cursor) sm(n int) int64 { return c.take(n, bits.SignMagnitude) }
func (c *cursor) i(n int) int    { return int(c.u(n)) }
func (c *cursor) b() bool        { return c.u(1) != 0 }
func (c *cursor) skip(n int)     { c.take(n, bits.Unsigned) }

// str reads n 8-bit characters, keeping at most max of them.
func (c *cursor) str(n, max int) string {
	out := make([]byte, 0, n)
	for k := 0; k < n; k++ {
		ch := byte(c.u(8))
		if k < max {
			out = append(out, ch)
		}
	}
	return string(out)
}
