// Package bitstest builds bit-packed buffers for decoder tests.
package bitstest

// Writer appends MSB-first bit fields.
type Writer struct {
	buf []byte
	n   int
}

// Put appends the low width bits of v.
func (w *Writer) Put(v int64, width int) *Writer {
	for i := width - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if uint64(v)>>uint(i)&1 != 0 {
			w.buf[w.n/8] |= 0x80 >> uint(w.n%8)
		}
		w.n++
	}
	return w
}

// PutSM appends v as a sign-magnitude field.
func (w *Writer) PutSM(v int64, width int) *Writer {
	if v < 0 {
		return w.Put(1<<(width-1)|-v, width)
	}
	return w.Put(v, width)
}

// PutString appends s using width bits per byte.
func (w *Writer) PutString(s string, width int) *Writer {
	for i := 0; i < len(s); i++ {
		w.Put(int64(s[i]), width)
	}
	return w
}

// Pad appends zero bits up to the next multiple of m.
func (w *Writer) Pad(m int) *Writer {
	for w.n%m != 0 {
		w.Put(0, 1)
	}
	return w
}

// Len is the number of bits written.
func (w *Writer) Len() int { return w.n }

// Bytes returns the packed buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Words24 splits the buffer into 24-bit data words and stores each one in a
// big-endian 32-bit slot above six zero parity bits.
func (w *Writer) Words24() []byte {
	w.Pad(24)
	out := make([]byte, 0, w.n/24*4)
	for i := 0; i < len(w.buf); i += 3 {
		d := uint32(w.buf[i])<<16 | uint32(w.buf[i+1])<<8 | uint32(w.buf[i+2])
		v := d << 6
		out = append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return out
}
