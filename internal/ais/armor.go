package ais

import "gpsd-ng/internal/bits"

// Dearmor converts an AIVDM payload field to packed bits. pad is the number
// of fill bits at the end of the last character.
func Dearmor(payload string, pad int) ([]byte, int, error) {
	if pad < 0 || pad > 5 {
		return nil, 0, bits.Errorf(protocol, 0, bits.ErrBadLength, "fill bits %d", pad)
	}
	nbits := len(payload) * 6
	if nbits > MaxPayloadBits {
		return nil, 0, bits.Errorf(protocol, MaxPayloadBits, bits.ErrBadLength, "payload of %d bits", nbits)
	}
	out := make([]byte, (nbits+7)/8)
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c < '0' || c > 'w' || (c > 'W' && c < '`') {
			return nil, 0, bits.Errorf(protocol, i*6, bits.ErrBadLength, "invalid armor character %q", c)
		}
		v := c - '0'
		if v > 40 {
			v -= 8
		}
		for b := 0; b < 6; b++ {
			if v&(0x20>>b) != 0 {
				pos := i*6 + b
				out[pos/8] |= 0x80 >> (pos % 8)
			}
		}
	}
	if pad > nbits {
		pad = nbits
	}
	return out, nbits - pad, nil
}
