package bits

import (
	"errors"
	"fmt"
)

// Decode failure kinds, matched with errors.Is.
var (
	ErrTruncated   = errors.New("truncated message")
	ErrBadPreamble = errors.New("bad preamble")
	ErrBadType     = errors.New("unsupported message type")
	ErrBadLength   = errors.New("bad message length")
)

// DecodeError names the protocol and the bit offset where decoding failed.
type DecodeError struct {
	Protocol string
	Offset   int
	Kind     error
	Detail   string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v at bit %d", e.Protocol, e.Kind, e.Offset)
	}
	return fmt.Sprintf("%s: %v at bit %d: %s", e.Protocol, e.Kind, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Kind }

// Errorf builds a DecodeError.
func Errorf(protocol string, offset int, kind error, format string, args ...any) *DecodeError {
	return &DecodeError{Protocol: protocol, Offset: offset, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
