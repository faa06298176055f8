// Package bitio provides the bit-level I/O primitives of the GIF codec.
//
// GIF image data is a sequence of variable-width LZW codes packed
// least-significant-bit first into a byte stream. CodeReader and CodeWriter
// move between that byte stream and individual codes.
package bitio

import "errors"

// MaxCodeWidth is the largest code width GIF allows.
const MaxCodeWidth = 12

// ErrNoMoreCode is returned when the input ends before a full code has
// been buffered.
var ErrNoMoreCode = errors.New("bitio: no more code")

// CodeReader reads LSB-first codes from an immutable byte slice.
//
// The accumulator holds fewer than 8+width bits between calls, so a 32-bit
// register covers the 12-bit maximum plus two bytes of look-ahead.
type CodeReader struct {
	buf  []byte // input byte buffer
	pos  int    // next byte to load
	acc  uint32 // buffered bits, oldest in the low end
	nacc uint   // number of valid bits in acc
}

// NewCodeReader creates a CodeReader over data.
func NewCodeReader(data []byte) *CodeReader {
	return &CodeReader{buf: data}
}

// Read returns the next width-bit code. width must be in [1, MaxCodeWidth].
func (r *CodeReader) Read(width uint) (uint16, error) {
	for r.nacc < width {
		if r.pos >= len(r.buf) {
			return 0, ErrNoMoreCode
		}
		r.acc |= uint32(r.buf[r.pos]) << r.nacc
		r.pos++
		r.nacc += 8
	}
	code := uint16(r.acc & (1<<width - 1))
	r.acc >>= width
	r.nacc -= width
	return code, nil
}

// Remaining returns the number of input bytes not yet loaded.
func (r *CodeReader) Remaining() int {
	return len(r.buf) - r.pos
}
