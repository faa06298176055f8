package lzw

import (
	"errors"
	"fmt"

	"github.com/deepteams/vpixels/internal/bitio"
)

// Decoder expands GIF LZW codes into pixel indices. A Decoder can be reused
// across calls but must not be shared between goroutines.
type Decoder struct {
	s      session
	prefix [tableSize]uint16
	suffix [tableSize]uint8
	stack  [tableSize]uint8
}

// NewDecoder returns a Decoder ready for use.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode appends the pixels encoded in codes to dst and returns the
// extended slice.
//
// The stream must open with a clear code. Input that ends before the
// end-of-information code is accepted and yields the pixels read so far.
// Once the table holds 4096 codes no further entries are added until the
// next clear code.
func (d *Decoder) Decode(dst []byte, bpp int, codes []byte) ([]byte, error) {
	if err := d.s.init(bpp); err != nil {
		return dst, err
	}
	clear(d.prefix[:])
	clear(d.suffix[:])
	r := bitio.NewCodeReader(codes)
	s := &d.s

	code, err := r.Read(s.width)
	if err != nil {
		return dst, err
	}
	if code != s.clear {
		return dst, fmt.Errorf("%w: got %d, want %d", ErrNotClearCode, code, s.clear)
	}

	prev := code
	for code != s.eoi {
		if code == s.clear {
			s.restart()
			code = d.next(r)
			if code == s.eoi {
				break
			}
			if code >= s.clear {
				return dst, fmt.Errorf("%w: code %d", ErrNotPixel, code)
			}
			dst = append(dst, uint8(code))
		} else {
			var first uint8
			if code < s.free {
				dst, first, err = d.expand(dst, code)
			} else {
				dst, first, err = d.expand(dst, prev)
				dst = append(dst, first)
			}
			if err != nil {
				return dst, err
			}
			if s.free < tableSize {
				d.prefix[s.free] = prev
				d.suffix[s.free] = first
				s.free++
			}
		}

		if s.free == s.limit && s.width < MaxCodeWidth {
			s.width++
			s.limit <<= 1
		}
		prev = code
		code = d.next(r)
	}
	return dst, nil
}

// next reads a code at the current width. Exhausted input reads as the
// end-of-information code.
func (d *Decoder) next(r *bitio.CodeReader) uint16 {
	code, err := r.Read(d.s.width)
	if errors.Is(err, bitio.ErrNoMoreCode) {
		return d.s.eoi
	}
	return code
}

// expand appends the string for code and returns its first pixel.
func (d *Decoder) expand(dst []byte, code uint16) ([]byte, uint8, error) {
	if code < d.s.clear {
		return append(dst, uint8(code)), uint8(code), nil
	}
	n := 0
	for code > d.s.clear {
		if n == len(d.stack) {
			return dst, 0, fmt.Errorf("%w: string for code %d too long", ErrCorrupt, code)
		}
		d.stack[n] = d.suffix[code]
		code = d.prefix[code]
		n++
	}
	first := uint8(code)
	dst = append(dst, first)
	for n > 0 {
		n--
		dst = append(dst, d.stack[n])
	}
	return dst, first, nil
}
