// Package lzw implements the variable-width LZW coder used by GIF image
// data.
//
// Codes are packed least-significant-bit first. For b bits per pixel the
// clear code is 1<<b, the end-of-information code is clear+1, and the code
// width starts at b+1 and grows to at most 12 bits:
//
//	bpp  width  clear  eoi  first free  first growth
//	 1     2      2     3       4        when code 4 is added
//	 2     3      4     5       6        when code 8 is added
//	 8     9    256   257     258        when code 512 is added
//
// The byte stream produced here is the payload of the GIF image data
// sub-blocks; splitting it into sub-blocks is left to the caller.
package lzw

import (
	"errors"
	"fmt"

	"github.com/deepteams/vpixels/internal/bitio"
)

// MaxCodeWidth is the largest code width.
const MaxCodeWidth = bitio.MaxCodeWidth

// maxCode is the largest code value.
const maxCode = tableSize - 1

// Errors returned by the encoder and decoder.
var (
	ErrBitsPerPixel = errors.New("lzw: bits per pixel out of range")
	ErrNotClearCode = errors.New("lzw: not a clear code, data may be corrupted")
	ErrNotPixel     = errors.New("lzw: not a pixel, data may be corrupted")
	ErrCorrupt      = errors.New("lzw: data corrupted")
)

// session is the code-width bookkeeping shared by encoder and decoder. It
// is reinitialized at the start of a stream and on every clear code.
type session struct {
	initWidth uint
	clear     uint16
	eoi       uint16

	width uint   // current code width
	limit uint16 // code value at which width grows
	free  uint16 // next free code
}

func (s *session) init(bpp int) error {
	if bpp < 1 || bpp > 8 {
		return fmt.Errorf("%w: %d", ErrBitsPerPixel, bpp)
	}
	s.initWidth = uint(bpp) + 1
	s.clear = 1 << bpp
	s.eoi = s.clear + 1
	s.restart()
	return nil
}

func (s *session) restart() {
	s.width = s.initWidth
	s.limit = 1 << s.initWidth
	s.free = s.clear + 2
}

// Encode compresses pixels at bpp bits per pixel with a fresh Encoder.
func Encode(bpp int, pixels []byte) ([]byte, error) {
	return NewEncoder().Encode(nil, bpp, pixels)
}

// Decode expands codes at bpp bits per pixel with a fresh Decoder.
func Decode(bpp int, codes []byte) ([]byte, error) {
	return NewDecoder().Decode(nil, bpp, codes)
}
