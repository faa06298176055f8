// Package raster maps pixel coordinates of a bottom-up BMP pixel array to
// byte and bit offsets, and packs color indices into bytes.
//
// One Layout variant exists per supported depth (1, 4, 8 and 24 bits per
// pixel). Bit offsets count from the most significant bit, so bit 0 holds
// the leftmost pixel of a byte.
package raster

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnsupportedDepth = errors.New("raster: color depth not supported")
	ErrInvalidSize      = errors.New("raster: invalid image dimensions")
	ErrXOutOfRange      = errors.New("raster: x out of range")
	ErrYOutOfRange      = errors.New("raster: y out of range")
	ErrBitIndex         = errors.New("raster: bit index out of range")
	ErrColorIndex       = errors.New("raster: color index out of range")
	ErrNoColorTable     = errors.New("raster: no color table")
)

// Layout addresses pixels of one bit depth.
type Layout interface {
	// BitsPerPixel returns the depth this layout was built for.
	BitsPerPixel() int
	Width() int
	Height() int
	// RowLength is the unpadded length of a row in bytes.
	RowLength() int
	// Offset returns the byte index and bit index of pixel (x, y).
	Offset(x, y int) (byteIndex, bitIndex int, err error)
	// Index extracts the color index stored at bit in b.
	Index(b byte, bit int) (uint8, error)
	// SetIndex returns b with idx stored at bit.
	SetIndex(b byte, bit int, idx uint8) (byte, error)
}

// Supported reports whether bpp has a Layout.
func Supported(bpp int) bool {
	switch bpp {
	case 1, 4, 8, 24:
		return true
	}
	return false
}

// New returns the Layout for bpp over a width x height image.
func New(bpp, width, height int) (Layout, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	d := dims{w: width, h: height}
	switch bpp {
	case 1:
		d.row = (width + 7) / 8
		return &depth1{d}, nil
	case 4:
		d.row = (width + 1) / 2
		return &depth4{d}, nil
	case 8:
		d.row = width
		return &depth8{d}, nil
	case 24:
		d.row = 3 * width
		return &depth24{d}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, bpp)
}

// PaddingBytes returns the number of zero bytes that pad a row of rowLength
// bytes to a multiple of 4 in a BMP file.
func PaddingBytes(rowLength int) int {
	if r := rowLength % 4; r != 0 {
		return 4 - r
	}
	return 0
}

// ByteArraySize is the size of the in-memory pixel array (no padding).
func ByteArraySize(l Layout) int {
	return l.RowLength() * l.Height()
}

// ImageDataSize is the size of the pixel array as stored in a file,
// including row padding.
func ImageDataSize(l Layout) int {
	return (l.RowLength() + PaddingBytes(l.RowLength())) * l.Height()
}

type dims struct {
	w, h int
	row  int
}

func (d dims) Width() int     { return d.w }
func (d dims) Height() int    { return d.h }
func (d dims) RowLength() int { return d.row }

func (d dims) check(x, y int) error {
	if x < 0 || x >= d.w {
		return fmt.Errorf("%w: %d (width %d)", ErrXOutOfRange, x, d.w)
	}
	if y < 0 || y >= d.h {
		return fmt.Errorf("%w: %d (height %d)", ErrYOutOfRange, y, d.h)
	}
	return nil
}

// rowStart is the byte offset of row y; rows are stored bottom-up.
func (d dims) rowStart(y int) int {
	return (d.h - 1 - y) * d.row
}

// depth1 packs 8 pixels per byte, leftmost pixel in the high bit.
type depth1 struct{ dims }

func (*depth1) BitsPerPixel() int { return 1 }

func (l *depth1) Offset(x, y int) (int, int, error) {
	if err := l.check(x, y); err != nil {
		return 0, 0, err
	}
	return x/8 + l.rowStart(y), x % 8, nil
}

func (*depth1) Index(b byte, bit int) (uint8, error) {
	if bit < 0 || bit > 7 {
		return 0, fmt.Errorf("%w: %d", ErrBitIndex, bit)
	}
	return (b >> (7 - bit)) & 0x01, nil
}

func (*depth1) SetIndex(b byte, bit int, idx uint8) (byte, error) {
	if bit < 0 || bit > 7 {
		return b, fmt.Errorf("%w: %d", ErrBitIndex, bit)
	}
	if idx > 1 {
		return b, fmt.Errorf("%w: %d (max 1)", ErrColorIndex, idx)
	}
	mask := byte(0x80) >> bit
	if idx == 0 {
		return b &^ mask, nil
	}
	return b | mask, nil
}

// depth4 packs 2 pixels per byte; bit 0 is the high nibble, bit 4 the low.
type depth4 struct{ dims }

func (*depth4) BitsPerPixel() int { return 4 }

func (l *depth4) Offset(x, y int) (int, int, error) {
	if err := l.check(x, y); err != nil {
		return 0, 0, err
	}
	return x/2 + l.rowStart(y), (x & 1) << 2, nil
}

func (*depth4) Index(b byte, bit int) (uint8, error) {
	switch bit {
	case 0:
		return b >> 4, nil
	case 4:
		return b & 0x0F, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrBitIndex, bit)
}

func (*depth4) SetIndex(b byte, bit int, idx uint8) (byte, error) {
	if bit != 0 && bit != 4 {
		return b, fmt.Errorf("%w: %d", ErrBitIndex, bit)
	}
	if idx > 15 {
		return b, fmt.Errorf("%w: %d (max 15)", ErrColorIndex, idx)
	}
	if bit == 0 {
		return b&0x0F | idx<<4, nil
	}
	return b&0xF0 | idx, nil
}

// depth8 stores one index per byte.
type depth8 struct{ dims }

func (*depth8) BitsPerPixel() int { return 8 }

func (l *depth8) Offset(x, y int) (int, int, error) {
	if err := l.check(x, y); err != nil {
		return 0, 0, err
	}
	return x + l.rowStart(y), 0, nil
}

func (*depth8) Index(b byte, bit int) (uint8, error) {
	if bit != 0 {
		return 0, fmt.Errorf("%w: %d", ErrBitIndex, bit)
	}
	return b, nil
}

func (*depth8) SetIndex(b byte, bit int, idx uint8) (byte, error) {
	if bit != 0 {
		return b, fmt.Errorf("%w: %d", ErrBitIndex, bit)
	}
	return idx, nil
}

// depth24 stores blue, green, red bytes; it has no color indices.
type depth24 struct{ dims }

func (*depth24) BitsPerPixel() int { return 24 }

func (l *depth24) Offset(x, y int) (int, int, error) {
	if err := l.check(x, y); err != nil {
		return 0, 0, err
	}
	return 3*x + l.rowStart(y), 0, nil
}

func (*depth24) Index(byte, int) (uint8, error) {
	return 0, ErrNoColorTable
}

func (*depth24) SetIndex(b byte, _ int, _ uint8) (byte, error) {
	return b, ErrNoColorTable
}
