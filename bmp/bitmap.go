// Package bmp reads, writes and edits uncompressed Windows bitmaps with 1,
// 4, 8 or 24 bits per pixel.
//
// A Bitmap keeps its pixels exactly as they are laid out on disk, bottom
// row first, without the 4-byte row padding. Indexed bitmaps (1, 4 and 8
// bits) are edited through color indices into a table of blue, green, red
// entries; 24-bit bitmaps are edited through blue, green, red triples.
package bmp

import (
	"errors"
	"fmt"

	"github.com/deepteams/vpixels/internal/buffer"
	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/palette"
	"github.com/deepteams/vpixels/internal/raster"
)

// Common errors.
var (
	ErrNotBMP            = errors.New("bmp: not a BMP file")
	ErrInfoHeaderSize    = errors.New("bmp: wrong info header size")
	ErrUnsupportedDepth  = errors.New("bmp: color depth not supported")
	ErrCompressed        = errors.New("bmp: compressed bitmaps not supported")
	ErrInvalidFileHeader = errors.New("bmp: invalid file header")
	ErrInvalidInfoHeader = errors.New("bmp: invalid info header")
	ErrInvalidSize       = errors.New("bmp: invalid image dimensions")
	ErrTooLarge          = errors.New("bmp: image too large")
	ErrNotIndexed        = errors.New("bmp: not an indexed BMP")
	ErrIndexed           = errors.New("bmp: indexed BMP must use color index")

	// Range errors from pixel and color table access.
	ErrXOutOfRange  = raster.ErrXOutOfRange
	ErrYOutOfRange  = raster.ErrYOutOfRange
	ErrColorIndex   = raster.ErrColorIndex
	ErrPaletteIndex = palette.ErrIndexOutOfRange
)

// maxPixels bounds the pixel count accepted from a file header.
const maxPixels = 1 << 28

// Bitmap is an in-memory BMP image.
type Bitmap struct {
	layout raster.Layout
	table  *palette.Table // blue, green, red; empty for 24-bit
	pix    *buffer.Bytes  // unpadded rows, bottom row first
	xres   int32
	yres   int32
}

// Supported reports whether bpp is a color depth this package handles.
func Supported(bpp int) bool {
	return raster.Supported(bpp)
}

// New returns a width x height bitmap with every pixel and color table
// entry zero.
func New(bpp, width, height int) (*Bitmap, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if int64(width)*int64(height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}
	l, err := raster.New(bpp, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, bpp)
	}
	size := 0
	if bpp <= 8 {
		size = 1 << bpp
	}
	tbl, err := palette.New(size)
	if err != nil {
		return nil, err
	}
	pix, err := buffer.New(raster.ByteArraySize(l))
	if err != nil {
		return nil, err
	}
	return &Bitmap{
		layout: l,
		table:  tbl,
		pix:    pix,
		xres:   container.BMPResolution,
		yres:   container.BMPResolution,
	}, nil
}

func (b *Bitmap) BitsPerPixel() int { return b.layout.BitsPerPixel() }
func (b *Bitmap) Width() int        { return b.layout.Width() }
func (b *Bitmap) Height() int       { return b.layout.Height() }

// ColorTableSize is 1<<bpp for indexed bitmaps and 0 for 24-bit ones.
func (b *Bitmap) ColorTableSize() int { return b.table.Size() }

// Indexed reports whether pixels are color indices.
func (b *Bitmap) Indexed() bool { return b.table.Size() != 0 }

// Resolution returns the horizontal and vertical resolution in pixels per
// meter.
func (b *Bitmap) Resolution() (x, y int) { return int(b.xres), int(b.yres) }

// SetResolution sets the resolution written to the file header.
func (b *Bitmap) SetResolution(x, y int) {
	b.xres, b.yres = int32(x), int32(y)
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	c := *b
	c.table = b.table.Clone()
	c.pix = b.pix.Clone()
	return &c
}

func (b *Bitmap) needIndexed() error {
	if !b.Indexed() {
		return ErrNotIndexed
	}
	return nil
}

func (b *Bitmap) needTrueColor() error {
	if b.Indexed() {
		return ErrIndexed
	}
	return nil
}

// SetAllIndex sets every pixel to color index idx.
func (b *Bitmap) SetAllIndex(idx uint8) error {
	if err := b.needIndexed(); err != nil {
		return err
	}
	if int(idx) >= b.table.Size() {
		return fmt.Errorf("%w: %d", ErrColorIndex, idx)
	}
	// Repeat idx across a whole byte, then fill.
	var v byte
	switch b.BitsPerPixel() {
	case 1:
		v = 0xFF * idx
	case 4:
		v = idx<<4 | idx
	default:
		v = idx
	}
	b.pix.Fill(v)
	return nil
}

// SetIndex sets the color index of pixel (x, y).
func (b *Bitmap) SetIndex(x, y int, idx uint8) error {
	if err := b.needIndexed(); err != nil {
		return err
	}
	off, bit, err := b.layout.Offset(x, y)
	if err != nil {
		return err
	}
	cur, err := b.pix.At(off)
	if err != nil {
		return err
	}
	v, err := b.layout.SetIndex(cur, bit, idx)
	if err != nil {
		return err
	}
	return b.pix.Set(off, v)
}

// Index returns the color index of pixel (x, y).
func (b *Bitmap) Index(x, y int) (uint8, error) {
	if err := b.needIndexed(); err != nil {
		return 0, err
	}
	off, bit, err := b.layout.Offset(x, y)
	if err != nil {
		return 0, err
	}
	cur, err := b.pix.At(off)
	if err != nil {
		return 0, err
	}
	return b.layout.Index(cur, bit)
}

// SetAllColors sets every pixel of a 24-bit bitmap.
func (b *Bitmap) SetAllColors(blue, green, red uint8) error {
	if err := b.needTrueColor(); err != nil {
		return err
	}
	p := b.pix.Bytes()
	for i := 0; i+2 < len(p); i += 3 {
		p[i], p[i+1], p[i+2] = blue, green, red
	}
	return nil
}

// SetColor sets pixel (x, y) of a 24-bit bitmap.
func (b *Bitmap) SetColor(x, y int, blue, green, red uint8) error {
	if err := b.needTrueColor(); err != nil {
		return err
	}
	off, _, err := b.layout.Offset(x, y)
	if err != nil {
		return err
	}
	p := b.pix.Bytes()
	p[off], p[off+1], p[off+2] = blue, green, red
	return nil
}

// Color returns pixel (x, y) of a 24-bit bitmap.
func (b *Bitmap) Color(x, y int) (blue, green, red uint8, err error) {
	if err = b.needTrueColor(); err != nil {
		return 0, 0, 0, err
	}
	off, _, err := b.layout.Offset(x, y)
	if err != nil {
		return 0, 0, 0, err
	}
	p := b.pix.Bytes()
	return p[off], p[off+1], p[off+2], nil
}

// SetPaletteColor sets color table entry i.
func (b *Bitmap) SetPaletteColor(i int, blue, green, red uint8) error {
	if err := b.needIndexed(); err != nil {
		return err
	}
	return b.table.Set(i, blue, green, red)
}

// PaletteColor returns color table entry i.
func (b *Bitmap) PaletteColor(i int) (blue, green, red uint8, err error) {
	if err = b.needIndexed(); err != nil {
		return 0, 0, 0, err
	}
	return b.table.Get(i)
}
