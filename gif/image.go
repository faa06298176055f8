package gif

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/palette"
)

// Disposal methods of the graphics control extension.
const (
	DisposalNone       = 0 // not specified
	DisposalKeep       = 1 // leave the image in place
	DisposalBackground = 2 // restore the area to the background
	DisposalPrevious   = 3 // restore the area to what it was before
)

// Image is one image of a GIF. It stays valid as long as the GIF it came
// from; edits are visible through the GIF.
type Image struct {
	gif  *GIF
	gce  *graphicsControl
	desc *imageDescriptor
}

// BitsPerPixel returns the LZW minimum code size of the image data, which
// bounds the pixel values to 1<<BitsPerPixel.
func (m *Image) BitsPerPixel() int { return int(m.desc.bpp) }

func (m *Image) Left() int   { return int(m.desc.left) }
func (m *Image) Top() int    { return int(m.desc.top) }
func (m *Image) Width() int  { return int(m.desc.width) }
func (m *Image) Height() int { return int(m.desc.height) }

// Bounds returns the image rectangle on the logical screen.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(m.Left(), m.Top(), m.Left()+m.Width(), m.Top()+m.Height())
}

// Crop shrinks the image to the given rectangle, expressed in screen
// coordinates. The rectangle must be non-empty and lie within the image.
func (m *Image) Crop(left, top, width, height int) error {
	d := m.desc
	l, t, w, h := int(d.left), int(d.top), int(d.width), int(d.height)
	switch {
	case left < l || left >= l+w:
		return fmt.Errorf("%w: left %d outside [%d, %d)", ErrCrop, left, l, l+w)
	case top < t || top >= t+h:
		return fmt.Errorf("%w: top %d outside [%d, %d)", ErrCrop, top, t, t+h)
	case width <= 0 || left+width > l+w:
		return fmt.Errorf("%w: width %d", ErrCrop, width)
	case height <= 0 || top+height > t+h:
		return fmt.Errorf("%w: height %d", ErrCrop, height)
	}
	if left == l && top == t && width == w && height == h {
		return nil
	}
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		src := (y+top-t)*w + left - l
		copy(pix[y*width:(y+1)*width], d.pix[src:src+width])
	}
	d.pix = pix
	d.left, d.top = uint16(left), uint16(top)
	d.width, d.height = uint16(width), uint16(height)
	return nil
}

// Interlaced is always false for decoded images, since interlaced input is
// rejected.
func (m *Image) Interlaced() bool {
	return m.desc.packed&container.ImageInterlaceFlag != 0
}

// CopyFrom replaces the pixels, color table and timing of m with those of
// src. Both images must have the same size; they may belong to different
// files.
func (m *Image) CopyFrom(src *Image) error {
	if m == src {
		return nil
	}
	if m.Width() != src.Width() || m.Height() != src.Height() {
		return fmt.Errorf("%w: %dx%d and %dx%d", ErrIncompatible,
			m.Width(), m.Height(), src.Width(), src.Height())
	}
	if m.gce != nil && src.gce != nil {
		*m.gce = *src.gce
	}
	*m.desc = *src.desc.clone().(*imageDescriptor)
	return nil
}

func (m *Image) offset(x, y int) (int, error) {
	if x < 0 || x >= m.Width() {
		return 0, fmt.Errorf("%w: %d (width %d)", ErrXOutOfRange, x, m.Width())
	}
	if y < 0 || y >= m.Height() {
		return 0, fmt.Errorf("%w: %d (height %d)", ErrYOutOfRange, y, m.Height())
	}
	return x + y*m.Width(), nil
}

func (m *Image) checkColorIndex(idx int) error {
	if n := m.CheckColorTable(); idx < 0 || idx >= n {
		return fmt.Errorf("%w: %d (table size %d)", ErrColorIndex, idx, n)
	}
	return nil
}

// CheckColorTable returns the size of the color table that applies to the
// image: the local table if it has one, else the global table.
func (m *Image) CheckColorTable() int {
	if m.HasColorTable() {
		return m.desc.table.Size()
	}
	return m.gif.ColorTableSize()
}

// SetAllPixels sets every pixel to color index idx.
func (m *Image) SetAllPixels(idx int) error {
	if err := m.checkColorIndex(idx); err != nil {
		return err
	}
	for i := range m.desc.pix {
		m.desc.pix[i] = uint8(idx)
	}
	return nil
}

// SetPixel sets the color index of pixel (x, y), relative to the image.
func (m *Image) SetPixel(x, y, idx int) error {
	if err := m.checkColorIndex(idx); err != nil {
		return err
	}
	i, err := m.offset(x, y)
	if err != nil {
		return err
	}
	m.desc.pix[i] = uint8(idx)
	return nil
}

// Pixel returns the color index of pixel (x, y).
func (m *Image) Pixel(x, y int) (int, error) {
	i, err := m.offset(x, y)
	if err != nil {
		return 0, err
	}
	return int(m.desc.pix[i]), nil
}

// RGB returns the color of pixel (x, y) looked up in the local color table,
// or in the global one when the image has none.
func (m *Image) RGB(x, y int) (r, g, b uint8, err error) {
	t := m.colorTable()
	if t == nil {
		return 0, 0, 0, fmt.Errorf("%w: neither global nor local", ErrNoColorTable)
	}
	idx, err := m.Pixel(x, y)
	if err != nil {
		return 0, 0, 0, err
	}
	return tableGet(t, idx)
}

func (m *Image) colorTable() *palette.Table {
	if m.HasColorTable() {
		return m.desc.table
	}
	if m.gif.HasColorTable() {
		return m.gif.screen.table
	}
	return nil
}

// HasColorTable reports whether the image has a local color table.
func (m *Image) HasColorTable() bool {
	return m.desc.packed&container.ImageColorTableFlag != 0
}

func (m *Image) ColorTableSize() int {
	return m.desc.table.Size()
}

// SetColorTableSize resizes the local color table, rounding up to a power
// of two. It may not exceed 1<<BitsPerPixel entries. Size 0 removes the
// table.
func (m *Image) SetColorTableSize(size int) error {
	if size < 0 || size > 1<<m.desc.bpp {
		return fmt.Errorf("%w: %d (max %d)", ErrColorTableSize, size, 1<<m.desc.bpp)
	}
	resizeTable(&m.desc.table, &m.desc.packed, size)
	return nil
}

func (m *Image) ColorTableSorted() bool {
	return m.desc.packed&container.ImageSortFlag != 0
}

// SetPaletteColor sets entry i of the local color table.
func (m *Image) SetPaletteColor(i int, r, g, b uint8) error {
	return tableSet(m.desc.table, i, r, g, b)
}

// PaletteColor returns entry i of the local color table.
func (m *Image) PaletteColor(i int) (r, g, b uint8, err error) {
	return tableGet(m.desc.table, i)
}

// SingleImage reports whether the image has no graphics control extension.
// The timing and transparency accessors fail on such images.
func (m *Image) SingleImage() bool {
	return m.gce == nil
}

func (m *Image) control() (*graphicsControl, error) {
	if m.gce == nil {
		return nil, ErrSingleImage
	}
	return m.gce, nil
}

// Delay returns the frame delay in hundredths of a second.
func (m *Image) Delay() (int, error) {
	c, err := m.control()
	if err != nil {
		return 0, err
	}
	return int(c.delay), nil
}

// SetDelay sets the frame delay in hundredths of a second.
func (m *Image) SetDelay(cs int) error {
	c, err := m.control()
	if err != nil {
		return err
	}
	if cs < 0 || cs > 0xFFFF {
		return fmt.Errorf("%w: delay %d", ErrIndexOutOfRange, cs)
	}
	c.delay = uint16(cs)
	return nil
}

// Duration returns the frame delay as a time.Duration; single images have
// none.
func (m *Image) Duration() time.Duration {
	if m.gce == nil {
		return 0
	}
	return time.Duration(m.gce.delay) * 10 * time.Millisecond
}

func (m *Image) DisposalMethod() (int, error) {
	c, err := m.control()
	if err != nil {
		return 0, err
	}
	return c.disposal(), nil
}

// SetDisposalMethod sets the 3-bit disposal method. Values above
// DisposalPrevious are reserved but stored as given.
func (m *Image) SetDisposalMethod(method int) error {
	c, err := m.control()
	if err != nil {
		return err
	}
	if method < 0 || method > 7 {
		return fmt.Errorf("%w: %d", ErrDisposal, method)
	}
	c.packed = c.packed&^container.DisposalMask | uint8(method)<<container.DisposalShift
	return nil
}

// UserInput reports whether the image waits for user input before the
// next one is shown.
func (m *Image) UserInput() (bool, error) {
	c, err := m.control()
	if err != nil {
		return false, err
	}
	return c.packed&container.UserInputFlag != 0, nil
}

func (m *Image) HasTransColor() (bool, error) {
	c, err := m.control()
	if err != nil {
		return false, err
	}
	return c.packed&container.TransparencyFlag != 0, nil
}

func (m *Image) SetHasTransColor(on bool) error {
	c, err := m.control()
	if err != nil {
		return err
	}
	if on {
		c.packed |= container.TransparencyFlag
	} else {
		c.packed &^= container.TransparencyFlag
	}
	return nil
}

// TransColor returns the transparent color index. It is meaningful only
// when HasTransColor is true.
func (m *Image) TransColor() (int, error) {
	c, err := m.control()
	if err != nil {
		return 0, err
	}
	return int(c.trans), nil
}

// SetTransColor sets the transparent color index; it must exist in the
// color table that applies to the image.
func (m *Image) SetTransColor(idx int) error {
	c, err := m.control()
	if err != nil {
		return err
	}
	if err := m.checkColorIndex(idx); err != nil {
		return err
	}
	c.trans = uint8(idx)
	return nil
}

// Paletted returns the image as an *image.Paletted positioned on the
// logical screen. The transparent color, if any, maps to color.Transparent.
// The pixels are copied.
func (m *Image) Paletted() (*image.Paletted, error) {
	t := m.colorTable()
	if t == nil {
		return nil, fmt.Errorf("%w: neither global nor local", ErrNoColorTable)
	}
	pal := make(color.Palette, t.Size())
	for i := range pal {
		r, g, b, _ := t.Get(i)
		pal[i] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	}
	// Indices past the table render black rather than panic in At.
	for _, v := range m.desc.pix {
		for int(v) >= len(pal) {
			pal = append(pal, color.RGBA{A: 0xFF})
		}
	}
	if m.gce != nil && m.gce.packed&container.TransparencyFlag != 0 && int(m.gce.trans) < len(pal) {
		pal[m.gce.trans] = color.RGBA{}
	}
	p := image.NewPaletted(m.Bounds(), pal)
	copy(p.Pix, m.desc.pix)
	return p, nil
}
