// Package gif reads, edits and writes GIF87a/GIF89a files.
//
// A GIF is kept as the ordered list of blocks found in the file (image
// descriptors and extensions), so files round-trip without losing comments
// or application data. Images are views over that list: an image is an
// image descriptor, optionally preceded by a graphics control extension
// that carries its delay, disposal method and transparent color.
//
// Interlaced images are not supported.
package gif

import (
	"errors"
	"fmt"

	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/palette"
)

// Errors returned by Decode and the editing methods.
var (
	ErrNotGIF          = errors.New("gif: not a GIF file")
	ErrNoTrailer       = errors.New("gif: not a valid GIF file")
	ErrInterlaced      = errors.New("gif: interlaced image not supported")
	ErrImageDataSize   = errors.New("gif: wrong image data size")
	ErrBitsPerPixel    = errors.New("gif: color resolution not supported")
	ErrInvalidSize     = errors.New("gif: invalid image dimensions")
	ErrIndexOutOfRange = errors.New("gif: index out of range")
	ErrColorIndex      = errors.New("gif: color index out of range")
	ErrNoColorTable    = errors.New("gif: no color table")
	ErrColorTableSize  = errors.New("gif: color table size exceeds limit")
	ErrSingleImage     = errors.New("gif: single image has no graphics control")
	ErrCrop            = errors.New("gif: crop rectangle out of bounds")
	ErrXOutOfRange     = errors.New("gif: x out of range")
	ErrYOutOfRange     = errors.New("gif: y out of range")
	ErrDisposal        = errors.New("gif: disposal method out of range")
	ErrGraphicsControl = errors.New("gif: malformed graphics control extension")
	ErrNoLoop          = errors.New("gif: no looping application extension")
	ErrIncompatible    = errors.New("gif: images have different dimensions")
)

// builtWith is the comment stamped into every encoded file.
const builtWith = "Built with vpixels " + container.Version

// Supported reports whether bpp is a valid color resolution for New and
// SetBitsPerPixel.
func Supported(bpp int) bool {
	return bpp >= 2 && bpp <= 8
}

// GIF is a decoded or newly created GIF file.
type GIF struct {
	version string
	screen  screen
	blocks  []block
	images  []*Image
}

// New creates a GIF of the given color resolution and logical screen size
// holding images blank images that cover the whole screen.
//
// With more than one image the file is an animation: it starts with a
// looping application extension and each image gets a graphics control
// extension. A single image has neither. When globalColorTable is false
// every image carries its own color table. New color tables have 1<<bpp
// entries, all white.
func New(bpp, width, height, images int, globalColorTable bool) (*GIF, error) {
	if !Supported(bpp) {
		return nil, fmt.Errorf("%w: %d", ErrBitsPerPixel, bpp)
	}
	if width < 0 || width > 0xFFFF || height < 0 || height > 0xFFFF {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	g := &GIF{
		version: container.GIFVersion89a,
		screen:  newScreen(bpp, width, height, globalColorTable),
	}
	if images > 1 {
		g.blocks = append(g.blocks, newLoopExtension())
	}
	for i := 0; i < max(images, 1); i++ {
		if images > 1 {
			g.blocks = append(g.blocks, newGraphicsControl())
		}
		g.blocks = append(g.blocks, newImageDescriptor(bpp, width, height, !globalColorTable))
	}
	g.images = buildImages(g)
	return g, nil
}

// Clone returns a deep copy of g.
func (g *GIF) Clone() *GIF {
	c := &GIF{version: g.version, screen: g.screen.clone()}
	c.blocks = make([]block, len(g.blocks))
	for i, b := range g.blocks {
		c.blocks[i] = b.clone()
	}
	c.images = buildImages(c)
	return c
}

// Version returns "GIF87a" or "GIF89a".
func (g *GIF) Version() string {
	return container.GIFSignature + g.version
}

// BitsPerPixel returns the color resolution of the logical screen.
func (g *GIF) BitsPerPixel() int {
	return g.screen.resolution()
}

// SetBitsPerPixel changes the color resolution. Images without a local
// color table follow the new depth, and a global color table is resized to
// 1<<bpp entries.
func (g *GIF) SetBitsPerPixel(bpp int) error {
	if !Supported(bpp) {
		return fmt.Errorf("%w: %d", ErrBitsPerPixel, bpp)
	}
	g.screen.setResolution(bpp)
	for _, img := range g.images {
		if !img.HasColorTable() {
			img.desc.bpp = uint8(bpp)
		}
	}
	if g.screen.hasTable() {
		g.screen.resizeTable(1 << bpp)
	}
	return nil
}

func (g *GIF) Width() int  { return int(g.screen.width) }
func (g *GIF) Height() int { return int(g.screen.height) }

// HasColorTable reports whether the file has a global color table.
func (g *GIF) HasColorTable() bool {
	return g.screen.hasTable()
}

func (g *GIF) ColorTableSize() int {
	return g.screen.table.Size()
}

// SetColorTableSize resizes the global color table. The size is rounded up
// to a power of two; existing entries are kept and new ones are white.
// Size 0 removes the table and resets the background color.
func (g *GIF) SetColorTableSize(size int) error {
	if size < 0 || size > palette.MaxSize {
		return fmt.Errorf("%w: %d (max %d)", ErrColorTableSize, size, palette.MaxSize)
	}
	if !g.screen.resizeTable(size) {
		return nil
	}
	bpp := g.screen.resolution()
	for _, img := range g.images {
		if !img.HasColorTable() {
			img.desc.bpp = uint8(max(bpp, minCodeSize))
		}
	}
	return nil
}

func (g *GIF) ColorTableSorted() bool {
	return g.screen.packed&container.ScreenSortFlag != 0
}

// SetPaletteColor sets entry i of the global color table.
func (g *GIF) SetPaletteColor(i int, r, gr, b uint8) error {
	return tableSet(g.screen.table, i, r, gr, b)
}

// PaletteColor returns entry i of the global color table.
func (g *GIF) PaletteColor(i int) (r, gr, b uint8, err error) {
	return tableGet(g.screen.table, i)
}

// SetBackground sets the background color index. It requires a global
// color table that contains idx.
func (g *GIF) SetBackground(idx int) error {
	if !g.screen.hasTable() {
		return ErrNoColorTable
	}
	if idx < 0 || idx >= g.screen.table.Size() {
		return fmt.Errorf("%w: %d (size %d)", ErrColorIndex, idx, g.screen.table.Size())
	}
	g.screen.background = uint8(idx)
	return nil
}

func (g *GIF) Background() int { return int(g.screen.background) }

// AspectRatio returns the raw pixel aspect ratio byte of the screen
// descriptor.
func (g *GIF) AspectRatio() uint8 { return g.screen.aspect }

// LoopCount returns the number of times an animation repeats, 0 meaning
// forever. ok is false when the file has no looping extension.
func (g *GIF) LoopCount() (n int, ok bool) {
	if app := g.loopExtension(); app != nil {
		return app.loopCount(), true
	}
	return 0, false
}

// SetLoopCount sets the repeat count of the looping extension.
func (g *GIF) SetLoopCount(n int) error {
	if n < 0 || n > 0xFFFF {
		return fmt.Errorf("%w: loop count %d", ErrIndexOutOfRange, n)
	}
	app := g.loopExtension()
	if app == nil {
		return ErrNoLoop
	}
	app.setLoopCount(uint16(n))
	return nil
}

func (g *GIF) loopExtension() *applicationExtension {
	for _, b := range g.blocks {
		if app, ok := b.(*applicationExtension); ok && app.isLoop() {
			return app
		}
	}
	return nil
}

// Comments returns the text of every comment extension in file order.
func (g *GIF) Comments() []string {
	var out []string
	for _, b := range g.blocks {
		if c, ok := b.(*commentExtension); ok {
			out = append(out, string(c.text))
		}
	}
	return out
}

// Len returns the number of images.
func (g *GIF) Len() int {
	return len(g.images)
}

// Image returns image i.
func (g *GIF) Image(i int) (*Image, error) {
	if i < 0 || i >= len(g.images) {
		return nil, fmt.Errorf("%w: image %d of %d", ErrIndexOutOfRange, i, len(g.images))
	}
	return g.images[i], nil
}

// buildImages pairs each image descriptor with the graphics control
// extension that precedes it. Blocks between the two are ignored; a second
// control extension replaces the first.
func buildImages(g *GIF) []*Image {
	var (
		out []*Image
		gce *graphicsControl
	)
	for _, b := range g.blocks {
		switch b := b.(type) {
		case *graphicsControl:
			gce = b
		case *imageDescriptor:
			out = append(out, &Image{gif: g, gce: gce, desc: b})
			gce = nil
		}
	}
	return out
}

func tableSet(t *palette.Table, i int, r, g, b uint8) error {
	if err := t.Set(i, r, g, b); err != nil {
		return tableErr(err)
	}
	return nil
}

func tableGet(t *palette.Table, i int) (r, g, b uint8, err error) {
	r, g, b, err = t.Get(i)
	if err != nil {
		return 0, 0, 0, tableErr(err)
	}
	return r, g, b, nil
}

func tableErr(err error) error {
	switch {
	case errors.Is(err, palette.ErrNoTable):
		return fmt.Errorf("%w: %v", ErrNoColorTable, err)
	case errors.Is(err, palette.ErrIndexOutOfRange):
		return fmt.Errorf("%w: %v", ErrColorIndex, err)
	}
	return err
}
