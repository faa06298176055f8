package animation

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"io"
	"time"

	"github.com/deepteams/vpixels/gif"
)

// maxDelay is the longest frame delay a graphics control extension holds,
// in hundredths of a second.
const maxDelay = 0xFFFF

// maxLoopCount is the largest count of the looping application extension.
const maxLoopCount = 0xFFFF

// maxPaletteColors leaves one of the 256 color table entries for the
// transparent color.
const maxPaletteColors = 255

// EncodeOptions configures the Encoder.
type EncodeOptions struct {
	// LoopCount is the number of times to loop; 0 loops forever.
	LoopCount int

	// Palette is the set of colors frames are reduced to. It defaults to
	// palette.WebSafe and is truncated to 255 colors.
	Palette color.Palette

	// Dither enables Floyd-Steinberg error diffusion when reducing colors.
	Dither bool
}

type encFrame struct {
	img     *image.Paletted // positioned on the canvas
	delay   int
	dispose DisposeMethod
}

// Encoder builds an animated GIF from full canvas images.
//
// The first frame covers the whole canvas. Each later frame is reduced to
// the rectangle that changed since the previous canvas and kept in place
// after display. Identical canvases extend the previous frame's delay.
// When a canvas turns opaque pixels transparent, which drawing over the
// previous canvas cannot do, the previous frame is widened to the whole
// canvas and disposed to background, and the new frame covers the whole
// canvas.
//
// Pixels with alpha below one half are written transparent and all others
// opaque. A single frame file has no graphics control extension, so its
// delay and transparency are not stored.
type Encoder struct {
	w      io.Writer
	width  int
	height int
	opts   EncodeOptions
	closed bool

	frames     []encFrame
	prevCanvas *image.NRGBA
}

// clampLoopCount clamps a loop count to [0, maxLoopCount].
func clampLoopCount(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxLoopCount {
		return maxLoopCount
	}
	return v
}

// NewEncoder creates an Encoder writing to w on Close. opts may be nil.
func NewEncoder(w io.Writer, canvasWidth, canvasHeight int, opts *EncodeOptions) *Encoder {
	enc := &Encoder{
		w:      w,
		width:  canvasWidth,
		height: canvasHeight,
	}
	if opts != nil {
		enc.opts = *opts
	}
	enc.opts.LoopCount = clampLoopCount(enc.opts.LoopCount)
	if enc.opts.Palette == nil {
		enc.opts.Palette = palette.WebSafe
	}
	if len(enc.opts.Palette) > maxPaletteColors {
		enc.opts.Palette = enc.opts.Palette[:maxPaletteColors]
	}
	return enc
}

// toDelay converts a duration to hundredths of a second, rounding to
// nearest.
func toDelay(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + 5*time.Millisecond) / (10 * time.Millisecond))
}

// AddFrame adds a canvas shown for duration. img is drawn at the canvas
// origin and may not be larger than the canvas; uncovered pixels are
// transparent.
func (e *Encoder) AddFrame(img image.Image, duration time.Duration) error {
	if e.closed {
		return ErrClosed
	}
	if e.width <= 0 || e.width > 0xFFFF || e.height <= 0 || e.height > 0xFFFF {
		return fmt.Errorf("%w: %dx%d", ErrCanvasSize, e.width, e.height)
	}
	if img == nil {
		return ErrNilImage
	}
	if b := img.Bounds(); b.Dx() > e.width || b.Dy() > e.height {
		return fmt.Errorf("%w: %dx%d on a %dx%d canvas", ErrFrameOutOfRect, b.Dx(), b.Dy(), e.width, e.height)
	}

	curr := image.NewNRGBA(image.Rect(0, 0, e.width, e.height))
	copyImageRect(curr, toNRGBA(img), 0, 0)
	flattenAlpha(curr)
	delay := toDelay(duration)
	full := curr.Bounds()

	if e.prevCanvas == nil {
		e.addFrame(curr, full, delay, DisposeKeep)
		return nil
	}
	if bytes.Equal(e.prevCanvas.Pix, curr.Pix) {
		e.increasePreviousDelay(delay)
		return nil
	}

	rect := findChangedRect(e.prevCanvas, curr)
	if revealsTransparency(e.prevCanvas, curr, rect) {
		last := &e.frames[len(e.frames)-1]
		last.img = e.quantize(e.prevCanvas, full)
		last.dispose = DisposeBackground
		rect = full
	}
	e.addFrame(curr, rect, delay, DisposeKeep)
	return nil
}

func (e *Encoder) addFrame(canvas *image.NRGBA, rect image.Rectangle, delay int, dispose DisposeMethod) {
	e.frames = append(e.frames, encFrame{
		img:     e.quantize(canvas, rect),
		delay:   min(delay, maxDelay),
		dispose: dispose,
	})
	e.prevCanvas = canvas
	for delay -= maxDelay; delay > 0; delay -= maxDelay {
		e.frames = append(e.frames, fillerFrame(min(delay, maxDelay)))
	}
}

// increasePreviousDelay merges an identical canvas into the previous
// frame. Delays past maxDelay continue in 1x1 transparent filler frames,
// which leave the canvas unchanged.
func (e *Encoder) increasePreviousDelay(delay int) {
	last := &e.frames[len(e.frames)-1]
	total := last.delay + delay
	last.delay = min(total, maxDelay)
	for total -= last.delay; total > 0; {
		d := min(total, maxDelay)
		e.frames = append(e.frames, fillerFrame(d))
		total -= d
	}
}

func fillerFrame(delay int) encFrame {
	return encFrame{
		img:     image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.RGBA{}}),
		delay:   delay,
		dispose: DisposeKeep,
	}
}

// quantize reduces rect of canvas to the encoder palette. Transparent
// pixels get an extra palette entry with zero alpha.
func (e *Encoder) quantize(canvas *image.NRGBA, rect image.Rectangle) *image.Paletted {
	base := e.opts.Palette
	dst := image.NewPaletted(rect, base)
	var drawer draw.Drawer = draw.Src
	if e.opts.Dither {
		drawer = draw.FloydSteinberg
	}
	drawer.Draw(dst, rect, canvas, rect.Min)

	trans := uint8(len(base))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if canvas.Pix[canvas.PixOffset(x, y)+3] != 0 {
				continue
			}
			if len(dst.Palette) == len(base) {
				dst.Palette = append(base[:len(base):len(base)], color.RGBA{})
			}
			dst.Pix[dst.PixOffset(x, y)] = trans
		}
	}
	return dst
}

// flattenAlpha makes every pixel either fully transparent or opaque.
func flattenAlpha(m *image.NRGBA) {
	for i := 0; i+3 < len(m.Pix); i += 4 {
		if m.Pix[i+3] < 0x80 {
			clear(m.Pix[i : i+4])
		} else {
			m.Pix[i+3] = 0xFF
		}
	}
}

// revealsTransparency reports whether a pixel of rect is opaque in prev
// and transparent in curr.
func revealsTransparency(prev, curr *image.NRGBA, rect image.Rectangle) bool {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			off := prev.PixOffset(x, y) + 3
			if prev.Pix[off] != 0 && curr.Pix[off] == 0 {
				return true
			}
		}
	}
	return false
}

// GIF returns the animation built from the frames added so far.
func (e *Encoder) GIF() (*gif.GIF, error) {
	if len(e.frames) == 0 {
		return nil, ErrNoFrames
	}
	g, err := gif.New(8, e.width, e.height, len(e.frames), false)
	if err != nil {
		return nil, err
	}
	if len(e.frames) > 1 {
		if err := g.SetLoopCount(e.opts.LoopCount); err != nil {
			return nil, err
		}
	}
	for i, f := range e.frames {
		m, err := g.Image(i)
		if err != nil {
			return nil, err
		}
		r := f.img.Rect
		if err := m.Crop(r.Min.X, r.Min.Y, r.Dx(), r.Dy()); err != nil {
			return nil, fmt.Errorf("animation: frame %d: %w", i, err)
		}
		if err := m.SetPaletted(f.img); err != nil {
			return nil, fmt.Errorf("animation: frame %d: %w", i, err)
		}
		if m.SingleImage() {
			continue
		}
		if err := m.SetDelay(f.delay); err != nil {
			return nil, err
		}
		if err := m.SetDisposalMethod(int(f.dispose)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Close writes the GIF. Further calls do nothing.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	g, err := e.GIF()
	if err != nil {
		return err
	}
	return g.Encode(e.w)
}

// findChangedRect computes the bounding rectangle of pixels that differ
// between prev and curr. Both images must have the same dimensions.
// Returns an empty rectangle if all pixels are identical.
//
// Uses bytes.Equal per row to skip identical rows, then narrows X
// boundaries progressively within changed rows.
func findChangedRect(prev, curr *image.NRGBA) image.Rectangle {
	w := prev.Bounds().Dx()
	h := prev.Bounds().Dy()
	if w == 0 || h == 0 {
		return image.Rectangle{}
	}
	stride := prev.Stride
	rowLen := w * 4

	minY := h
	for y := 0; y < h; y++ {
		off := y * stride
		if !bytes.Equal(prev.Pix[off:off+rowLen], curr.Pix[off:off+rowLen]) {
			minY = y
			break
		}
	}
	if minY == h {
		return image.Rectangle{}
	}

	maxY := minY + 1
	for y := h - 1; y > minY; y-- {
		off := y * stride
		if !bytes.Equal(prev.Pix[off:off+rowLen], curr.Pix[off:off+rowLen]) {
			maxY = y + 1
			break
		}
	}

	minX := w
	maxX := 0
	for y := minY; y < maxY; y++ {
		rowOff := y * stride
		for x := 0; x < minX; x++ {
			off := rowOff + x*4
			if !bytes.Equal(prev.Pix[off:off+4], curr.Pix[off:off+4]) {
				minX = x
				break
			}
		}
		for x := w - 1; x >= maxX; x-- {
			off := rowOff + x*4
			if !bytes.Equal(prev.Pix[off:off+4], curr.Pix[off:off+4]) {
				maxX = x + 1
				break
			}
		}
		if minX == 0 && maxX == w {
			break
		}
	}

	if maxX <= minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// copyImageRect copies src pixels onto dst at the given offset.
func copyImageRect(dst *image.NRGBA, src *image.NRGBA, offX, offY int) {
	sb := src.Bounds()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		dy := y - sb.Min.Y + offY
		if dy < 0 || dy >= dst.Bounds().Dy() {
			continue
		}
		srcOff := (y - sb.Min.Y) * src.Stride
		dstOff := dy*dst.Stride + offX*4
		w := sb.Dx()
		if offX+w > dst.Bounds().Dx() {
			w = dst.Bounds().Dx() - offX
		}
		if w > 0 {
			copy(dst.Pix[dstOff:dstOff+w*4], src.Pix[srcOff:srcOff+w*4])
		}
	}
}
