package animation

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/deepteams/vpixels/gif"
)

// Animation holds all frames and parameters of an animated GIF.
type Animation struct {
	// Frames holds the ordered animation frames.
	Frames []Frame

	// LoopCount is the number of times to loop the animation.
	// 0 means infinite looping; -1 means the file has no looping extension
	// and plays once.
	LoopCount int

	// BackgroundColor is the global color table entry named as background,
	// or zero when the file has no global table.
	BackgroundColor color.NRGBA

	// CanvasWidth is the canvas width in pixels.
	CanvasWidth int

	// CanvasHeight is the canvas height in pixels.
	CanvasHeight int
}

// Errors returned by the decoder and encoder.
var (
	ErrNoFrames       = errors.New("animation: no frames")
	ErrCanvasSize     = errors.New("animation: invalid canvas dimensions")
	ErrFrameOutOfRect = errors.New("animation: frame exceeds canvas bounds")
	ErrNilImage       = errors.New("animation: frame image is nil")
	ErrClosed         = errors.New("animation: encoder is closed")
)

// Decode reads a GIF from r and returns its frames.
func Decode(r io.Reader) (*Animation, error) {
	g, err := gif.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromGIF(g)
}

// FromGIF extracts the frames of g. Frame images are copies; later edits
// to g are not reflected.
func FromGIF(g *gif.GIF) (*Animation, error) {
	anim := &Animation{
		CanvasWidth:  g.Width(),
		CanvasHeight: g.Height(),
		LoopCount:    -1,
	}
	if n, ok := g.LoopCount(); ok {
		anim.LoopCount = n
	}
	if g.HasColorTable() {
		if r, gr, b, err := g.PaletteColor(g.Background()); err == nil {
			anim.BackgroundColor = color.NRGBA{R: r, G: gr, B: b, A: 0xFF}
		}
	}

	anim.Frames = make([]Frame, g.Len())
	for i := range anim.Frames {
		m, err := g.Image(i)
		if err != nil {
			return nil, err
		}
		p, err := m.Paletted()
		if err != nil {
			return nil, fmt.Errorf("animation: frame %d: %w", i, err)
		}
		// Frame images are anchored at (0,0); the offset carries the position.
		p.Rect = p.Rect.Sub(p.Rect.Min)
		f := Frame{
			Image:    p,
			Duration: m.Duration(),
			OffsetX:  m.Left(),
			OffsetY:  m.Top(),
		}
		if d, err := m.DisposalMethod(); err == nil {
			f.Dispose = DisposeMethod(d)
		}
		anim.Frames[i] = f
	}
	return anim, nil
}

// TotalDuration returns the sum of all frame durations.
func (a *Animation) TotalDuration() time.Duration {
	var total time.Duration
	for i := range a.Frames {
		total += a.Frames[i].Duration
	}
	return total
}

// GIF composites the frames of a and builds an animated GIF from the
// canvases with an Encoder. opts may be nil; its LoopCount is replaced by
// the one of a unless a plays once.
func (a *Animation) GIF(opts *EncodeOptions) (*gif.GIF, error) {
	var o EncodeOptions
	if opts != nil {
		o = *opts
	}
	if a.LoopCount >= 0 {
		o.LoopCount = a.LoopCount
	}
	enc := NewEncoder(nil, a.CanvasWidth, a.CanvasHeight, &o)
	dec := NewDecoder(a)
	for dec.HasNext() {
		canvas, d, err := dec.NextFrame()
		if err != nil {
			return nil, err
		}
		if err := enc.AddFrame(canvas, d); err != nil {
			return nil, err
		}
	}
	return enc.GIF()
}

// Encode writes the GIF built by a.GIF(opts) to w.
func (a *Animation) Encode(w io.Writer, opts *EncodeOptions) error {
	g, err := a.GIF(opts)
	if err != nil {
		return err
	}
	return g.Encode(w)
}

// --- Decoder: canvas reconstruction ---

// Decoder provides frame-by-frame canvas reconstruction. It keeps two
// buffers:
//   - currFrame: the current canvas being built
//   - prevFrameDisposed: the canvas the next frame is drawn over, that is
//     the previous canvas after its disposal has been applied
type Decoder struct {
	anim              *Animation
	currFrame         *image.NRGBA
	prevFrameDisposed *image.NRGBA
	pos               int
}

// NewDecoder creates a Decoder for anim. The canvas starts transparent.
func NewDecoder(anim *Animation) *Decoder {
	bounds := image.Rect(0, 0, anim.CanvasWidth, anim.CanvasHeight)
	return &Decoder{
		anim:              anim,
		currFrame:         image.NewNRGBA(bounds),
		prevFrameDisposed: image.NewNRGBA(bounds),
	}
}

// HasNext reports whether more frames are available.
func (d *Decoder) HasNext() bool {
	return d.pos < len(d.anim.Frames)
}

// NextFrame applies the next frame to the canvas and returns a snapshot.
// The caller receives a copy of the canvas; subsequent calls do not mutate it.
func (d *Decoder) NextFrame() (*image.NRGBA, time.Duration, error) {
	if !d.HasNext() {
		return nil, 0, ErrNoFrames
	}
	f := &d.anim.Frames[d.pos]
	if f.Image == nil {
		return nil, 0, fmt.Errorf("%w: frame %d", ErrNilImage, d.pos)
	}

	copy(d.currFrame.Pix, d.prevFrameDisposed.Pix)
	d.compositeFrame(f)

	snap := cloneNRGBA(d.currFrame)

	switch f.Dispose {
	case DisposePrevious:
		// prevFrameDisposed already holds the canvas from before this frame.
	case DisposeBackground:
		copy(d.prevFrameDisposed.Pix, d.currFrame.Pix)
		fillRect(d.prevFrameDisposed, f.Bounds(), color.NRGBA{})
	default:
		copy(d.prevFrameDisposed.Pix, d.currFrame.Pix)
	}

	d.pos++
	return snap, f.Duration, nil
}

// Reset rewinds the decoder to the first frame and clears the canvas.
func (d *Decoder) Reset() {
	d.pos = 0
	clearCanvas(d.currFrame)
	clearCanvas(d.prevFrameDisposed)
}

// Canvas returns the current canvas state (not a copy).
func (d *Decoder) Canvas() *image.NRGBA {
	return d.currFrame
}

// compositeFrame draws the frame over the current canvas. Frame bounds are
// clamped to the canvas.
func (d *Decoder) compositeFrame(f *Frame) {
	rect := f.Bounds().Intersect(d.currFrame.Bounds())
	if rect.Empty() {
		return
	}
	if p, ok := f.Image.(*image.Paletted); ok {
		d.compositePaletted(p, f, rect)
		return
	}

	src := toNRGBA(f.Image)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		sy := y - f.OffsetY
		for x := rect.Min.X; x < rect.Max.X; x++ {
			srcPx := src.NRGBAAt(x-f.OffsetX, sy)
			dstPx := d.currFrame.NRGBAAt(x, y)
			d.currFrame.SetNRGBA(x, y, alphaBlendNRGBA(srcPx, dstPx))
		}
	}
}

// compositePaletted is the fast path for decoded GIF frames: palette
// entries are converted once and transparent entries are skipped.
func (d *Decoder) compositePaletted(p *image.Paletted, f *Frame, rect image.Rectangle) {
	pal := make([]color.NRGBA, len(p.Palette))
	for i, c := range p.Palette {
		pal[i] = colorToNRGBA(c)
	}
	o := p.Rect.Min.Sub(image.Pt(f.OffsetX, f.OffsetY))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := p.Pix[p.PixOffset(o.X+rect.Min.X, o.Y+y):]
		for i := 0; i < rect.Dx(); i++ {
			v := int(row[i])
			if v >= len(pal) {
				continue
			}
			x := rect.Min.X + i
			d.currFrame.SetNRGBA(x, y, alphaBlendNRGBA(pal[v], d.currFrame.NRGBAAt(x, y)))
		}
	}
}

// clearCanvas fills the entire canvas with transparent (0,0,0,0).
func clearCanvas(canvas *image.NRGBA) {
	clear(canvas.Pix)
}

// cloneNRGBA creates a deep copy of an NRGBA image.
func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// alphaBlendNRGBA performs "src over dst" compositing in non-premultiplied
// RGBA:
//
//	dst_factor_a = (dst_a * (256 - src_a)) >> 8
//	blend_a = src_a + dst_factor_a
//	channel = (src_channel * src_a + dst_channel * dst_factor_a) * scale >> 24
//
// where scale = (1 << 24) / blend_a. GIF pixels are either opaque or
// transparent, which reduces this to replace-or-skip.
func alphaBlendNRGBA(src, dst color.NRGBA) color.NRGBA {
	if src.A == 0 {
		return dst
	}
	if src.A == 255 || dst.A == 0 {
		return src
	}

	srcA := uint32(src.A)
	dstA := uint32(dst.A)

	dstFactorA := (dstA * (256 - srcA)) >> 8
	blendA := srcA + dstFactorA
	if blendA == 0 {
		return color.NRGBA{}
	}
	scale := (1 << 24) / blendA

	blend := func(sc, dc uint8) uint8 {
		v := (uint32(sc)*srcA + uint32(dc)*dstFactorA) * scale >> 24
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}

	return color.NRGBA{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: uint8(blendA),
	}
}

// fillRect fills a rectangle on the canvas with a solid color.
func fillRect(canvas *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	rect = rect.Intersect(canvas.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			canvas.SetNRGBA(x, y, c)
		}
	}
}
