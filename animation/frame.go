// Package animation composites the images of a GIF into full canvas frames
// and builds animated GIFs from a sequence of canvases.
//
// A GIF image covers a rectangle of the logical screen. After it has been
// shown, its disposal method decides what the next image is drawn over:
// the canvas as it is, the canvas with that rectangle cleared, or the canvas
// as it was before the image. Transparent pixels leave the canvas
// untouched.
package animation

import (
	"image"
	"image/color"
	"time"

	"github.com/deepteams/vpixels/gif"
)

// DisposeMethod controls how the frame region is treated after rendering.
// The values are those of the GIF graphics control extension.
type DisposeMethod int

const (
	// DisposeNone is the unspecified method; it behaves like DisposeKeep.
	DisposeNone DisposeMethod = gif.DisposalNone
	// DisposeKeep leaves the canvas as-is after this frame is rendered.
	DisposeKeep DisposeMethod = gif.DisposalKeep
	// DisposeBackground clears the frame region to transparent before the
	// next frame is rendered.
	DisposeBackground DisposeMethod = gif.DisposalBackground
	// DisposePrevious restores the canvas to its state before this frame.
	DisposePrevious DisposeMethod = gif.DisposalPrevious
)

// Frame holds one image of an animation and its rendering parameters.
type Frame struct {
	// Image is the frame content. Decoded frames are *image.Paletted whose
	// transparent color, if any, has zero alpha.
	Image image.Image

	// Duration is the display duration for this frame.
	Duration time.Duration

	// OffsetX and OffsetY position the frame on the canvas.
	OffsetX int
	OffsetY int

	// Dispose specifies canvas cleanup after this frame is displayed.
	Dispose DisposeMethod
}

// Bounds returns the frame's rectangle on the canvas.
func (f *Frame) Bounds() image.Rectangle {
	var w, h int
	if f.Image != nil {
		b := f.Image.Bounds()
		w = b.Dx()
		h = b.Dy()
	}
	return image.Rect(f.OffsetX, f.OffsetY, f.OffsetX+w, f.OffsetY+h)
}

// HasImage reports whether the frame carries an image.
func (f *Frame) HasImage() bool {
	return f.Image != nil
}

// toNRGBA converts any image.Image to an *image.NRGBA anchored at (0,0).
func toNRGBA(src image.Image) *image.NRGBA {
	if nrgba, ok := src.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, colorToNRGBA(src.At(x, y)))
		}
	}
	return dst
}

// colorToNRGBA converts any color.Color to an NRGBA value.
func colorToNRGBA(c color.Color) color.NRGBA {
	if nrgba, ok := c.(color.NRGBA); ok {
		return nrgba
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: uint8(r * 0xff / a),
		G: uint8(g * 0xff / a),
		B: uint8(b * 0xff / a),
		A: uint8(a >> 8),
	}
}
