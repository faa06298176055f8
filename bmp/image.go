package bmp

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"

	vpalette "github.com/deepteams/vpixels/internal/palette"
)

// toPalette converts a blue, green, red table to an opaque color.Palette.
func toPalette(t *vpalette.Table) color.Palette {
	p := make(color.Palette, t.Size())
	for i := range p {
		b, g, r, _ := t.Get(i)
		p[i] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	}
	return p
}

// Image returns a copy of the bitmap as an *image.Paletted for indexed
// depths or an *image.NRGBA for 24-bit.
func (b *Bitmap) Image() image.Image {
	w, h := b.Width(), b.Height()
	rect := image.Rect(0, 0, w, h)
	if b.Indexed() {
		img := image.NewPaletted(rect, toPalette(b.table))
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w]
			for x := range row {
				row[x], _ = b.Index(x, y)
			}
		}
		return img
	}

	img := image.NewNRGBA(rect)
	p := b.pix.Bytes()
	rowLen := b.layout.RowLength()
	for y := 0; y < h; y++ {
		src := p[(h-1-y)*rowLen:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			dst[4*x+0] = src[3*x+2]
			dst[4*x+1] = src[3*x+1]
			dst[4*x+2] = src[3*x+0]
			dst[4*x+3] = 0xFF
		}
	}
	return img
}

// defaultPalette returns the color table FromImage uses for bpp when the
// source image brings none of its own.
func defaultPalette(bpp int) color.Palette {
	switch bpp {
	case 1:
		return color.Palette{color.Black, color.White}
	case 4:
		return vga16
	}
	return palette.Plan9
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// vga16 is the 16-color VGA palette.
var vga16 = color.Palette{
	rgb(0x00, 0x00, 0x00), rgb(0x80, 0x00, 0x00),
	rgb(0x00, 0x80, 0x00), rgb(0x80, 0x80, 0x00),
	rgb(0x00, 0x00, 0x80), rgb(0x80, 0x00, 0x80),
	rgb(0x00, 0x80, 0x80), rgb(0xC0, 0xC0, 0xC0),
	rgb(0x80, 0x80, 0x80), rgb(0xFF, 0x00, 0x00),
	rgb(0x00, 0xFF, 0x00), rgb(0xFF, 0xFF, 0x00),
	rgb(0x00, 0x00, 0xFF), rgb(0xFF, 0x00, 0xFF),
	rgb(0x00, 0xFF, 0xFF), rgb(0xFF, 0xFF, 0xFF),
}

// FromImage converts img to a bitmap of depth bpp. A paletted source whose
// palette fits the depth keeps its indices; any other source is mapped onto
// a fixed palette with Floyd-Steinberg error diffusion. Alpha is dropped.
func FromImage(img image.Image, bpp int) (*Bitmap, error) {
	r := img.Bounds()
	b, err := New(bpp, r.Dx(), r.Dy())
	if err != nil {
		return nil, err
	}

	if bpp == 24 {
		for y := 0; y < r.Dy(); y++ {
			for x := 0; x < r.Dx(); x++ {
				c := color.NRGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.NRGBA)
				_ = b.SetColor(x, y, c.B, c.G, c.R)
			}
		}
		return b, nil
	}

	pm, ok := img.(*image.Paletted)
	if !ok || len(pm.Palette) > 1<<bpp {
		pm = image.NewPaletted(image.Rect(0, 0, r.Dx(), r.Dy()), defaultPalette(bpp))
		draw.FloydSteinberg.Draw(pm, pm.Rect, img, r.Min)
	}
	for i, c := range pm.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		if err := b.SetPaletteColor(i, n.B, n.G, n.R); err != nil {
			return nil, fmt.Errorf("bmp: palette entry %d: %w", i, err)
		}
	}
	pr := pm.Rect
	for y := 0; y < pr.Dy(); y++ {
		for x := 0; x < pr.Dx(); x++ {
			if err := b.SetIndex(x, y, pm.ColorIndexAt(pr.Min.X+x, pr.Min.Y+y)); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
