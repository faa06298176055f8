package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"

	vpalette "github.com/deepteams/vpixels/internal/palette"
)

// depthFor returns the smallest image depth whose color table holds n
// entries.
func depthFor(n int) int {
	bpp := minCodeSize
	for 1<<bpp < n {
		bpp++
	}
	return bpp
}

// SetPaletted replaces the pixels and colors of m with those of p, which
// must have the size of m. The palette of p becomes the local color table
// and sets the depth. When m has a graphics control extension, the first
// fully transparent palette entry becomes its transparent color.
func (m *Image) SetPaletted(p *image.Paletted) error {
	r := p.Bounds()
	if r.Dx() != m.Width() || r.Dy() != m.Height() {
		return fmt.Errorf("%w: %dx%d and %dx%d", ErrIncompatible,
			m.Width(), m.Height(), r.Dx(), r.Dy())
	}
	n := len(p.Palette)
	if n == 0 || n > vpalette.MaxSize {
		return fmt.Errorf("%w: palette of %d colors", ErrColorTableSize, n)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := p.PixOffset(r.Min.X, y)
		for x, v := range p.Pix[i : i+r.Dx()] {
			if int(v) >= n {
				return fmt.Errorf("%w: %d at (%d, %d), palette of %d", ErrColorIndex, v, x, y-r.Min.Y, n)
			}
		}
	}

	d := m.desc
	d.bpp = uint8(depthFor(n))
	resizeTable(&d.table, &d.packed, n)
	trans := -1
	for i, c := range p.Palette {
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		_ = d.table.Set(i, nc.R, nc.G, nc.B)
		if nc.A == 0 && trans < 0 {
			trans = i
		}
	}
	w := r.Dx()
	for y := 0; y < r.Dy(); y++ {
		i := p.PixOffset(r.Min.X, r.Min.Y+y)
		copy(d.pix[y*w:(y+1)*w], p.Pix[i:i+w])
	}
	if m.gce != nil {
		_ = m.SetHasTransColor(trans >= 0)
		if trans >= 0 {
			m.gce.trans = uint8(trans)
		}
	}
	return nil
}

// FromImage converts img to a single-image GIF with a local color table.
// A paletted source keeps its palette; any other source is mapped onto the
// Plan 9 palette with Floyd-Steinberg error diffusion.
func FromImage(img image.Image) (*GIF, error) {
	pm, ok := img.(*image.Paletted)
	if !ok || len(pm.Palette) == 0 || len(pm.Palette) > vpalette.MaxSize {
		r := img.Bounds()
		pm = image.NewPaletted(image.Rect(0, 0, r.Dx(), r.Dy()), palette.Plan9)
		draw.FloydSteinberg.Draw(pm, pm.Rect, img, r.Min)
	}
	b := pm.Bounds()
	g, err := New(depthFor(len(pm.Palette)), b.Dx(), b.Dy(), 1, false)
	if err != nil {
		return nil, err
	}
	if err := g.images[0].SetPaletted(pm); err != nil {
		return nil, err
	}
	return g, nil
}
