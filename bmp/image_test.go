package bmp

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"math/rand"
	"testing"

	xbmp "golang.org/x/image/bmp"
)

func TestImage_TrueColor(t *testing.T) {
	b, _ := New(24, 2, 2)
	_ = b.SetColor(1, 0, 30, 20, 10)
	img, ok := b.Image().(*image.NRGBA)
	if !ok {
		t.Fatalf("Image() is %T, want *image.NRGBA", b.Image())
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
}

func TestImage_Paletted(t *testing.T) {
	b, _ := New(4, 3, 2)
	_ = b.SetPaletteColor(5, 0, 0, 0xFF)
	_ = b.SetIndex(2, 1, 5)
	img, ok := b.Image().(*image.Paletted)
	if !ok {
		t.Fatalf("Image() is %T, want *image.Paletted", b.Image())
	}
	if len(img.Palette) != 16 {
		t.Fatalf("palette has %d entries", len(img.Palette))
	}
	if img.ColorIndexAt(2, 1) != 5 {
		t.Errorf("index (2,1) = %d", img.ColorIndexAt(2, 1))
	}
	if r, g, bl, _ := img.At(2, 1).RGBA(); r != 0xFFFF || g != 0 || bl != 0 {
		t.Errorf("color (2,1) = %d,%d,%d, want red", r, g, bl)
	}
}

func TestFromImage_PalettedKeepsIndices(t *testing.T) {
	src := image.NewPaletted(image.Rect(10, 10, 14, 12), color.Palette{color.Black, color.White, color.RGBA{R: 255, A: 255}})
	src.SetColorIndex(11, 11, 2)
	b, err := FromImage(src, 4)
	if err != nil {
		t.Fatal(err)
	}
	if idx, _ := b.Index(1, 1); idx != 2 {
		t.Errorf("Index(1,1) = %d, want 2", idx)
	}
	if bl, g, r, _ := b.PaletteColor(2); bl != 0 || g != 0 || r != 255 {
		t.Errorf("entry 2 = %d,%d,%d", bl, g, r)
	}
}

func TestFromImage_Dithered(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	b, err := FromImage(src, 1)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if idx, _ := b.Index(x, y); idx != 1 {
				t.Fatalf("white source mapped to index %d at (%d,%d)", idx, x, y)
			}
		}
	}
}

func TestFromImage_TrueColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	src.Set(2, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	b, err := FromImage(src, 24)
	if err != nil {
		t.Fatal(err)
	}
	if bl, g, r, _ := b.Color(2, 0); bl != 3 || g != 2 || r != 1 {
		t.Errorf("Color(2,0) = %d,%d,%d", bl, g, r)
	}
}

func sameImage(t *testing.T, a, b image.Image) {
	t.Helper()
	if a.Bounds().Size() != b.Bounds().Size() {
		t.Fatalf("size %v vs %v", a.Bounds().Size(), b.Bounds().Size())
	}
	ao, bo := a.Bounds().Min, b.Bounds().Min
	for y := 0; y < a.Bounds().Dy(); y++ {
		for x := 0; x < a.Bounds().Dx(); x++ {
			r1, g1, b1, a1 := a.At(ao.X+x, ao.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(bo.X+x, bo.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) differs", x, y)
			}
		}
	}
}

func TestXImageDecodesOurs(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	for _, bpp := range []int{8, 24} {
		b := randomBitmap(t, rng, bpp, 13, 7)
		var buf bytes.Buffer
		if err := b.Encode(&buf); err != nil {
			t.Fatal(err)
		}
		img, err := xbmp.Decode(&buf)
		if err != nil {
			t.Fatalf("bpp %d: x/image/bmp: %v", bpp, err)
		}
		sameImage(t, b.Image(), img)
	}
}

func TestWeDecodeXImage(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	pal := image.NewPaletted(image.Rect(0, 0, 11, 6), palette.Plan9)
	for i := range pal.Pix {
		pal.Pix[i] = uint8(rng.Intn(256))
	}
	rgb := image.NewRGBA(image.Rect(0, 0, 11, 6))
	for i := range rgb.Pix {
		rgb.Pix[i] = uint8(rng.Intn(256))
		if i%4 == 3 {
			rgb.Pix[i] = 0xFF
		}
	}
	for _, src := range []image.Image{pal, rgb} {
		var buf bytes.Buffer
		if err := xbmp.Encode(&buf, src); err != nil {
			t.Fatal(err)
		}
		b, err := Decode(&buf)
		if err != nil {
			t.Fatalf("%T: %v", src, err)
		}
		sameImage(t, src, b.Image())
	}
}
