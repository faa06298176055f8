package gif

import (
	"bytes"
	"errors"
	"image/color"
	"io/fs"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/lzw"
)

func encode(t *testing.T, g *GIF) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := g.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func white(n int) []byte {
	return bytes.Repeat([]byte{0xFF}, 3*n)
}

// subBlocks frames data as GIF sub-blocks with the terminator.
func subBlocks(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := min(len(data), 255)
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return append(out, 0)
}

func stampBytes() []byte {
	out := []byte{0x21, 0xFE}
	return append(out, subBlocks([]byte(builtWith))...)
}

func TestEncode_Layout(t *testing.T) {
	g := mustNew(t, 2, 3, 2, 1, true)
	_ = g.SetPaletteColor(1, 10, 20, 30)
	_ = mustImage(t, g, 0).SetPixel(1, 0, 1)
	got := encode(t, g)

	codes, err := lzw.Encode(2, []byte{0, 1, 0, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("GIF89a")
	want = append(want, 3, 0, 2, 0, 0x91, 0, 0)
	want = append(want, 0xFF, 0xFF, 0xFF, 10, 20, 30)
	want = append(want, white(2)...)
	want = append(want, 0x2C, 0, 0, 0, 0, 3, 0, 2, 0, 0x00, 2)
	want = append(want, subBlocks(codes)...)
	want = append(want, stampBytes()...)
	want = append(want, 0x3B)
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded:\n% x\nwant:\n% x", got, want)
	}
	if n, err := g.Size(); err != nil || n != len(want) {
		t.Errorf("Size = %d, %v; want %d", n, err, len(want))
	}
}

func TestEncode_AnimationLayout(t *testing.T) {
	g := mustNew(t, 4, 2, 2, 2, false)
	got := encode(t, g)

	want := []byte("GIF89a")
	want = append(want, 2, 0, 2, 0, 0x30, 0, 0) // resolution only, no global table
	want = append(want, 0x21, 0xFF, 11)
	want = append(want, "NETSCAPE2.0"...)
	want = append(want, 3, 1, 0, 0, 0)
	want = append(want, 0x21, 0xF9, 4, 0x04, 0, 0, 0, 0)
	want = append(want, 0x2C, 0, 0, 0, 0, 2, 0, 2, 0, 0x83)
	want = append(want, white(16)...)
	want = append(want, 4)
	if !bytes.HasPrefix(got, want) {
		t.Fatalf("encoded prefix:\n% x\nwant:\n% x", got[:min(len(got), len(want))], want)
	}
}

// transparentPixel is the smallest well-known GIF: one transparent pixel.
var transparentPixel = []byte{
	'G', 'I', 'F', '8', '9', 'a', 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00,
	0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	0x02, 0x02, 0x44, 0x01, 0x00,
	0x3B,
}

func TestDecode_TransparentPixel(t *testing.T) {
	g, err := Decode(bytes.NewReader(transparentPixel))
	if err != nil {
		t.Fatal(err)
	}
	if g.BitsPerPixel() != 1 || g.ColorTableSize() != 2 || g.Len() != 1 {
		t.Fatalf("bpp %d table %d images %d", g.BitsPerPixel(), g.ColorTableSize(), g.Len())
	}
	img := mustImage(t, g, 0)
	if img.SingleImage() || img.BitsPerPixel() != 2 {
		t.Errorf("single %v depth %d", img.SingleImage(), img.BitsPerPixel())
	}
	if on, _ := img.HasTransColor(); !on {
		t.Error("transparency flag not decoded")
	}
	if r, gr, b, err := img.RGB(0, 0); err != nil || r != 0xFF || gr != 0xFF || b != 0xFF {
		t.Errorf("RGB = (%d,%d,%d) %v", r, gr, b, err)
	}
	p, err := img.Paletted()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := p.At(0, 0).RGBA(); a != 0 {
		t.Errorf("transparent pixel alpha = %d", a)
	}

	// Re-encoding adds the stamp and nothing else.
	want := append(append([]byte{}, transparentPixel[:len(transparentPixel)-1]...), stampBytes()...)
	want = append(want, 0x3B)
	if got := encode(t, g); !bytes.Equal(got, want) {
		t.Errorf("re-encoded:\n% x\nwant:\n% x", got, want)
	}
}

// stream builds a GIF87a file of a 2x1 screen with a 4-entry global table
// around the given blocks.
func stream(blocks ...[]byte) []byte {
	out := []byte("GIF87a")
	out = append(out, 2, 0, 1, 0, 0x91, 0, 0)
	out = append(out, white(4)...)
	for _, b := range blocks {
		out = append(out, b...)
	}
	return append(out, 0x3B)
}

func imageBlock(packed byte, pix ...byte) []byte {
	codes, _ := lzw.Encode(2, pix)
	out := []byte{0x2C, 0, 0, 0, 0, byte(len(pix)), 0, 1, 0, packed, 2}
	return append(out, subBlocks(codes)...)
}

func TestDecode_Blocks(t *testing.T) {
	plain := []byte{0x21, 0x01, 12, 0, 0, 0, 0, 8, 0, 8, 0, 4, 4, 1, 0}
	plain = append(plain, subBlocks([]byte("hi"))...)
	unknown := append([]byte{0x21, 0x42}, subBlocks([]byte{1, 2, 3})...)
	comment := append([]byte{0x21, 0xFE}, subBlocks([]byte("hello"))...)
	app := append([]byte{0x21, 0xFF, 11}, "XMP DataXMP"...)
	app = append(app, subBlocks([]byte("<x/>"))...)
	data := stream(comment, plain, unknown, app, imageBlock(0, 1, 2))

	g, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if g.Version() != "GIF87a" {
		t.Errorf("Version = %q", g.Version())
	}
	if c := g.Comments(); len(c) != 1 || c[0] != "hello" {
		t.Errorf("comments = %q", c)
	}
	if _, ok := g.LoopCount(); ok {
		t.Error("XMP extension taken for a loop count")
	}
	if g.Len() != 1 {
		t.Fatalf("Len = %d", g.Len())
	}
	if p, _ := mustImage(t, g, 0).Pixel(1, 0); p != 2 {
		t.Errorf("Pixel(1,0) = %d", p)
	}

	// Every block survives a round trip byte for byte.
	got := encode(t, g)
	want := stream(comment, plain, unknown, app, imageBlock(0, 1, 2), stampBytes())
	if !bytes.Equal(got, want) {
		t.Errorf("re-encoded:\n% x\nwant:\n% x", got, want)
	}
}

// shortImage declares a 2x1 image but carries a single pixel.
func shortImage() []byte {
	codes, _ := lzw.Encode(2, []byte{0})
	out := []byte{0x2C, 0, 0, 0, 0, 2, 0, 1, 0, 0, 2}
	return append(out, subBlocks(codes)...)
}

func TestDecode_Invalid(t *testing.T) {
	valid := stream(imageBlock(0, 0, 1))
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotGIF},
		{"signature", append([]byte("GIF90a"), valid[6:]...), ErrNotGIF},
		{"bmp", []byte("BM\x00\x00\x00\x00"), ErrNotGIF},
		{"no trailer", valid[:len(valid)-1], ErrNoTrailer},
		{"garbage byte", append(bytes.Clone(valid[:len(valid)-1]), 0x00, 0x3B), ErrNoTrailer},
		{"interlaced", stream(imageBlock(0x40, 0, 1)), ErrInterlaced},
		{"short image", stream(shortImage()), ErrImageDataSize},
		{"control size", stream(append([]byte{0x21, 0xF9}, subBlocks([]byte{0, 0, 0, 0, 0})...),
			imageBlock(0, 0, 1)), ErrGraphicsControl},
		{"truncated screen", valid[:9], container.ErrTruncated},
		{"truncated table", valid[:15], container.ErrTruncated},
		{"bad code size", stream(func() []byte {
			b := imageBlock(0, 0, 1)
			b[10] = 12
			return b
		}()), lzw.ErrBitsPerPixel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncode_PixelOutOfDepth(t *testing.T) {
	g := mustNew(t, 2, 2, 1, 1, true)
	mustImage(t, g, 0).desc.pix[1] = 4
	var buf bytes.Buffer
	if err := g.Encode(&buf); !errors.Is(err, ErrColorIndex) {
		t.Errorf("err = %v, want ErrColorIndex", err)
	}
}

func randomGIF(t *testing.T, rng *rand.Rand, bpp, w, h, images int, global bool) *GIF {
	t.Helper()
	g := mustNew(t, bpp, w, h, images, global)
	if global {
		for i := 0; i < g.ColorTableSize(); i++ {
			_ = g.SetPaletteColor(i, uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)))
		}
	}
	for i := 0; i < g.Len(); i++ {
		img := mustImage(t, g, i)
		for j := 0; j < img.ColorTableSize(); j++ {
			_ = img.SetPaletteColor(j, uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)))
		}
		n := img.CheckColorTable()
		// Long runs exercise the string table, noise the table resets.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := (x / 3) % n
				if rng.Intn(4) == 0 {
					v = rng.Intn(n)
				}
				_ = img.SetPixel(x, y, v)
			}
		}
		if !img.SingleImage() {
			_ = img.SetDelay(rng.Intn(500))
			_ = img.SetDisposalMethod(rng.Intn(4))
		}
	}
	return g
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(89))
	for _, bpp := range []int{2, 3, 5, 8} {
		for _, tc := range []struct {
			w, h, images int
			global       bool
		}{
			{1, 1, 1, true}, {7, 3, 1, false}, {64, 48, 3, true}, {130, 90, 2, false}, {0, 0, 1, true},
		} {
			src := randomGIF(t, rng, bpp, tc.w, tc.h, tc.images, tc.global)
			data := encode(t, src)
			got, err := Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("bpp %d %+v: %v", bpp, tc, err)
			}
			if got.Len() != src.Len() {
				t.Fatalf("bpp %d %+v: %d images, want %d", bpp, tc, got.Len(), src.Len())
			}
			for i := 0; i < src.Len(); i++ {
				a, b := mustImage(t, src, i), mustImage(t, got, i)
				if !bytes.Equal(a.desc.pix, b.desc.pix) {
					t.Errorf("bpp %d %+v image %d: pixels differ", bpp, tc, i)
				}
				if a.ColorTableSize() != b.ColorTableSize() {
					t.Errorf("bpp %d %+v image %d: table %d, want %d", bpp, tc, i, b.ColorTableSize(), a.ColorTableSize())
				}
				da, _ := a.Delay()
				db, _ := b.Delay()
				if da != db {
					t.Errorf("bpp %d %+v image %d: delay %d, want %d", bpp, tc, i, db, da)
				}
			}
			// Encoding the decoded file reproduces it exactly.
			if again := encode(t, got); !bytes.Equal(again, data) {
				t.Errorf("bpp %d %+v: second encode differs", bpp, tc)
			}
		}
	}
}

func TestDecodeConfig(t *testing.T) {
	g := mustNew(t, 3, 9, 4, 1, true)
	_ = g.SetPaletteColor(5, 1, 2, 3)
	cfg, err := DecodeConfig(bytes.NewReader(encode(t, g)))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 9 || cfg.Height != 4 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
	pal, ok := cfg.ColorModel.(color.Palette)
	if !ok || len(pal) != 8 {
		t.Fatalf("color model = %T with %d entries", cfg.ColorModel, len(pal))
	}
	if pal[5] != (color.RGBA{R: 1, G: 2, B: 3, A: 0xFF}) {
		t.Errorf("palette entry 5 = %v", pal[5])
	}
	if _, err := DecodeConfig(bytes.NewReader([]byte("GIF8"))); !errors.Is(err, ErrNotGIF) {
		t.Errorf("short header err = %v", err)
	}
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.gif")
	g := randomGIF(t, rand.New(rand.NewSource(1)), 4, 12, 9, 2, true)
	if err := g.Export(path, false); err != nil {
		t.Fatal(err)
	}
	if err := g.Export(path, false); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Export without overwrite err = %v", err)
	}
	if err := g.Export(path, true); err != nil {
		t.Fatal(err)
	}
	got, err := Import(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 || !bytes.Equal(mustImage(t, got, 1).desc.pix, mustImage(t, g, 1).desc.pix) {
		t.Error("imported file differs")
	}
	if _, err := Import(filepath.Join(dir, "missing.gif")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Import missing err = %v", err)
	}
}
