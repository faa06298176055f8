package gif

import (
	"bytes"
	"math/rand"
	"testing"
)

func FuzzDecode(f *testing.F) {
	f.Add(transparentPixel)
	f.Add(stream(imageBlock(0, 1, 2)))
	for _, images := range []int{1, 3} {
		g, _ := New(3, 5, 4, images, images == 1)
		var buf bytes.Buffer
		_ = g.Encode(&buf)
		f.Add(buf.Bytes())
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		g, err := Decode(bytes.NewReader(data))
		if err != nil {
			return
		}
		for i := 0; i < g.Len(); i++ {
			img, _ := g.Image(i)
			_, _ = img.Paletted()
		}
		// Whatever decodes must survive a re-encode with the same pixels,
		// unless an image holds indices beyond its declared depth.
		var buf bytes.Buffer
		if err := g.Encode(&buf); err != nil {
			return
		}
		again, err := Decode(&buf)
		if err != nil {
			t.Fatalf("re-decode: %v", err)
		}
		if again.Len() != g.Len() {
			t.Fatalf("%d images, want %d", again.Len(), g.Len())
		}
		for i := 0; i < g.Len(); i++ {
			a, _ := g.Image(i)
			b, _ := again.Image(i)
			if !bytes.Equal(a.desc.pix, b.desc.pix) {
				t.Fatalf("image %d: pixels changed across re-encode", i)
			}
		}
	})
}

func BenchmarkEncode(b *testing.B) {
	g := benchGIF(b)
	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := g.Encode(&buf); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(int64(buf.Len()))
}

func BenchmarkDecode(b *testing.B) {
	g := benchGIF(b)
	var buf bytes.Buffer
	_ = g.Encode(&buf)
	data := buf.Bytes()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

func benchGIF(b *testing.B) *GIF {
	g, err := New(8, 320, 240, 4, true)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(320))
	for i := 0; i < g.Len(); i++ {
		img, _ := g.Image(i)
		for j := range img.desc.pix {
			img.desc.pix[j] = uint8(j/7+i) ^ uint8(rng.Intn(2))
		}
	}
	return g
}
