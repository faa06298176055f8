package bmp

import (
	"bytes"
	"testing"
)

func FuzzDecode(f *testing.F) {
	for _, bpp := range []int{1, 4, 8, 24} {
		b, _ := New(bpp, 3, 2)
		var buf bytes.Buffer
		_ = b.Encode(&buf)
		f.Add(buf.Bytes())
	}
	f.Add(shortTable(4))
	f.Add(headerOnly(4096, 4096))
	f.Fuzz(func(t *testing.T, data []byte) {
		b, err := Decode(bytes.NewReader(data))
		if err != nil {
			return
		}
		// Anything that decodes must encode and decode to the same pixels.
		var buf bytes.Buffer
		if err := b.Encode(&buf); err != nil {
			t.Fatal(err)
		}
		again, err := Decode(&buf)
		if err != nil {
			t.Fatalf("re-decode: %v", err)
		}
		if !bytes.Equal(again.pix.Bytes(), b.pix.Bytes()) {
			t.Fatal("pixels changed across re-encode")
		}
	})
}
