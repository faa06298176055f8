package lzw

import (
	"bytes"
	stdlzw "compress/lzw"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/deepteams/vpixels/internal/bitio"
)

func TestEncode_GrowthBoundary(t *testing.T) {
	got, err := Encode(1, []byte{0, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x12, 0x0C}; !bytes.Equal(got, want) {
		t.Fatalf("Encode(1, [0 1 0]) = % x, want % x", got, want)
	}
}

func TestEncode_Vectors(t *testing.T) {
	tests := []struct {
		bpp  int
		none []byte // no pixels
		one  []byte // a single pixel of value 1
	}{
		{1, []byte{0x0E}, []byte{0x36}},
		{2, []byte{0x2C}, []byte{0x4C, 0x01}},
		{3, []byte{0x98}, []byte{0x18, 0x09}},
		{4, []byte{0x30, 0x02}, []byte{0x30, 0x44}},
		{5, []byte{0x60, 0x08}, []byte{0x60, 0x10, 0x02}},
		{6, []byte{0xC0, 0x20}, []byte{0xC0, 0x40, 0x10}},
		{7, []byte{0x80, 0x81}, []byte{0x80, 0x01, 0x81}},
		{8, []byte{0x00, 0x03, 0x02}, []byte{0x00, 0x03, 0x04, 0x04}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("bpp%d", tt.bpp), func(t *testing.T) {
			got, err := Encode(tt.bpp, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.none) {
				t.Errorf("empty: % x, want % x", got, tt.none)
			}
			px, err := Decode(tt.bpp, got)
			if err != nil || len(px) != 0 {
				t.Errorf("decode empty: %v, %v", px, err)
			}

			got, err = Encode(tt.bpp, []byte{1})
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.one) {
				t.Errorf("one pixel: % x, want % x", got, tt.one)
			}
		})
	}
}

func TestEncode_WidthGrowsMidStream(t *testing.T) {
	// Codes 4 1 2 1 at 3 bits, then 3 2 3 1 5 at 4 bits.
	got, err := Encode(2, []byte{1, 2, 1, 3, 2, 3, 1})
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x8C, 0x32, 0x32, 0x51}; !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

// permutations returns every ordered pair (i, j) with 0 < i < j < 64 and a
// trailing 1. At 8 bits per pixel no pair repeats, so the string table
// fills up and the encoder has to restart.
func permutations() []byte {
	var px []byte
	for i := 1; i < 63; i++ {
		for j := i + 1; j < 64; j++ {
			px = append(px, byte(i), byte(j))
		}
	}
	return append(px, 1)
}

func TestEncode_TableFullRestart(t *testing.T) {
	px := permutations()
	if len(px) != 3907 {
		t.Fatalf("fixture has %d pixels", len(px))
	}
	codes, err := Encode(8, px)
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 5488 {
		t.Errorf("encoded length = %d, want 5488", len(codes))
	}
	if n := countClearCodes(t, 8, codes); n != 2 {
		t.Errorf("clear codes = %d, want 2", n)
	}
	got, err := Decode(8, codes)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, px) {
		t.Fatalf("round trip across restart differs (len %d vs %d)", len(got), len(px))
	}
}

// countClearCodes walks a well-formed stream, tracking the code width the
// same way a decoder does, and counts clear codes.
func countClearCodes(t *testing.T, bpp int, codes []byte) int {
	t.Helper()
	var s session
	if err := s.init(bpp); err != nil {
		t.Fatal(err)
	}
	r := bitio.NewCodeReader(codes)
	n := 0
	first := true
	for {
		code, err := r.Read(s.width)
		if err != nil {
			t.Fatalf("stream ended without EOI: %v", err)
		}
		switch {
		case code == s.eoi:
			return n
		case code == s.clear:
			n++
			s.restart()
			first = true
			continue
		}
		if !first && s.free < tableSize {
			s.free++
		}
		first = false
		if s.free == s.limit && s.width < MaxCodeWidth {
			s.width++
			s.limit <<= 1
		}
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	enc, dec := NewEncoder(), NewDecoder()
	for bpp := 1; bpp <= 8; bpp++ {
		for _, n := range []int{0, 1, 2, 5000, 70000} {
			px := make([]byte, n)
			for i := range px {
				px[i] = byte(rng.Intn(1 << bpp))
			}
			codes, err := enc.Encode(nil, bpp, px)
			if err != nil {
				t.Fatal(err)
			}
			got, err := dec.Decode(nil, bpp, codes)
			if err != nil {
				t.Fatalf("bpp %d n %d: %v", bpp, n, err)
			}
			if !bytes.Equal(got, px) {
				t.Fatalf("bpp %d n %d: round trip mismatch", bpp, n)
			}
		}
	}
}

func TestRoundTrip_Runs(t *testing.T) {
	// Long runs exercise the code-equals-free-code path.
	for bpp := 1; bpp <= 8; bpp++ {
		px := bytes.Repeat([]byte{byte(1<<bpp - 1)}, 20000)
		codes, err := Encode(bpp, px)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Decode(bpp, codes)
		if err != nil {
			t.Fatalf("bpp %d: %v", bpp, err)
		}
		if !bytes.Equal(got, px) {
			t.Fatalf("bpp %d: round trip mismatch", bpp)
		}
	}
}

func TestEncode_AppendsToDst(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	got, err := NewEncoder().Encode(prefix, 1, []byte{0, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xAA, 0xBB, 0x12, 0x0C}; !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestBitsPerPixelRange(t *testing.T) {
	for _, bpp := range []int{0, 9, -1} {
		if _, err := Encode(bpp, []byte{0}); !errors.Is(err, ErrBitsPerPixel) {
			t.Errorf("Encode bpp %d err = %v", bpp, err)
		}
		if _, err := Decode(bpp, []byte{0}); !errors.Is(err, ErrBitsPerPixel) {
			t.Errorf("Decode bpp %d err = %v", bpp, err)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		bpp   int
		codes []byte
		want  error
	}{
		{"empty", 2, nil, bitio.ErrNoMoreCode},
		// First code 1 at 3 bits.
		{"no leading clear", 2, []byte{0x01}, ErrNotClearCode},
		// Clear (4) then 6 at 3 bits.
		{"clear then string code", 2, []byte{0x34}, ErrNotPixel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.bpp, tt.codes)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_Tolerated(t *testing.T) {
	// Clear then EOI right away yields nothing.
	got, err := Decode(2, []byte{0x2C})
	if err != nil || len(got) != 0 {
		t.Fatalf("clear+EOI: %v, %v", got, err)
	}

	// A stream cut right after a code decodes what it holds. The codes
	// below fill exactly three bytes, so no padding is left to misread.
	w := bitio.NewCodeWriter(nil)
	for _, c := range []struct {
		code  uint16
		width uint
	}{{4, 3}, {1, 3}, {2, 3}, {1, 3}, {3, 4}, {2, 4}, {3, 4}} {
		w.Write(c.code, c.width)
	}
	w.End()
	got, err = Decode(2, w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{1, 2, 1, 3, 2, 3}; !bytes.Equal(got, want) {
		t.Fatalf("missing EOI: got %v, want %v", got, want)
	}
}

func TestDecode_TableFullWithoutClear(t *testing.T) {
	// An encoder that never restarts keeps sending 12-bit codes after the
	// table is full. The decoder stops adding entries and carries on.
	const n = 6000
	var s session
	_ = s.init(1)
	w := bitio.NewCodeWriter(nil)
	w.Write(s.clear, s.width)
	for i := 0; i < n; i++ {
		w.Write(0, s.width)
		if i > 0 && s.free < tableSize {
			s.free++
		}
		if s.free == s.limit && s.width < MaxCodeWidth {
			s.width++
			s.limit <<= 1
		}
	}
	w.Write(s.eoi, s.width)
	w.End()

	got, err := Decode(1, w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n || bytes.IndexByte(got, 1) >= 0 {
		t.Fatalf("decoded %d pixels, want %d zeros", len(got), n)
	}
}

func TestCompressLZW_Interop(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for bpp := 2; bpp <= 8; bpp++ {
		px := make([]byte, 9000)
		for i := range px {
			px[i] = byte(rng.Intn(1 << bpp))
		}

		ours, err := Encode(bpp, px)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(stdlzw.NewReader(bytes.NewReader(ours), stdlzw.LSB, bpp))
		if err != nil {
			t.Fatalf("bpp %d: compress/lzw reading our stream: %v", bpp, err)
		}
		if !bytes.Equal(got, px) {
			t.Fatalf("bpp %d: compress/lzw decoded a different stream", bpp)
		}

		var theirs bytes.Buffer
		zw := stdlzw.NewWriter(&theirs, stdlzw.LSB, bpp)
		if _, err := zw.Write(px); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		got, err = Decode(bpp, theirs.Bytes())
		if err != nil {
			t.Fatalf("bpp %d: decoding compress/lzw stream: %v", bpp, err)
		}
		if !bytes.Equal(got, px) {
			t.Fatalf("bpp %d: compress/lzw stream decoded differently", bpp)
		}
	}
}

func TestStringTable(t *testing.T) {
	var tbl StringTable
	if tbl.Search(3, 7) != 0 {
		t.Fatal("empty table found an entry")
	}
	code, slot := tbl.Probe(3, 7)
	if code != 0 {
		t.Fatal("Probe hit on empty table")
	}
	tbl.Add(slot, 3, 7, 300)
	tbl.Insert(7, 3, 301)
	if got := tbl.Search(3, 7); got != 300 {
		t.Errorf("Search(3, 7) = %d, want 300", got)
	}
	if got := tbl.Search(7, 3); got != 301 {
		t.Errorf("Search(7, 3) = %d, want 301", got)
	}

	// Fill every slot through collisions; each key must stay reachable.
	tbl.Reset()
	for i := 0; i < tableSize-1; i++ {
		tbl.Insert(uint16(i>>8), uint8(i), uint16(i+1))
	}
	for i := 0; i < tableSize-1; i++ {
		if got := tbl.Search(uint16(i>>8), uint8(i)); got != uint16(i+1) {
			t.Fatalf("key %d: Search = %d, want %d", i, got, i+1)
		}
	}
	tbl.Reset()
	if tbl.Search(0, 0) != 0 {
		t.Fatal("Reset left entries behind")
	}
}
