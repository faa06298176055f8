package lzw

import "github.com/deepteams/vpixels/internal/bitio"

// Encoder compresses pixel indices into GIF LZW codes. An Encoder can be
// reused across calls but must not be shared between goroutines.
type Encoder struct {
	s     session
	table StringTable
}

// NewEncoder returns an Encoder ready for use.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode appends the code stream for pixels to dst and returns the extended
// slice. Pixel values must be below 1<<bpp; they are not checked.
//
// The stream opens with a clear code and ends with the end-of-information
// code. When all 4096 codes are in use, a clear code is emitted and the
// table restarts from the current pixel.
func (e *Encoder) Encode(dst []byte, bpp int, pixels []byte) ([]byte, error) {
	if err := e.s.init(bpp); err != nil {
		return dst, err
	}
	e.table.Reset()
	w := bitio.NewCodeWriter(dst)

	w.Write(e.s.clear, e.s.width)
	if len(pixels) == 0 {
		w.Write(e.s.eoi, e.s.width)
		w.End()
		return w.Bytes(), nil
	}

	str := uint16(pixels[0])
	for _, px := range pixels[1:] {
		code, slot := e.table.Probe(str, px)
		if code != 0 {
			str = code
			continue
		}
		w.Write(str, e.s.width)
		if e.s.free <= maxCode {
			e.table.Add(slot, str, px, e.s.free)
			e.grow()
		} else {
			w.Write(e.s.clear, e.s.width)
			e.s.restart()
			e.table.Reset()
		}
		str = uint16(px)
	}

	w.Write(str, e.s.width)
	w.Write(e.s.eoi, e.s.width)
	w.End()
	return w.Bytes(), nil
}

// grow advances the free code and widens codes once the new free code no
// longer fits.
func (e *Encoder) grow() {
	s := &e.s
	s.free++
	if s.free > s.limit && s.width < MaxCodeWidth {
		s.width++
		s.limit <<= 1
	}
}
