package gif

import (
	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/palette"
)

// screen is the logical screen descriptor and the global color table.
type screen struct {
	width, height uint16
	packed        uint8
	background    uint8
	aspect        uint8
	table         *palette.Table
}

func newScreen(bpp, width, height int, globalColorTable bool) screen {
	s := screen{
		width:  uint16(width),
		height: uint16(height),
		table:  &palette.Table{},
	}
	s.setResolution(bpp)
	if globalColorTable {
		s.packed |= container.ScreenColorTableFlag | uint8(bpp-1)
		s.table = whiteTable(1 << bpp)
	}
	return s
}

func (s *screen) clone() screen {
	c := *s
	c.table = s.table.Clone()
	return c
}

func (s *screen) hasTable() bool {
	return s.packed&container.ScreenColorTableFlag != 0
}

// resolution is the color resolution in bits per primary color.
func (s *screen) resolution() int {
	return int(s.packed&container.ScreenResolutionMask)>>container.ScreenResolutionShift + 1
}

func (s *screen) setResolution(bpp int) {
	s.packed &^= container.ScreenResolutionMask
	s.packed |= uint8(bpp-1) << container.ScreenResolutionShift
}

// resizeTable resizes the global color table and reports whether its size
// changed. A non-zero size also sets the resolution to match the table.
func (s *screen) resizeTable(size int) bool {
	if !resizeTable(&s.table, &s.packed, size) {
		return false
	}
	if size == 0 {
		s.background = 0
		return true
	}
	s.setResolution(int(s.packed&container.ScreenColorTableSize) + 1)
	return true
}

func (s *screen) read(r *container.Reader) {
	s.width = r.U16()
	s.height = r.U16()
	s.packed = r.U8()
	s.background = r.U8()
	s.aspect = r.U8()
	s.table = readTable(r, s.packed&container.ScreenColorTableFlag != 0, s.packed)
}

func (s *screen) write(w *container.Writer) {
	w.U16(s.width)
	w.U16(s.height)
	w.U8(s.packed)
	w.U8(s.background)
	w.U8(s.aspect)
	_ = s.table.WriteTo(w, container.GIFPaletteStride)
}

// whiteTable returns a table of n entries, all (255, 255, 255).
func whiteTable(n int) *palette.Table {
	t, err := palette.New(n)
	if err != nil {
		return &palette.Table{}
	}
	t.Fill(0, 0xFF)
	return t
}

// resizeTable implements the color table resize shared by the screen and
// image descriptors. size is rounded up to a power of two, the leading
// entries are kept and new entries are white. The flag bit and the size
// bits of packed (both descriptors place them identically) are updated.
func resizeTable(t **palette.Table, packed *uint8, size int) bool {
	old := *t
	if size == 0 {
		if old.Size() == 0 {
			return false
		}
		*packed &^= container.ScreenColorTableFlag | container.ScreenColorTableSize
		*t = &palette.Table{}
		return true
	}
	bits := container.ColorTableSizeBits(size)
	n := container.ColorTableEntries(bits)
	if n == old.Size() {
		return false
	}
	*packed = *packed&^container.ScreenColorTableSize | container.ScreenColorTableFlag | bits
	nt := whiteTable(n)
	nt.CopyFrom(old)
	*t = nt
	return true
}

// readTable reads a color table whose presence and size come from packed.
func readTable(r *container.Reader, present bool, packed uint8) *palette.Table {
	if !present || r.Err() != nil {
		return &palette.Table{}
	}
	t := whiteTable(container.ColorTableEntries(packed))
	if err := t.ReadFrom(r, container.GIFPaletteStride); err != nil {
		return &palette.Table{}
	}
	return t
}
