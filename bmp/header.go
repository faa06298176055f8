package bmp

import (
	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/raster"
)

// fileHeader is the 14-byte BITMAPFILEHEADER.
type fileHeader struct {
	id        string
	fileSize  uint32
	reserved1 uint16
	reserved2 uint16
	offset    uint32 // start of the pixel array
}

// infoHeader is the 40-byte BITMAPINFOHEADER.
type infoHeader struct {
	size        uint32
	width       int32
	height      int32
	planes      uint16
	bpp         uint16
	compression uint32
	imageSize   uint32
	xres, yres  int32
	colorsUsed  uint32
	important   uint32
}

func newFileHeader(l raster.Layout, tableSize int) fileHeader {
	off := uint32(container.BMPHeaderSize + container.BMPPaletteStride*tableSize)
	return fileHeader{
		id:       container.BMPSignature,
		fileSize: off + uint32(raster.ImageDataSize(l)),
		offset:   off,
	}
}

func newInfoHeader(l raster.Layout, xres, yres int32) infoHeader {
	return infoHeader{
		size:      container.BMPInfoHeaderSize,
		width:     int32(l.Width()),
		height:    int32(l.Height()),
		planes:    1,
		bpp:       uint16(l.BitsPerPixel()),
		imageSize: uint32(raster.ImageDataSize(l)),
		xres:      xres,
		yres:      yres,
	}
}

func (h *fileHeader) read(r *container.Reader) {
	h.id = r.String(2)
	h.fileSize = r.U32()
	h.reserved1 = r.U16()
	h.reserved2 = r.U16()
	h.offset = r.U32()
}

func (h *fileHeader) write(w *container.Writer) {
	w.String(h.id)
	w.U32(h.fileSize)
	w.U16(h.reserved1)
	w.U16(h.reserved2)
	w.U32(h.offset)
}

func (h *infoHeader) read(r *container.Reader) {
	h.size = r.U32()
	h.width = int32(r.U32())
	h.height = int32(r.U32())
	h.planes = r.U16()
	h.bpp = r.U16()
	h.compression = r.U32()
	h.imageSize = r.U32()
	h.xres = int32(r.U32())
	h.yres = int32(r.U32())
	h.colorsUsed = r.U32()
	h.important = r.U32()
}

func (h *infoHeader) write(w *container.Writer) {
	w.U32(h.size)
	w.U32(uint32(h.width))
	w.U32(uint32(h.height))
	w.U16(h.planes)
	w.U16(h.bpp)
	w.U32(h.compression)
	w.U32(h.imageSize)
	w.U32(uint32(h.xres))
	w.U32(uint32(h.yres))
	w.U32(h.colorsUsed)
	w.U32(h.important)
}

// tableEntries returns the number of color table entries stored in the
// file. A zero or out-of-range colors-used field means the full table.
func (h *infoHeader) tableEntries() int {
	if h.bpp > 8 {
		return 0
	}
	full := 1 << h.bpp
	if h.colorsUsed == 0 || h.colorsUsed > uint32(full) {
		return full
	}
	return int(h.colorsUsed)
}
