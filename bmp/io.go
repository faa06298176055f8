package bmp

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/deepteams/vpixels/internal/buffer"
	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/palette"
	"github.com/deepteams/vpixels/internal/pool"
	"github.com/deepteams/vpixels/internal/raster"
)

// readHeaders reads and validates both headers.
func readHeaders(r *container.Reader) (fileHeader, infoHeader, raster.Layout, error) {
	var fh fileHeader
	var ih infoHeader
	fh.read(r)
	if err := r.Err(); err != nil {
		return fh, ih, nil, fmt.Errorf("bmp: reading file header: %w", err)
	}
	if fh.id != container.BMPSignature {
		return fh, ih, nil, ErrNotBMP
	}
	ih.read(r)
	if err := r.Err(); err != nil {
		return fh, ih, nil, fmt.Errorf("bmp: reading info header: %w", err)
	}
	if ih.size != container.BMPInfoHeaderSize {
		return fh, ih, nil, fmt.Errorf("%w: %d", ErrInfoHeaderSize, ih.size)
	}
	if !raster.Supported(int(ih.bpp)) {
		return fh, ih, nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, ih.bpp)
	}
	if ih.compression != container.BMPCompressionRGB {
		return fh, ih, nil, fmt.Errorf("%w: method %d", ErrCompressed, ih.compression)
	}
	if ih.width < 0 || ih.height < 0 {
		return fh, ih, nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, ih.width, ih.height)
	}
	if int64(ih.width)*int64(ih.height) > maxPixels {
		return fh, ih, nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, ih.width, ih.height)
	}
	l, err := raster.New(int(ih.bpp), int(ih.width), int(ih.height))
	if err != nil {
		return fh, ih, nil, err
	}
	size := uint32(raster.ImageDataSize(l))
	if fh.offset > fh.fileSize || fh.fileSize-fh.offset != size {
		return fh, ih, nil, fmt.Errorf("%w: %d bytes after offset %d, want %d",
			ErrInvalidFileHeader, int64(fh.fileSize)-int64(fh.offset), fh.offset, size)
	}
	// Zero is allowed for uncompressed bitmaps.
	if ih.imageSize != 0 && ih.imageSize != size {
		return fh, ih, nil, fmt.Errorf("%w: image size %d, want %d", ErrInvalidInfoHeader, ih.imageSize, size)
	}
	return fh, ih, l, nil
}

// Decode reads a bitmap from r.
func Decode(r io.Reader) (*Bitmap, error) {
	cr := container.NewReader(r)
	fh, ih, l, err := readHeaders(cr)
	if err != nil {
		return nil, err
	}

	b := &Bitmap{layout: l, xres: ih.xres, yres: ih.yres}
	full := 0
	if ih.bpp <= 8 {
		full = 1 << ih.bpp
	}
	if b.table, err = palette.New(full); err != nil {
		return nil, err
	}
	if n := ih.tableEntries(); n > 0 {
		stored, _ := palette.New(n)
		if err := stored.ReadFrom(cr, container.BMPPaletteStride); err != nil {
			return nil, fmt.Errorf("bmp: reading color table: %w", err)
		}
		b.table.CopyFrom(stored)
	}

	// Some writers leave a gap between the color table and the pixels.
	gap := int64(fh.offset) - cr.Offset()
	if gap < 0 {
		return nil, fmt.Errorf("%w: pixel offset %d inside headers", ErrInvalidFileHeader, fh.offset)
	}
	cr.Skip(gap)

	// The headers only claim a size; grow with the bytes actually present.
	size := int64(raster.ImageDataSize(l))
	data, err := io.ReadAll(io.LimitReader(cr, size))
	if err != nil {
		return nil, fmt.Errorf("bmp: reading image data: %w", err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("bmp: reading image data: %w: %d of %d bytes",
			container.ErrTruncated, len(data), size)
	}

	b.pix, err = buffer.New(raster.ByteArraySize(l))
	if err != nil {
		return nil, err
	}
	rowLen := l.RowLength()
	stride := rowLen + raster.PaddingBytes(rowLen)
	p := b.pix.Bytes()
	for y := 0; y < l.Height(); y++ {
		copy(p[y*rowLen:(y+1)*rowLen], data[y*stride:])
	}
	return b, nil
}

// DecodeConfig returns the dimensions and color model of a bitmap without
// reading its pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	cr := container.NewReader(r)
	_, ih, l, err := readHeaders(cr)
	if err != nil {
		return image.Config{}, err
	}
	cfg := image.Config{Width: l.Width(), Height: l.Height(), ColorModel: color.NRGBAModel}
	if n := ih.tableEntries(); n > 0 {
		tbl, _ := palette.New(n)
		if err := tbl.ReadFrom(cr, container.BMPPaletteStride); err != nil {
			return image.Config{}, fmt.Errorf("bmp: reading color table: %w", err)
		}
		cfg.ColorModel = toPalette(tbl)
	}
	return cfg, nil
}

// Encode writes b to w as an uncompressed BMP file.
func (b *Bitmap) Encode(w io.Writer) error {
	cw := container.NewWriter(w)
	fh := newFileHeader(b.layout, b.table.Size())
	ih := newInfoHeader(b.layout, b.xres, b.yres)
	fh.write(cw)
	ih.write(cw)
	if err := b.table.WriteTo(cw, container.BMPPaletteStride); err != nil {
		return fmt.Errorf("bmp: writing color table: %w", err)
	}

	rowLen := b.layout.RowLength()
	padded := rowLen + raster.PaddingBytes(rowLen)
	row := pool.Get(padded)
	defer pool.Put(row)
	clear(row[rowLen:])
	p := b.pix.Bytes()
	for y := 0; y < b.layout.Height(); y++ {
		copy(row, p[y*rowLen:(y+1)*rowLen])
		_, _ = cw.Write(row)
	}
	if err := cw.Err(); err != nil {
		return fmt.Errorf("bmp: writing: %w", err)
	}
	return nil
}

// Size returns the number of bytes Encode writes.
func (b *Bitmap) Size() int {
	return int(newFileHeader(b.layout, b.table.Size()).fileSize)
}

// Import reads the bitmap stored at path.
func Import(path string) (*Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Export writes b to path. An existing file is replaced only when
// overwrite is set; otherwise the returned error matches fs.ErrExist.
func (b *Bitmap) Export(path string, overwrite bool) error {
	return exportFile(path, overwrite, b.Encode)
}

func exportFile(path string, overwrite bool, encode func(io.Writer) error) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := encode(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
