package gif

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/lzw"
	"github.com/deepteams/vpixels/internal/palette"
)

// block is one image descriptor or extension of the data stream.
type block interface {
	write(w *container.Writer, enc *lzw.Encoder) error
	clone() block
}

// minCodeSize is the smallest LZW minimum code size a GIF may declare.
const minCodeSize = 2

// imageDescriptor is an image descriptor with its local color table and
// pixel indices, stored row by row from the top.
type imageDescriptor struct {
	left, top     uint16
	width, height uint16
	packed        uint8
	table         *palette.Table
	bpp           uint8
	pix           []byte
}

func newImageDescriptor(bpp, width, height int, localColorTable bool) *imageDescriptor {
	d := &imageDescriptor{
		width:  uint16(width),
		height: uint16(height),
		table:  &palette.Table{},
		bpp:    uint8(bpp),
		pix:    make([]byte, width*height),
	}
	if localColorTable {
		d.packed |= container.ImageColorTableFlag | uint8(bpp-1)
		d.table = whiteTable(1 << bpp)
	}
	return d
}

func (d *imageDescriptor) clone() block {
	c := *d
	c.table = d.table.Clone()
	c.pix = bytes.Clone(d.pix)
	return &c
}

func (d *imageDescriptor) read(r *container.Reader, dec *lzw.Decoder) error {
	d.left = r.U16()
	d.top = r.U16()
	d.width = r.U16()
	d.height = r.U16()
	d.packed = r.U8()
	if err := r.Err(); err != nil {
		return err
	}
	if d.packed&container.ImageInterlaceFlag != 0 {
		return ErrInterlaced
	}
	d.table = readTable(r, d.packed&container.ImageColorTableFlag != 0, d.packed)
	d.bpp = r.U8()
	codes := container.ReadSubBlocks(r, nil)
	if err := r.Err(); err != nil {
		return err
	}
	pix, err := dec.Decode(nil, int(d.bpp), codes)
	if err != nil {
		return fmt.Errorf("gif: image data at offset %d: %w", r.Offset(), err)
	}
	if want := int(d.width) * int(d.height); len(pix) != want {
		return fmt.Errorf("%w: %d pixels, want %d", ErrImageDataSize, len(pix), want)
	}
	d.pix = pix
	return nil
}

func (d *imageDescriptor) write(w *container.Writer, enc *lzw.Encoder) error {
	if d.bpp < 8 {
		limit := byte(1) << d.bpp
		for i, p := range d.pix {
			if p >= limit {
				return fmt.Errorf("%w: pixel %d holds %d at depth %d", ErrColorIndex, i, p, d.bpp)
			}
		}
	}
	codes, err := enc.Encode(nil, int(d.bpp), d.pix)
	if err != nil {
		return err
	}
	w.U8(container.ImageSeparator)
	w.U16(d.left)
	w.U16(d.top)
	w.U16(d.width)
	w.U16(d.height)
	w.U8(d.packed)
	_ = d.table.WriteTo(w, container.GIFPaletteStride)
	w.U8(d.bpp)
	container.WriteSubBlocks(w, codes)
	return w.Err()
}

// graphicsControl is the graphics control extension of one image.
type graphicsControl struct {
	packed uint8
	delay  uint16 // centiseconds
	trans  uint8
}

// newGraphicsControl returns the extension written for new animation
// frames: disposal method 1 (do not dispose), no delay, no transparency.
func newGraphicsControl() *graphicsControl {
	return &graphicsControl{packed: 1 << container.DisposalShift}
}

func (c *graphicsControl) clone() block {
	cc := *c
	return &cc
}

func (c *graphicsControl) read(r *container.Reader) error {
	data := container.ReadSubBlocks(r, nil)
	if err := r.Err(); err != nil {
		return err
	}
	if len(data) != container.GraphicsControlSize {
		return fmt.Errorf("%w: %d bytes", ErrGraphicsControl, len(data))
	}
	c.packed = data[0]
	c.delay = binary.LittleEndian.Uint16(data[1:3])
	c.trans = data[3]
	return nil
}

func (c *graphicsControl) write(w *container.Writer, _ *lzw.Encoder) error {
	w.U8(container.ExtensionIntroducer)
	w.U8(container.GraphicsControlLabel)
	w.U8(container.GraphicsControlSize)
	w.U8(c.packed)
	w.U16(c.delay)
	w.U8(c.trans)
	w.U8(0)
	return w.Err()
}

func (c *graphicsControl) disposal() int {
	return int(c.packed&container.DisposalMask) >> container.DisposalShift
}

// commentExtension holds free text.
type commentExtension struct {
	text []byte
}

func (c *commentExtension) clone() block {
	return &commentExtension{text: bytes.Clone(c.text)}
}

func (c *commentExtension) write(w *container.Writer, _ *lzw.Encoder) error {
	w.U8(container.ExtensionIntroducer)
	w.U8(container.CommentLabel)
	container.WriteSubBlocks(w, c.text)
	return w.Err()
}

// applicationExtension is an application identifier block followed by
// application data. NETSCAPE2.0 data {1, lo, hi} is the loop count.
type applicationExtension struct {
	id   []byte
	data []byte
}

func newLoopExtension() *applicationExtension {
	return &applicationExtension{
		id:   []byte(container.NetscapeID),
		data: []byte{0x01, 0x00, 0x00},
	}
}

func (a *applicationExtension) clone() block {
	return &applicationExtension{id: bytes.Clone(a.id), data: bytes.Clone(a.data)}
}

func (a *applicationExtension) isLoop() bool {
	return len(a.data) == 3 && a.data[0] == 0x01
}

func (a *applicationExtension) loopCount() int {
	if !a.isLoop() {
		return 0
	}
	return int(binary.LittleEndian.Uint16(a.data[1:]))
}

func (a *applicationExtension) setLoopCount(n uint16) {
	if a.isLoop() {
		binary.LittleEndian.PutUint16(a.data[1:], n)
	}
}

func (a *applicationExtension) write(w *container.Writer, _ *lzw.Encoder) error {
	w.U8(container.ExtensionIntroducer)
	w.U8(container.ApplicationLabel)
	container.WriteBlock(w, a.id)
	container.WriteSubBlocks(w, a.data)
	return w.Err()
}

// plainTextExtension keeps its text grid header and text verbatim; it is
// never rendered.
type plainTextExtension struct {
	header []byte
	text   []byte
}

func (p *plainTextExtension) clone() block {
	return &plainTextExtension{header: bytes.Clone(p.header), text: bytes.Clone(p.text)}
}

func (p *plainTextExtension) write(w *container.Writer, _ *lzw.Encoder) error {
	w.U8(container.ExtensionIntroducer)
	w.U8(container.PlainTextLabel)
	container.WriteBlock(w, p.header)
	container.WriteSubBlocks(w, p.text)
	return w.Err()
}

// rawExtension is an extension with an unknown label, kept so that it is
// written back unchanged.
type rawExtension struct {
	label uint8
	data  []byte
}

func (x *rawExtension) clone() block {
	return &rawExtension{label: x.label, data: bytes.Clone(x.data)}
}

func (x *rawExtension) write(w *container.Writer, _ *lzw.Encoder) error {
	w.U8(container.ExtensionIntroducer)
	w.U8(x.label)
	container.WriteSubBlocks(w, x.data)
	return w.Err()
}

// readExtension reads the extension that follows an introducer.
func readExtension(r *container.Reader) (block, error) {
	label := r.U8()
	if err := r.Err(); err != nil {
		return nil, err
	}
	var b block
	switch label {
	case container.GraphicsControlLabel:
		c := &graphicsControl{}
		if err := c.read(r); err != nil {
			return nil, err
		}
		b = c
	case container.CommentLabel:
		b = &commentExtension{text: container.ReadSubBlocks(r, nil)}
	case container.ApplicationLabel:
		id := container.ReadBlock(r)
		b = &applicationExtension{id: id, data: container.ReadSubBlocks(r, nil)}
	case container.PlainTextLabel:
		hdr := container.ReadBlock(r)
		b = &plainTextExtension{header: hdr, text: container.ReadSubBlocks(r, nil)}
	default:
		b = &rawExtension{label: label, data: container.ReadSubBlocks(r, nil)}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b, nil
}
