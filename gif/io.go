package gif

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/deepteams/vpixels/internal/container"
	"github.com/deepteams/vpixels/internal/lzw"
)

func readHeader(r *container.Reader) (string, error) {
	sig := r.String(container.GIFHeaderSize)
	if err := r.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotGIF, err)
	}
	switch container.Detect([]byte(sig)) {
	case container.FormatGIF87a:
		return container.GIFVersion87a, nil
	case container.FormatGIF89a:
		return container.GIFVersion89a, nil
	}
	return "", ErrNotGIF
}

// Decode reads a GIF from r. The stream must end with the trailer byte.
func Decode(r io.Reader) (*GIF, error) {
	cr := container.NewReader(r)
	g := &GIF{}
	var err error
	if g.version, err = readHeader(cr); err != nil {
		return nil, err
	}
	g.screen.read(cr)
	if err := cr.Err(); err != nil {
		return nil, fmt.Errorf("gif: reading screen descriptor: %w", err)
	}

	dec := lzw.NewDecoder()
	for n := 0; ; {
		id := cr.U8()
		if cr.Err() != nil {
			return nil, fmt.Errorf("%w: missing trailer", ErrNoTrailer)
		}
		switch id {
		case container.ImageSeparator:
			d := &imageDescriptor{}
			if err := d.read(cr, dec); err != nil {
				return nil, fmt.Errorf("gif: image %d: %w", n, err)
			}
			g.blocks = append(g.blocks, d)
			n++
		case container.ExtensionIntroducer:
			b, err := readExtension(cr)
			if err != nil {
				return nil, fmt.Errorf("gif: extension at offset %d: %w", cr.Offset(), err)
			}
			g.blocks = append(g.blocks, b)
		case container.Trailer:
			g.images = buildImages(g)
			return g, nil
		default:
			return nil, fmt.Errorf("%w: unexpected byte %#02x at offset %d", ErrNoTrailer, id, cr.Offset()-1)
		}
	}
}

// DecodeConfig returns the logical screen size and the global color table
// of a GIF without decoding any image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	cr := container.NewReader(r)
	if _, err := readHeader(cr); err != nil {
		return image.Config{}, err
	}
	var s screen
	s.read(cr)
	if err := cr.Err(); err != nil {
		return image.Config{}, fmt.Errorf("gif: reading screen descriptor: %w", err)
	}
	cfg := image.Config{Width: int(s.width), Height: int(s.height)}
	if s.hasTable() {
		pal := make(color.Palette, s.table.Size())
		for i := range pal {
			r, g, b, _ := s.table.Get(i)
			pal[i] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
		}
		cfg.ColorModel = pal
	} else {
		cfg.ColorModel = color.RGBAModel
	}
	return cfg, nil
}

// Encode writes g to w. Every file written carries a comment naming this
// library: it is appended after the last block, or replaces the last block
// when that is already a comment. g is modified accordingly.
func (g *GIF) Encode(w io.Writer) error {
	return g.encode(container.NewWriter(w))
}

func (g *GIF) encode(cw *container.Writer) error {
	g.stamp()
	cw.String(container.GIFSignature + g.version)
	g.screen.write(cw)
	if err := cw.Err(); err != nil {
		return fmt.Errorf("gif: writing screen descriptor: %w", err)
	}
	enc := lzw.NewEncoder()
	for i, b := range g.blocks {
		if err := b.write(cw, enc); err != nil {
			return fmt.Errorf("gif: writing block %d: %w", i, err)
		}
	}
	cw.U8(container.Trailer)
	if err := cw.Err(); err != nil {
		return fmt.Errorf("gif: writing trailer: %w", err)
	}
	return nil
}

func (g *GIF) stamp() {
	if n := len(g.blocks); n > 0 {
		if c, ok := g.blocks[n-1].(*commentExtension); ok {
			if string(c.text) != builtWith {
				c.text = []byte(builtWith)
			}
			return
		}
	}
	g.blocks = append(g.blocks, &commentExtension{text: []byte(builtWith)})
}

// Size returns the number of bytes Encode writes, stamping the comment as
// Encode does.
func (g *GIF) Size() (int, error) {
	cw := container.NewWriter(io.Discard)
	if err := g.encode(cw); err != nil {
		return 0, err
	}
	return int(cw.Len()), nil
}

// Import reads the GIF stored at path.
func Import(path string) (*GIF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Export writes g to path. An existing file is replaced only when
// overwrite is set; otherwise the returned error matches fs.ErrExist.
func (g *GIF) Export(path string, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := g.Encode(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
