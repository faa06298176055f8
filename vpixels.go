package vpixels

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/deepteams/vpixels/animation"
	"github.com/deepteams/vpixels/bmp"
	"github.com/deepteams/vpixels/gif"
	"github.com/deepteams/vpixels/internal/container"
)

// Version is the library version, also stamped into written GIF files.
const Version = container.Version

// Errors returned by the decoder.
var (
	ErrUnsupported = errors.New("vpixels: unsupported format")
	ErrNoFrames    = errors.New("vpixels: no image frames found")
)

// Features describes a BMP or GIF file's properties.
type Features struct {
	Format         string // "BMP", "GIF87a" or "GIF89a"
	Width          int    // logical screen width for GIF
	Height         int    // logical screen height for GIF
	BitsPerPixel   int    // color depth; color resolution for GIF
	ColorTableSize int    // global table for GIF, 0 when absent
	FrameCount     int    // number of images (1 for BMP)
	LoopCount      int    // GIF loop count (0 = infinite, -1 = none)
	Comments       []string
}

// sniff wraps r so that its leading bytes can be inspected and still be
// read by the format decoder.
func sniff(r io.Reader) (*bufio.Reader, container.Format, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	prefix, err := br.Peek(container.SniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, container.FormatUnknown, fmt.Errorf("vpixels: reading header: %w", err)
	}
	f := container.Detect(prefix)
	if f == container.FormatUnknown {
		return nil, f, ErrUnsupported
	}
	return br, f, nil
}

// Decode reads a BMP or GIF image from r. Bitmaps decode to
// *image.Paletted for indexed depths and *image.NRGBA for 24 bits. A GIF
// whose single image covers the screen decodes to *image.Paletted; any
// other GIF decodes to its first frame composited on a transparent
// *image.NRGBA canvas.
func Decode(r io.Reader) (image.Image, error) {
	br, f, err := sniff(r)
	if err != nil {
		return nil, err
	}
	if f == container.FormatBMP {
		b, err := bmp.Decode(br)
		if err != nil {
			return nil, err
		}
		return b.Image(), nil
	}

	g, err := gif.Decode(br)
	if err != nil {
		return nil, err
	}
	return firstFrame(g)
}

func firstFrame(g *gif.GIF) (image.Image, error) {
	if g.Len() == 0 {
		return nil, ErrNoFrames
	}
	if g.Len() == 1 {
		m, err := g.Image(0)
		if err != nil {
			return nil, err
		}
		if m.Bounds() == image.Rect(0, 0, g.Width(), g.Height()) {
			return m.Paletted()
		}
	}
	anim, err := animation.FromGIF(g)
	if err != nil {
		return nil, err
	}
	img, _, err := animation.NewDecoder(anim).NextFrame()
	return img, err
}

// DecodeConfig returns the color model and dimensions of a BMP or GIF
// image without decoding its pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	br, f, err := sniff(r)
	if err != nil {
		return image.Config{}, err
	}
	if f == container.FormatBMP {
		return bmp.DecodeConfig(br)
	}
	return gif.DecodeConfig(br)
}

// GetFeatures reads a whole BMP or GIF file and reports its properties.
func GetFeatures(r io.Reader) (*Features, error) {
	br, f, err := sniff(r)
	if err != nil {
		return nil, err
	}
	if f == container.FormatBMP {
		b, err := bmp.Decode(br)
		if err != nil {
			return nil, err
		}
		return &Features{
			Format:         f.String(),
			Width:          b.Width(),
			Height:         b.Height(),
			BitsPerPixel:   b.BitsPerPixel(),
			ColorTableSize: b.ColorTableSize(),
			FrameCount:     1,
			LoopCount:      -1,
		}, nil
	}

	g, err := gif.Decode(br)
	if err != nil {
		return nil, err
	}
	feat := &Features{
		Format:         f.String(),
		Width:          g.Width(),
		Height:         g.Height(),
		BitsPerPixel:   g.BitsPerPixel(),
		ColorTableSize: g.ColorTableSize(),
		FrameCount:     g.Len(),
		LoopCount:      -1,
		Comments:       g.Comments(),
	}
	if n, ok := g.LoopCount(); ok {
		feat.LoopCount = n
	}
	return feat, nil
}
