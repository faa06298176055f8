// Command vpix converts images to and from BMP and GIF from the command line.
//
// Usage:
//
//	vpix enc [options] <input>        PNG/JPEG/GIF/BMP → BMP or GIF (use "-" for stdin)
//	vpix dec [options] <input>        BMP/GIF → PNG or JPEG (use "-" for stdin, -o - for stdout)
//	vpix info <input>                 Display BMP/GIF properties
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	stdgif "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/deepteams/vpixels"
	"github.com/deepteams/vpixels/animation"
	"github.com/deepteams/vpixels/bmp"
	"github.com/deepteams/vpixels/gif"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:])
	case "dec":
		err = runDec(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "version":
		fmt.Println("vpix", vpixels.Version)
		return
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vpix: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "vpix: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  vpix enc [options] <input>   Encode PNG/JPEG/GIF/BMP to BMP or GIF
  vpix dec [options] <input>   Decode BMP/GIF to PNG or JPEG
  vpix info <input>            Display BMP/GIF properties
  vpix version                 Print the library version

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "vpix <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// outputName derives the default output path from the input path.
func outputName(inputPath, ext string) string {
	if inputPath == "-" {
		return "output" + ext
	}
	return strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ext
}

// detectOutputFormat returns the flag value or, failing that, the format
// named by the output extension, else def.
func detectOutputFormat(fmtFlag, outputPath, def string, known ...string) (string, error) {
	f := strings.ToLower(fmtFlag)
	if f == "" && outputPath != "" && outputPath != "-" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
		if f == "jpg" {
			f = "jpeg"
		}
	}
	if f == "" {
		return def, nil
	}
	for _, k := range known {
		if f == k {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (use %s)", f, strings.Join(known, "/"))
}

// --- enc ---

// exporter is what both file objects offer for writing.
type exporter interface {
	Encode(w io.Writer) error
	Export(path string, overwrite bool) error
}

func runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	bpp := fs.Int("bpp", 24, "BMP bits per pixel: 1, 4, 8 or 24")
	fmtFlag := fs.String("fmt", "", "output format: bmp, gif (auto-detect from extension if omitted)")
	dither := fs.Bool("dither", false, "Floyd-Steinberg dithering for animated GIF output")
	force := fs.Bool("f", false, "overwrite an existing output file")
	output := fs.String("o", "", `output path (default: <input>.bmp, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: vpix enc [options] <input>")
	}
	inputPath := fs.Arg(0)

	outFmt, err := detectOutputFormat(*fmtFlag, *output, "bmp", "bmp", "gif")
	if err != nil {
		return fmt.Errorf("enc: %w", err)
	}
	if outFmt == "bmp" && !bmp.Supported(*bpp) {
		return fmt.Errorf("enc: %w: %d", bmp.ErrUnsupportedDepth, *bpp)
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	var (
		obj    exporter
		frames = 1
	)
	if outFmt == "gif" && strings.EqualFold(filepath.Ext(inputPath), ".gif") {
		g, n, err := encodeGIFFrames(in, *dither)
		if err != nil {
			return err
		}
		obj, frames = g, n
	} else {
		img, _, err := image.Decode(bufio.NewReader(in))
		if err != nil {
			return fmt.Errorf("enc: decoding input: %w", err)
		}
		if outFmt == "gif" {
			obj, err = gif.FromImage(img)
		} else {
			obj, err = bmp.FromImage(img, *bpp)
		}
		if err != nil {
			return fmt.Errorf("enc: %w", err)
		}
	}

	outputPath := *output
	if outputPath == "-" {
		w := bufio.NewWriter(os.Stdout)
		if err := obj.Encode(w); err != nil {
			return fmt.Errorf("enc: %w", err)
		}
		return w.Flush()
	}
	if outputPath == "" {
		outputPath = outputName(inputPath, "."+outFmt)
	}
	if err := obj.Export(outputPath, *force); err != nil {
		return fmt.Errorf("enc: %w", err)
	}

	fi, _ := os.Stat(outputPath)
	fmt.Fprintf(os.Stderr, "Encoded %s → %s (%d frames, %d bytes)\n", inputPath, outputPath, frames, fi.Size())
	return nil
}

// encodeGIFFrames reads any GIF the standard library accepts, interlaced
// ones included, and re-encodes its composited frames.
func encodeGIFFrames(r io.Reader, dither bool) (*gif.GIF, int, error) {
	src, err := stdgif.DecodeAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("enc: decoding GIF: %w", err)
	}
	if len(src.Image) == 0 {
		return nil, 0, fmt.Errorf("enc: GIF has no frames")
	}

	anim := &animation.Animation{
		CanvasWidth:  src.Config.Width,
		CanvasHeight: src.Config.Height,
		LoopCount:    src.LoopCount,
	}
	if anim.CanvasWidth == 0 || anim.CanvasHeight == 0 {
		anim.CanvasWidth = src.Image[0].Bounds().Dx()
		anim.CanvasHeight = src.Image[0].Bounds().Dy()
	}
	for i, frame := range src.Image {
		f := animation.Frame{
			Image:   frame,
			OffsetX: frame.Rect.Min.X,
			OffsetY: frame.Rect.Min.Y,
		}
		if i < len(src.Delay) {
			f.Duration = time.Duration(src.Delay[i]) * 10 * time.Millisecond
		}
		if i < len(src.Disposal) {
			f.Dispose = animation.DisposeMethod(src.Disposal[i])
		}
		anim.Frames = append(anim.Frames, f)
	}

	g, err := anim.GIF(&animation.EncodeOptions{Dither: dither})
	if err != nil {
		return nil, 0, fmt.Errorf("enc: %w", err)
	}
	return g, g.Len(), nil
}

// --- dec ---

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, jpeg (auto-detect from extension if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: vpix dec [options] <input>")
	}
	inputPath := fs.Arg(0)

	outFmt, err := detectOutputFormat(*fmtFlag, *output, "png", "png", "jpeg")
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	img, err := vpixels.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	outputPath := *output
	if outputPath == "-" {
		return encodeImage(os.Stdout, img, outFmt)
	}
	if outputPath == "" {
		ext := ".png"
		if outFmt == "jpeg" {
			ext = ".jpg"
		}
		outputPath = outputName(inputPath, ext)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := encodeImage(out, img, outFmt); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("dec: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fmt.Fprintf(os.Stderr, "Decoded %s → %s\n", inputPath, outputPath)
	return nil
}

// encodeImage writes img in the specified format to w.
func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(w, img)
	}
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: vpix info <input>")
	}
	inputPath := args[0]

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	feat, err := vpixels.GetFeatures(in)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:        %s\n", name)
	fmt.Printf("Format:      %s\n", feat.Format)
	fmt.Printf("Dimensions:  %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Depth:       %d bpp\n", feat.BitsPerPixel)
	if feat.ColorTableSize > 0 {
		fmt.Printf("Color table: %d entries\n", feat.ColorTableSize)
	} else {
		fmt.Printf("Color table: none\n")
	}
	fmt.Printf("Images:      %d\n", feat.FrameCount)
	switch {
	case feat.LoopCount == 0:
		fmt.Printf("Loop count:  infinite\n")
	case feat.LoopCount > 0:
		fmt.Printf("Loop count:  %d\n", feat.LoopCount)
	}
	for _, c := range feat.Comments {
		fmt.Printf("Comment:     %q\n", c)
	}

	if inputPath != "-" {
		fi, err := os.Stat(inputPath)
		if err == nil {
			fmt.Printf("File size:   %d bytes\n", fi.Size())
		}
	}

	return nil
}
