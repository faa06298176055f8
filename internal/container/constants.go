// Package container defines the framing of BMP and GIF files: magic bytes,
// header sizes, block introducers and extension labels, together with the
// little-endian field IO and GIF sub-block IO both codecs are built on.
package container

// BMP framing.
const (
	BMPSignature      = "BM"
	BMPFileHeaderSize = 14
	BMPInfoHeaderSize = 40
	BMPHeaderSize     = BMPFileHeaderSize + BMPInfoHeaderSize

	// BMPResolution is the default pixels-per-meter written to new files
	// (about 96 dpi).
	BMPResolution = 3780

	// BMPPaletteStride is the on-disk size of a BMP color table entry:
	// blue, green, red and a reserved zero byte.
	BMPPaletteStride = 4

	// BMPCompressionRGB is the only compression method supported.
	BMPCompressionRGB = 0
)

// GIF framing.
const (
	GIFSignature  = "GIF"
	GIFVersion87a = "87a"
	GIFVersion89a = "89a"
	GIFHeaderSize = 6

	// GIFScreenDescriptorSize excludes the global color table.
	GIFScreenDescriptorSize = 7
	// GIFImageDescriptorSize excludes the 0x2C introducer.
	GIFImageDescriptorSize = 9

	GIFPaletteStride = 3

	ExtensionIntroducer = 0x21
	ImageSeparator      = 0x2C
	Trailer             = 0x3B

	PlainTextLabel       = 0x01
	GraphicsControlLabel = 0xF9
	CommentLabel         = 0xFE
	ApplicationLabel     = 0xFF

	// MaxSubBlockSize is the largest payload of a single sub-block.
	MaxSubBlockSize = 255
)

// Packed field masks of the logical screen descriptor.
const (
	ScreenColorTableFlag  = 0x80
	ScreenResolutionMask  = 0x70
	ScreenSortFlag        = 0x08
	ScreenColorTableSize  = 0x07
	ScreenResolutionShift = 4
)

// Packed field masks of the image descriptor.
const (
	ImageColorTableFlag = 0x80
	ImageInterlaceFlag  = 0x40
	ImageSortFlag       = 0x20
	ImageColorTableSize = 0x07
)

// Packed field masks of the graphics control extension.
const (
	DisposalMask     = 0x1C
	DisposalShift    = 2
	UserInputFlag    = 0x02
	TransparencyFlag = 0x01

	// GraphicsControlSize is the fixed payload size of the extension.
	GraphicsControlSize = 4
)

// NetscapeID identifies the application extension carrying the loop count.
const NetscapeID = "NETSCAPE2.0"

// ColorTableSizeBits returns the 3-bit size field for a color table of at
// least n entries: the smallest k such that 1<<(k+1) >= n. n is clamped to
// [2, 256].
func ColorTableSizeBits(n int) uint8 {
	var k uint8
	for k < 7 && 1<<(k+1) < n {
		k++
	}
	return k
}

// ColorTableEntries returns the number of entries described by a 3-bit
// size field.
func ColorTableEntries(bits uint8) int {
	return 1 << (bits&ScreenColorTableSize + 1)
}

// Version is the library version stamped into the files it writes.
const Version = "1.0.0"
