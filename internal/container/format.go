package container

import "bytes"

// Format identifies a file format by its leading bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatBMP
	FormatGIF87a
	FormatGIF89a
)

// SniffLen is the number of leading bytes Detect looks at.
const SniffLen = GIFHeaderSize

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatBMP:
		return "BMP"
	case FormatGIF87a:
		return "GIF87a"
	case FormatGIF89a:
		return "GIF89a"
	default:
		return "unknown"
	}
}

// IsGIF reports whether f is one of the GIF versions.
func (f Format) IsGIF() bool {
	return f == FormatGIF87a || f == FormatGIF89a
}

// Detect identifies the format of a file from its first bytes.
func Detect(prefix []byte) Format {
	switch {
	case bytes.HasPrefix(prefix, []byte(BMPSignature)):
		return FormatBMP
	case bytes.HasPrefix(prefix, []byte(GIFSignature+GIFVersion89a)):
		return FormatGIF89a
	case bytes.HasPrefix(prefix, []byte(GIFSignature+GIFVersion87a)):
		return FormatGIF87a
	}
	return FormatUnknown
}
