// Package vpixels reads and writes uncompressed BMP and GIF images in pure Go.
//
// The format packages hold the file objects and their editing operations:
//
//   - bmp: 1, 4, 8 and 24 bits per pixel bitmaps
//   - gif: GIF87a/GIF89a files with their images, color tables and
//     extensions, image data coded with LZW
//   - animation: frame compositing and animated GIF encoding
//
// This package sniffs the format of a stream and dispatches to them.
//
// Basic usage for decoding either format:
//
//	img, err := vpixels.Decode(reader)
//
// Basic usage for inspecting a file:
//
//	f, err := vpixels.GetFeatures(reader)
package vpixels
