package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Errors returned by Reader and the block helpers.
var (
	ErrTruncated    = errors.New("container: truncated data")
	ErrBlockTooLong = errors.New("container: block longer than 255 bytes")
)

// Reader reads little-endian fields. The first error sticks: later reads
// return zero values and Err reports it, so a header can be parsed field by
// field and checked once.
type Reader struct {
	r   io.Reader
	buf [4]byte
	off int64
	err error
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered. A short read is reported as
// ErrTruncated.
func (r *Reader) Err() error { return r.err }

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.off }

// Full fills p entirely.
func (r *Reader) Full(p []byte) {
	if r.err != nil {
		return
	}
	n, err := io.ReadFull(r.r, p)
	r.off += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			r.err = fmt.Errorf("%w: %d bytes missing at offset %d", ErrTruncated, len(p)-n, r.off)
		} else {
			r.err = err
		}
	}
}

// Read implements io.Reader on top of Full: it either fills p or fails.
func (r *Reader) Read(p []byte) (int, error) {
	r.Full(p)
	if r.err != nil {
		return 0, r.err
	}
	return len(p), nil
}

// U8 reads one byte.
func (r *Reader) U8() uint8 {
	r.Full(r.buf[:1])
	if r.err != nil {
		return 0
	}
	return r.buf[0]
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() uint16 {
	r.Full(r.buf[:2])
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[:2])
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	r.Full(r.buf[:4])
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

// String reads n bytes as a string.
func (r *Reader) String(n int) string {
	p := make([]byte, n)
	r.Full(p)
	if r.err != nil {
		return ""
	}
	return string(p)
}

// Skip discards n bytes.
func (r *Reader) Skip(n int64) {
	if r.err != nil || n <= 0 {
		return
	}
	got, err := io.CopyN(io.Discard, r.r, n)
	r.off += got
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.err = fmt.Errorf("%w: %d bytes missing at offset %d", ErrTruncated, n-got, r.off)
		} else {
			r.err = err
		}
	}
}

// Writer writes little-endian fields, keeping the first error like Reader.
type Writer struct {
	w   io.Writer
	buf [4]byte
	n   int64
	err error
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Err() error { return w.err }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int64 { return w.n }

// Write writes p. Once an error has occurred nothing more is written and
// that error is returned.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	w.err = err
	return n, err
}

func (w *Writer) U8(v uint8) {
	w.buf[0] = v
	_, _ = w.Write(w.buf[:1])
}

func (w *Writer) U16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	_, _ = w.Write(w.buf[:2])
}

func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	_, _ = w.Write(w.buf[:4])
}

func (w *Writer) String(s string) {
	_, _ = io.WriteString(w, s)
}
