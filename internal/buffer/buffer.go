// Package buffer provides an owned, index-checked byte buffer used as the
// storage substrate for pixel data.
package buffer

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned for any access outside [0, Len()) and for
// negative lengths.
var ErrIndexOutOfRange = errors.New("buffer: index out of range")

// Bytes is a resizable sequence of bytes. All indexed access is checked
// against the current length; a failed access never touches the data.
type Bytes struct {
	b []byte
}

// New returns a zero-filled buffer of length n.
func New(n int) (*Bytes, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: length %d", ErrIndexOutOfRange, n)
	}
	return &Bytes{b: make([]byte, n)}, nil
}

// Len returns the number of bytes in the buffer.
func (b *Bytes) Len() int {
	return len(b.b)
}

// Resize reallocates the buffer to length n. The previous contents are
// discarded and every byte is zero. A negative n leaves the buffer as is.
func (b *Bytes) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: length %d", ErrIndexOutOfRange, n)
	}
	b.b = make([]byte, n)
	return nil
}

// At returns the byte at index i.
func (b *Bytes) At(i int) (byte, error) {
	if i < 0 || i >= len(b.b) {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(b.b))
	}
	return b.b[i], nil
}

// Set stores v at index i.
func (b *Bytes) Set(i int, v byte) error {
	if i < 0 || i >= len(b.b) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(b.b))
	}
	b.b[i] = v
	return nil
}

// Fill sets every byte to v.
func (b *Bytes) Fill(v byte) {
	for i := range b.b {
		b.b[i] = v
	}
}

// Bytes returns the underlying slice. It is valid until the next Resize and
// is meant for bulk serialization, not for indexed editing.
func (b *Bytes) Bytes() []byte {
	return b.b
}

// Clone returns a deep copy.
func (b *Bytes) Clone() *Bytes {
	c := make([]byte, len(b.b))
	copy(c, b.b)
	return &Bytes{b: c}
}
