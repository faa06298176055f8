// Package palette implements the color table shared by the BMP and GIF
// codecs: up to 256 entries of three 8-bit channels.
//
// The channel order is decided by the caller (BMP stores blue, green, red;
// GIF stores red, green, blue), so entries are exposed as (a, b, c).
package palette

import (
	"errors"
	"fmt"
	"io"
)

// MaxSize is the largest number of entries a table can hold.
const MaxSize = 256

// Common errors.
var (
	ErrNoTable         = errors.New("palette: color table size == 0")
	ErrIndexOutOfRange = errors.New("palette: index out of range")
	ErrInvalidSize     = errors.New("palette: invalid size")
)

// Table is a color table. The zero value is an empty table (size 0).
type Table struct {
	size int
	data []byte // 3 bytes per entry
}

// New returns a zero-filled table of the given size.
func New(size int) (*Table, error) {
	t := &Table{}
	if err := t.Resize(size); err != nil {
		return nil, err
	}
	return t, nil
}

// Size returns the number of entries.
func (t *Table) Size() int {
	return t.size
}

// Resize changes the number of entries. Resizing to the current size is a
// no-op that keeps the contents; any other size discards them and every
// entry becomes (0, 0, 0). This is the reset used before importing a table.
func (t *Table) Resize(size int) error {
	if size < 0 || size > MaxSize {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if size == t.size {
		return nil
	}
	t.size = size
	if size == 0 {
		t.data = nil
		return nil
	}
	t.data = make([]byte, 3*size)
	return nil
}

func (t *Table) check(i int) error {
	if t.size == 0 {
		return ErrNoTable
	}
	if i < 0 || i >= t.size {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, t.size)
	}
	return nil
}

// Set stores entry i.
func (t *Table) Set(i int, a, b, c uint8) error {
	if err := t.check(i); err != nil {
		return err
	}
	p := t.data[3*i : 3*i+3]
	p[0], p[1], p[2] = a, b, c
	return nil
}

// Get returns entry i.
func (t *Table) Get(i int) (a, b, c uint8, err error) {
	if err = t.check(i); err != nil {
		return 0, 0, 0, err
	}
	p := t.data[3*i : 3*i+3]
	return p[0], p[1], p[2], nil
}

// Fill sets every channel of entries [from, Size()) to v.
func (t *Table) Fill(from int, v uint8) {
	if from < 0 {
		from = 0
	}
	for i := 3 * from; i < len(t.data); i++ {
		t.data[i] = v
	}
}

// CopyFrom copies the leading entries of src into t, up to the smaller of
// the two sizes, and returns the number of entries copied.
func (t *Table) CopyFrom(src *Table) int {
	n := min(t.size, src.size)
	copy(t.data[:3*n], src.data[:3*n])
	return n
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{size: t.size}
	if t.size > 0 {
		c.data = make([]byte, len(t.data))
		copy(c.data, t.data)
	}
	return c
}

// ReadFrom fills the table from r. Each entry occupies stride bytes on the
// wire (3 for GIF, 4 for BMP); bytes past the third are skipped.
func (t *Table) ReadFrom(r io.Reader, stride int) error {
	if t.size == 0 {
		return nil
	}
	if stride < 3 {
		return fmt.Errorf("%w: stride %d", ErrInvalidSize, stride)
	}
	raw := make([]byte, stride*t.size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return err
	}
	for i := 0; i < t.size; i++ {
		copy(t.data[3*i:3*i+3], raw[stride*i:])
	}
	return nil
}

// WriteTo writes the table to w with the given entry stride. Padding bytes
// are written as zero.
func (t *Table) WriteTo(w io.Writer, stride int) error {
	if t.size == 0 {
		return nil
	}
	if stride < 3 {
		return fmt.Errorf("%w: stride %d", ErrInvalidSize, stride)
	}
	raw := make([]byte, stride*t.size)
	for i := 0; i < t.size; i++ {
		copy(raw[stride*i:], t.data[3*i:3*i+3])
	}
	_, err := w.Write(raw)
	return err
}
