package container

import (
	"fmt"

	"github.com/deepteams/vpixels/internal/pool"
)

// ReadSubBlocks reads a chain of length-prefixed sub-blocks up to and
// including the zero-length terminator, appending the payloads to dst.
func ReadSubBlocks(r *Reader, dst []byte) []byte {
	for {
		n := int(r.U8())
		if r.err != nil || n == 0 {
			return dst
		}
		start := len(dst)
		dst = append(dst, make([]byte, n)...)
		r.Full(dst[start:])
		if r.err != nil {
			return dst[:start]
		}
	}
}

// SkipSubBlocks discards a sub-block chain.
func SkipSubBlocks(r *Reader) {
	for {
		n := int64(r.U8())
		if r.err != nil || n == 0 {
			return
		}
		r.Skip(n)
	}
}

// WriteSubBlocks writes data as a chain of sub-blocks of at most 255 bytes
// followed by the terminator. Empty data produces the terminator alone.
func WriteSubBlocks(w *Writer, data []byte) {
	blk := pool.Get(pool.SizeBlock)
	defer pool.Put(blk)
	for len(data) > 0 {
		n := min(len(data), MaxSubBlockSize)
		blk[0] = byte(n)
		copy(blk[1:], data[:n])
		_, _ = w.Write(blk[:n+1])
		data = data[n:]
	}
	w.U8(0)
}

// ReadBlock reads a single length-prefixed block without terminator.
func ReadBlock(r *Reader) []byte {
	n := int(r.U8())
	if r.err != nil || n == 0 {
		return nil
	}
	p := make([]byte, n)
	r.Full(p)
	if r.err != nil {
		return nil
	}
	return p
}

// WriteBlock writes data as a single length-prefixed block.
func WriteBlock(w *Writer, data []byte) {
	if len(data) > MaxSubBlockSize {
		if w.err == nil {
			w.err = fmt.Errorf("%w: %d", ErrBlockTooLong, len(data))
		}
		return
	}
	w.U8(uint8(len(data)))
	_, _ = w.Write(data)
}
