package bitio

// CodeWriter appends LSB-first codes to a growing byte slice.
//
// Whole bytes are flushed as soon as they are complete; a partial byte
// stays in the accumulator until End is called.
type CodeWriter struct {
	buf  []byte // output, appended to
	acc  uint32 // pending bits
	nacc uint   // number of pending bits, always < 8 between calls
}

// NewCodeWriter creates a CodeWriter that appends to dst. The caller owns
// any bytes already in dst.
func NewCodeWriter(dst []byte) *CodeWriter {
	return &CodeWriter{buf: dst}
}

// Write appends the low width bits of code. width must be in
// [1, MaxCodeWidth].
func (w *CodeWriter) Write(code uint16, width uint) {
	w.acc |= (uint32(code) & (1<<width - 1)) << w.nacc
	w.nacc += width
	for w.nacc >= 8 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc >>= 8
		w.nacc -= 8
	}
}

// End flushes a pending partial byte, zero-padded in its high bits. It is
// a no-op when no bits are pending.
func (w *CodeWriter) End() {
	if w.nacc > 0 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc = 0
		w.nacc = 0
	}
}

// Bytes returns the output written so far, excluding pending bits.
func (w *CodeWriter) Bytes() []byte {
	return w.buf
}

// Len returns the number of complete bytes written so far.
func (w *CodeWriter) Len() int {
	return len(w.buf)
}
