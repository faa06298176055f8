// Package pool recycles the scratch byte slices used while reading and
// writing image files: sub-block payloads, padded BMP rows and pixel
// planes. Slices are grouped by size class so a row buffer for a wide
// bitmap does not displace the small sub-block buffers.
package pool

import "sync"

// Size classes.
const (
	SizeBlock = 256     // one GIF sub-block with its length byte
	SizeRow   = 4096    // a padded BMP row up to ~1360 pixels at 24 bpp
	SizePlane = 65536   // a small image's index plane
	SizeLarge = 1 << 20 // anything larger is allocated and not pooled
)

var classes = [...]int{SizeBlock, SizeRow, SizePlane, SizeLarge}

var pools [len(classes)]sync.Pool

func init() {
	for i := range pools {
		sz := classes[i]
		pools[i].New = func() any {
			b := make([]byte, sz)
			return &b
		}
	}
}

// class returns the pool index serving size, or -1 when size is too large
// to be pooled.
func class(size int) int {
	for i, c := range classes {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns a slice of length size. Its contents are unspecified. The
// caller should hand it back with Put once done.
func Get(size int) []byte {
	idx := class(size)
	if idx < 0 {
		return make([]byte, size)
	}
	bp := pools[idx].Get().(*[]byte)
	return (*bp)[:size]
}

// Put returns b to its pool. Slices whose capacity is not exactly one of the
// size classes were not obtained from Get and are dropped.
func Put(b []byte) {
	idx := class(cap(b))
	if idx < 0 || cap(b) != classes[idx] {
		return
	}
	b = b[:cap(b)]
	pools[idx].Put(&b)
}
