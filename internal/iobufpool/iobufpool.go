// Package iobufpool implements a size-segregated pool of byte buffers used
// by the Framer for messages too large to fit the default fixed buffer.
package iobufpool

import "sync"

const (
	minPoolExpOf2 = 8  // 256 bytes
	maxPoolExpOf2 = 25 // 32 MiB
)

var pools [maxPoolExpOf2 - minPoolExpOf2 + 1]*sync.Pool

func init() {
	for i := range pools {
		bufLen := 1 << (minPoolExpOf2 + i)
		pools[i] = &sync.Pool{New: func() any {
			buf := make([]byte, bufLen)
			return &buf
		}}
	}
}

// Get returns a []byte with len(buf) == size. Buffers up to 32 MiB come from
// a size-class pool; larger requests are allocated directly and never
// pooled.
func Get(size int) []byte {
	i := poolIdx(size)
	if i >= len(pools) {
		return make([]byte, size)
	}
	bufp := pools[i].Get().(*[]byte)
	return (*bufp)[:size]
}

// Put returns buf to the pool it came from, identified by its capacity.
func Put(buf []byte) {
	c := cap(buf)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	i := poolIdx(c)
	if i >= len(pools) || 1<<(minPoolExpOf2+i) != c {
		return
	}
	full := buf[:c]
	pools[i].Put(&full)
}

// poolIdx returns the index of the smallest pool whose buffers are >= size.
func poolIdx(size int) int {
	if size <= 1<<minPoolExpOf2 {
		return 0
	}
	size--
	size >>= minPoolExpOf2
	i := 0
	for size > 0 {
		size >>= 1
		i++
	}
	return i
}
