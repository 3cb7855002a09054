package thumbcore

import "sync"

// Buffer pools for reducing GC pressure on hot per-request allocations:
// captured Exif payloads and source read-ahead buffers.

type byteSlicePool struct {
	// Small buffers (up to 64KB) - captured metadata payloads
	small sync.Pool
	// Medium buffers (up to 256KB) - source read-ahead
	medium sync.Pool
	// Large buffers (up to 1MB) - whole-header buffering of metadata-heavy files
	large sync.Pool
}

const (
	smallBufferSize  = 64 * 1024   // 64KB
	mediumBufferSize = 256 * 1024  // 256KB
	largeBufferSize  = 1024 * 1024 // 1MB
)

var bufferPool = &byteSlicePool{
	small: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, smallBufferSize)
			return &buf
		},
	},
	medium: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, mediumBufferSize)
			return &buf
		},
	},
	large: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, largeBufferSize)
			return &buf
		},
	},
}

// GetBuffer returns a byte slice of exactly the requested length from the
// pool; its capacity may be larger. Call PutBuffer when done to return it.
func GetBuffer(size int) []byte {
	if size <= smallBufferSize {
		bufPtr := bufferPool.small.Get().(*[]byte)
		return (*bufPtr)[:size]
	}
	if size <= mediumBufferSize {
		bufPtr := bufferPool.medium.Get().(*[]byte)
		return (*bufPtr)[:size]
	}
	if size <= largeBufferSize {
		bufPtr := bufferPool.large.Get().(*[]byte)
		return (*bufPtr)[:size]
	}
	// For very large buffers, allocate directly
	return make([]byte, size)
}

// PutBuffer returns a buffer to the pool.
// The buffer should not be used after calling this function.
func PutBuffer(buf []byte) {
	c := cap(buf)
	if c == 0 {
		return
	}

	// Reset slice to full capacity for reuse
	buf = buf[:c]

	switch c {
	case smallBufferSize:
		bufferPool.small.Put(&buf)
	case mediumBufferSize:
		bufferPool.medium.Put(&buf)
	case largeBufferSize:
		bufferPool.large.Put(&buf)
	}
	// Don't pool non-standard sizes or very large buffers
}
