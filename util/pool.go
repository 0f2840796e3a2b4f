package util

import "sync"

// DefaultRecvSize is the per-read buffer size on the server side.
const DefaultRecvSize = 4096

// BufPool provides reusable receive buffers so each accepted
// connection does not allocate its own.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultRecvSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
