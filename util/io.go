package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"
)

// CloseOnDone closes conn when ctx is cancelled, unblocking any
// pending Read or Write.  The returned stop function detaches the
// watcher; it must be called before conn is closed normally so the
// two closes never race.
func CloseOnDone(ctx context.Context, conn io.Closer) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		wg.Wait()
	}
}

// IsHarmless reports whether err is an expected way for a peer to go
// away: end of stream, a closed socket, a reset, or a broken pipe.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
