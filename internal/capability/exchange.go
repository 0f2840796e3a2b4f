package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	ncerr "tcphello/internal/errors"
	"tcphello/internal/session"
	"tcphello/util"
)

// Exchange performs the client side of the greeting: exactly one
// write of Message followed by exactly one read of at most BufferSize
// bytes, reporting progress on the session's stdout.
type Exchange struct {
	Message    string
	BufferSize int
	Timeout    time.Duration // applied as a deadline to the whole exchange; 0 disables
}

// Handle runs the exchange.  A write error or short write and a read
// error or empty reply are returned as *errors.IoError.
func (e *Exchange) Handle(ctx context.Context, sess *session.Session) error {
	conn := sess.Conn
	fmt.Fprintln(sess.Stdout, "Подключено к серверу!")

	if e.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(e.Timeout)); err != nil {
			sess.Logger.Debug("set deadline: %v", err)
		}
	}
	stop := util.CloseOnDone(ctx, conn)
	defer stop()

	msg := []byte(e.Message)
	n, err := conn.Write(msg)
	if err != nil {
		return e.fail(ctx, sess, ncerr.Write(sess.Peer, err))
	}
	if n < len(msg) {
		return e.fail(ctx, sess, ncerr.Write(sess.Peer, ncerr.ErrShortWrite))
	}
	sess.Logger.Verbose("sent %d bytes to %s", n, sess.Peer)
	fmt.Fprintf(sess.Stdout, "Отправлено: %s\n", e.Message)

	size := e.BufferSize
	if size <= 0 {
		size = 1024
	}
	buf := make([]byte, size)
	n, err = conn.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			err = ncerr.ErrEmptyReply
		}
		return e.fail(ctx, sess, ncerr.Read(sess.Peer, err))
	}
	// A final chunk delivered together with EOF is still a reply.
	sess.Logger.Verbose("received %d bytes from %s", n, sess.Peer)
	fmt.Fprintf(sess.Stdout, "Ответ сервера: %s\n", buf[:n])
	return nil
}

func (e *Exchange) fail(ctx context.Context, sess *session.Session, err error) error {
	sess.Metrics.RecordError(err.Error())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
