package capability

import (
	"bytes"
	"context"
	"time"

	"tcphello/internal/session"
	"tcphello/internal/tracking"
	"tcphello/util"
)

// Tracker serves the tracking protocol on one accepted connection:
// every read is treated as one JSON report, answered with a single
// reply line, and persisted when it carries a location.  One Tracker
// serves every connection of a server, so Track accumulates the points
// of all of them.
type Tracker struct {
	Store       *tracking.Store
	Track       *tracking.Recorder // optional
	IdleTimeout time.Duration      // re-armed after every read; 0 waits forever
}

// Handle loops until the peer closes, sends an empty message, or the
// context is cancelled.  Resets and broken pipes end the session
// without an error.  On return the message count and the band summary
// of the shared track are logged.
func (t *Tracker) Handle(ctx context.Context, sess *session.Session) error {
	conn := sess.Conn
	stop := util.CloseOnDone(ctx, conn)
	defer stop()

	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	count := 0
	defer func() { t.logSessionEnd(sess, count) }()
	for {
		if t.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(t.IdleTimeout)) //nolint:errcheck
		}
		n, err := conn.Read(buf)
		if n == 0 && err != nil {
			if util.IsTimeout(err) && ctx.Err() == nil {
				sess.Logger.Debug("%s idle for %s", sess.Peer, t.IdleTimeout)
				continue
			}
			if util.IsHarmless(err) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		data := bytes.TrimSpace(buf[:n])
		if len(data) == 0 {
			sess.Logger.Verbose("%s sent an empty message, closing", sess.Peer)
			return nil
		}

		count++
		reply := t.handleReport(sess, count, data)
		if _, err := conn.Write([]byte(reply + "\n")); err != nil {
			if util.IsHarmless(err) {
				return nil
			}
			return err
		}
	}
}

func (t *Tracker) handleReport(sess *session.Session, count int, data []byte) string {
	r, err := tracking.ParseReport(data)
	if err != nil {
		sess.Metrics.ReportRejected()
		sess.Logger.Warn("report #%d from %s: %v", count, sess.Peer, err)
		return tracking.Reply(count, err)
	}

	if t.Store != nil {
		if err := t.Store.Append(r); err != nil {
			sess.Metrics.RecordError(err.Error())
			sess.Logger.Error("store report #%d: %v", count, err)
		}
	}
	sess.Metrics.ReportAccepted()

	p := r.Point()
	if t.Track != nil {
		t.Track.Add(p)
	}
	sess.Logger.Info("#%d %.6f,%.6f rsrp %d (%s)", count, p.Lat, p.Lon, p.RSRP, tracking.Classify(p.RSRP))
	return tracking.Reply(count, nil)
}

func (t *Tracker) logSessionEnd(sess *session.Session, count int) {
	sess.Logger.Info("%s disconnected (%d messages)", sess.Peer, count)
	if t.Track == nil {
		return
	}
	sum := t.Track.Summarize()
	sess.Logger.Info("track: %d points: %s", sum.Points, sum.BandCounts())
}
