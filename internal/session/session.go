// Package session represents a single connection lifecycle, binding a
// network connection with its output sink, logger, and counters.
//
// Capabilities operate on sessions rather than raw connections, so a
// capability does not need to know whether it is printing to os.Stdout
// or a test buffer.
package session

import (
	"io"
	"net"

	"github.com/google/uuid"

	"tcphello/internal/metrics"
	"tcphello/util"
)

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID      string
	Peer    string // address as dialled or accepted, for error context
	Conn    net.Conn
	Stdout  io.Writer
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// New creates a Session with a fresh random ID.  The logger is scoped
// so JSON log lines carry the session ID.
func New(conn net.Conn, peer string, stdout io.Writer, logger *util.Logger, m *metrics.Collector) *Session {
	id := uuid.NewString()
	return &Session{
		ID:      id,
		Peer:    peer,
		Conn:    conn,
		Stdout:  stdout,
		Logger:  logger.With("session", id),
		Metrics: m,
	}
}
